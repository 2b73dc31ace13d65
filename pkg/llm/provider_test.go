package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigDefaultsToAnthropic(t *testing.T) {
	config, err := ResolveConfig(map[string]string{
		"ANTHROPIC_API_KEY": "sk-ant-test",
	})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", config.Provider)
	assert.Equal(t, "claude-sonnet-4-6", config.Model)
	assert.Equal(t, "sk-ant-test", config.APIKey)
	assert.Empty(t, config.BaseURL)
}

func TestResolveConfigAnthropicRequiresKey(t *testing.T) {
	_, err := ResolveConfig(map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestResolveConfigOpenAI(t *testing.T) {
	config, err := ResolveConfig(map[string]string{
		"TELOS_PROVIDER": "openai",
		"OPENAI_API_KEY": "sk-test",
	})
	require.NoError(t, err)
	assert.Equal(t, "openai", config.Provider)
	assert.Equal(t, "gpt-4o", config.Model)

	_, err = ResolveConfig(map[string]string{"TELOS_PROVIDER": "openai"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestResolveConfigOllamaNeedsNoKey(t *testing.T) {
	config, err := ResolveConfig(map[string]string{
		"TELOS_PROVIDER": "ollama",
	})
	require.NoError(t, err)
	assert.Equal(t, "ollama", config.Provider)
	assert.Equal(t, "llama3.1", config.Model)
	assert.Equal(t, "http://localhost:11434/v1", config.BaseURL)
	assert.Equal(t, "ollama", config.APIKey)
}

func TestResolveConfigOverrides(t *testing.T) {
	config, err := ResolveConfig(map[string]string{
		"TELOS_PROVIDER":    "ollama",
		"TELOS_MODEL":       "qwen2.5-coder",
		"TELOS_BASE_URL":    "http://remote:11434/v1",
		"ANTHROPIC_API_KEY": "unused",
	})
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5-coder", config.Model)
	assert.Equal(t, "http://remote:11434/v1", config.BaseURL)
}

func TestResolveConfigUnknownProvider(t *testing.T) {
	_, err := ResolveConfig(map[string]string{"TELOS_PROVIDER": "bedrock"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestNewProviderFromEnv(t *testing.T) {
	provider, err := NewProviderFromEnv(map[string]string{
		"ANTHROPIC_API_KEY": "sk-ant-test",
	})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", provider.Name())
	assert.Equal(t, "claude-sonnet-4-6", provider.Model())

	provider, err = NewProviderFromEnv(map[string]string{
		"TELOS_PROVIDER": "ollama",
		"TELOS_MODEL":    "llama3.1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ollama", provider.Name())
	assert.Equal(t, "llama3.1", provider.Model())
}
