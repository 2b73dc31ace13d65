// Package llm selects and configures the model provider backing a run.
package llm

import (
	"github.com/pkg/errors"

	"github.com/mpazaryna/telos/pkg/llm/anthropic"
	"github.com/mpazaryna/telos/pkg/llm/openai"
	llmtypes "github.com/mpazaryna/telos/pkg/types/llm"
)

const (
	defaultAnthropicModel = "claude-sonnet-4-6"
	defaultOpenAIModel    = "gpt-4o"
	defaultOllamaModel    = "llama3.1"
	defaultOllamaBaseURL  = "http://localhost:11434/v1"
)

// ResolveConfig turns the environment into a provider config. TELOS_PROVIDER
// selects the backend (anthropic, openai or ollama; anthropic is the
// default), TELOS_MODEL overrides the model and TELOS_BASE_URL the endpoint.
// Missing credentials fail here, before any conversation starts.
func ResolveConfig(env map[string]string) (llmtypes.Config, error) {
	provider := env["TELOS_PROVIDER"]
	if provider == "" {
		provider = "anthropic"
	}

	config := llmtypes.Config{
		Provider: provider,
		Model:    env["TELOS_MODEL"],
		BaseURL:  env["TELOS_BASE_URL"],
	}

	switch provider {
	case "anthropic":
		config.APIKey = env["ANTHROPIC_API_KEY"]
		if config.APIKey == "" {
			return llmtypes.Config{}, errors.New("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
		if config.Model == "" {
			config.Model = defaultAnthropicModel
		}
	case "openai":
		config.APIKey = env["OPENAI_API_KEY"]
		if config.APIKey == "" {
			return llmtypes.Config{}, errors.New("OPENAI_API_KEY is required for the openai provider")
		}
		if config.Model == "" {
			config.Model = defaultOpenAIModel
		}
	case "ollama":
		// Ollama's OpenAI-compatible endpoint ignores the key but the
		// client requires one.
		config.APIKey = "ollama"
		if config.Model == "" {
			config.Model = defaultOllamaModel
		}
		if config.BaseURL == "" {
			config.BaseURL = defaultOllamaBaseURL
		}
	default:
		return llmtypes.Config{}, errors.Errorf("unknown provider: %s", provider)
	}

	return config, nil
}

// NewProvider builds the provider for a resolved config. Ollama rides the
// OpenAI-compatible backend.
func NewProvider(config llmtypes.Config) (llmtypes.Provider, error) {
	switch config.Provider {
	case "anthropic":
		return anthropic.NewProvider(config), nil
	case "openai", "ollama":
		return openai.NewProvider(config), nil
	default:
		return nil, errors.Errorf("unknown provider: %s", config.Provider)
	}
}

// NewProviderFromEnv resolves the environment and builds the provider in
// one step.
func NewProviderFromEnv(env map[string]string) (llmtypes.Provider, error) {
	config, err := ResolveConfig(env)
	if err != nil {
		return nil, err
	}
	return NewProvider(config)
}
