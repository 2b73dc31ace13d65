package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmtypes "github.com/mpazaryna/telos/pkg/types/llm"
)

func toolCall(id, name string) llmtypes.ToolCall {
	return llmtypes.ToolCall{ID: id, Name: name, Arguments: map[string]any{}}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcp.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"mcpServers": {
			"docs": {"url": "https://docs.example.com/mcp"},
			"events": {"url": "https://events.example.com/sse", "type": "sse", "headers": {"Authorization": "Bearer token"}}
		}
	}`), 0o644))

	config, err := LoadConfig(path, map[string]string{})
	require.NoError(t, err)
	require.Len(t, config.Servers, 2)

	assert.Equal(t, "https://docs.example.com/mcp", config.Servers["docs"].URL)
	assert.Equal(t, ServerType(""), config.Servers["docs"].Type)
	assert.Equal(t, ServerTypeSSE, config.Servers["events"].Type)
	assert.Equal(t, "Bearer token", config.Servers["events"].Headers["Authorization"])
}

func TestLoadConfigInterpolatesEnv(t *testing.T) {
	env := map[string]string{
		"MCP_TEST_TOKEN": "s3cret",
		"MCP_TEST_HOST":  "mcp.example.com",
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "mcp.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"mcpServers": {
			"api": {
				"url": "https://${MCP_TEST_HOST}/mcp",
				"headers": {"Authorization": "Bearer ${MCP_TEST_TOKEN}", "X-Missing": "${MCP_TEST_UNSET_VAR}"}
			}
		}
	}`), 0o644))

	config, err := LoadConfig(path, env)
	require.NoError(t, err)

	server := config.Servers["api"]
	assert.Equal(t, "https://mcp.example.com/mcp", server.URL)
	assert.Equal(t, "Bearer s3cret", server.Headers["Authorization"])
	assert.Equal(t, "", server.Headers["X-Missing"])
}

func TestLoadConfigResolvesDotenvOnlySecrets(t *testing.T) {
	// The token is present only in the merged env map, never in the
	// process environment.
	require.Empty(t, os.Getenv("MCP_TEST_DOTENV_TOKEN"))
	env := map[string]string{"MCP_TEST_DOTENV_TOKEN": "from-dotenv"}

	dir := t.TempDir()
	path := filepath.Join(dir, "mcp.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"mcpServers": {
			"api": {
				"url": "https://mcp.example.com/mcp",
				"headers": {"Authorization": "Bearer ${MCP_TEST_DOTENV_TOKEN}"}
			}
		}
	}`), 0o644))

	config, err := LoadConfig(path, env)
	require.NoError(t, err)
	assert.Equal(t, "Bearer from-dotenv", config.Servers["api"].Headers["Authorization"])
}

func TestLoadConfigMissingURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcp.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers": {"bad": {}}}`), 0o644))

	_, err := LoadConfig(path, map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no url")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"), map[string]string{})
	assert.Error(t, err)
}

func TestInterpolateEnv(t *testing.T) {
	env := map[string]string{"MCP_TEST_VALUE": "abc"}

	assert.Equal(t, "abc", InterpolateEnv("${MCP_TEST_VALUE}", env))
	assert.Equal(t, "prefix-abc-suffix", InterpolateEnv("prefix-${MCP_TEST_VALUE}-suffix", env))
	assert.Equal(t, "", InterpolateEnv("${MCP_TEST_UNSET_VAR}", env))
	assert.Equal(t, "no refs here", InterpolateEnv("no refs here", env))
	assert.Equal(t, "$NOT_BRACED", InterpolateEnv("$NOT_BRACED", env))
}

func TestNewTransportSelection(t *testing.T) {
	sse, err := newTransport(ServerConfig{URL: "https://example.com/sse", Type: ServerTypeSSE})
	require.NoError(t, err)
	assert.IsType(t, &transport.SSE{}, sse)

	streamable, err := newTransport(ServerConfig{URL: "https://example.com/mcp"})
	require.NoError(t, err)
	assert.IsType(t, &transport.StreamableHTTP{}, streamable)

	httpType, err := newTransport(ServerConfig{URL: "https://example.com/mcp", Type: ServerTypeHTTP})
	require.NoError(t, err)
	assert.IsType(t, &transport.StreamableHTTP{}, httpType)

	explicit, err := newTransport(ServerConfig{URL: "https://example.com/mcp", Type: ServerTypeStreamableHTTP})
	require.NoError(t, err)
	assert.IsType(t, &transport.StreamableHTTP{}, explicit)

	_, err = newTransport(ServerConfig{URL: "https://example.com/mcp", Type: "websocket"})
	assert.Error(t, err)
}

func TestManagerNilSafe(t *testing.T) {
	var m *Manager

	assert.Nil(t, m.Tools())
	assert.False(t, m.HasTool("anything"))
	m.Close()

	result := m.CallTool(context.Background(), toolCall("call-1", "anything"))
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "Unknown tool")
	assert.Equal(t, "call-1", result.ToolCallID)
}

func TestManagerUnknownTool(t *testing.T) {
	m := &Manager{}

	result := m.CallTool(context.Background(), toolCall("call-2", "ghost"))
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "Unknown tool: ghost")
}
