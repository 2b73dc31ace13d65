// Package mcp connects to external Model Context Protocol servers over
// HTTP transports and exposes their tools alongside the built-in ones.
package mcp

import (
	"context"
	"encoding/json"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pkg/errors"

	"github.com/mpazaryna/telos/pkg/logger"
	llmtypes "github.com/mpazaryna/telos/pkg/types/llm"
	"github.com/mpazaryna/telos/pkg/version"
)

// ServerType selects the HTTP transport used for a server.
type ServerType string

const (
	// ServerTypeSSE uses the server-sent-events transport
	ServerTypeSSE ServerType = "sse"
	// ServerTypeHTTP is an alias accepted for streamable HTTP
	ServerTypeHTTP ServerType = "http"
	// ServerTypeStreamableHTTP uses the streamable HTTP transport (default)
	ServerTypeStreamableHTTP ServerType = "streamable-http"
)

// ServerConfig describes one remote server in mcp.json
type ServerConfig struct {
	URL     string            `json:"url"`
	Type    ServerType        `json:"type,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Config is the parsed mcp.json document
type Config struct {
	Servers map[string]ServerConfig `json:"mcpServers"`
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// InterpolateEnv replaces ${VAR} references with values from env. The
// mapping comes from the run's merged environment, so dotenv-only secrets
// resolve too. Unset variables expand to the empty string.
func InterpolateEnv(s string, env map[string]string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return env[name]
	})
}

// LoadConfig reads and parses an mcp.json file, interpolating ${VAR}
// references in URLs and header values against env.
func LoadConfig(path string, env map[string]string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read mcp config")
	}

	config := &Config{}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to parse mcp config")
	}

	for name, server := range config.Servers {
		if server.URL == "" {
			return nil, errors.Errorf("mcp server %q has no url", name)
		}
		server.URL = InterpolateEnv(server.URL, env)
		for k, v := range server.Headers {
			server.Headers[k] = InterpolateEnv(v, env)
		}
		config.Servers[name] = server
	}

	return config, nil
}

// newTransport builds the transport for a server based on its declared type.
// "sse" selects SSE; "http", "streamable-http" and the empty string select
// streamable HTTP.
func newTransport(server ServerConfig) (transport.Interface, error) {
	switch server.Type {
	case ServerTypeSSE:
		return transport.NewSSE(server.URL, transport.WithHeaders(server.Headers))
	case ServerTypeHTTP, ServerTypeStreamableHTTP, "":
		return transport.NewStreamableHTTP(server.URL, transport.WithHTTPHeaders(server.Headers))
	default:
		return nil, errors.Errorf("unknown mcp server type: %s", server.Type)
	}
}

// Manager holds the live connections to the configured servers and routes
// tool calls to the server that advertised the tool.
type Manager struct {
	clients map[string]*client.Client
	routes  map[string]*client.Client
	defs    []llmtypes.ToolDefinition
}

// Connect establishes a session with every configured server and lists its
// tools. Connection is all-or-nothing: if any server fails, the sessions
// already opened are closed and an error is returned.
func Connect(ctx context.Context, config *Config) (*Manager, error) {
	m := &Manager{
		clients: make(map[string]*client.Client),
		routes:  make(map[string]*client.Client),
	}

	names := make([]string, 0, len(config.Servers))
	for name := range config.Servers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		server := config.Servers[name]
		c, err := connectServer(ctx, server)
		if err != nil {
			m.Close()
			return nil, errors.Wrapf(err, "failed to connect to mcp server %q", name)
		}
		m.clients[name] = c

		toolsResult, err := c.ListTools(ctx, mcp.ListToolsRequest{})
		if err != nil {
			m.Close()
			return nil, errors.Wrapf(err, "failed to list tools on mcp server %q", name)
		}

		for _, tool := range toolsResult.Tools {
			if _, exists := m.routes[tool.Name]; exists {
				logger.G(ctx).WithField("tool", tool.Name).Warn("duplicate mcp tool name, keeping first server")
				continue
			}
			m.routes[tool.Name] = c
			m.defs = append(m.defs, toolDefinition(tool))
		}

		logger.G(ctx).WithField("server", name).WithField("tools", len(toolsResult.Tools)).Debug("connected to mcp server")
	}

	return m, nil
}

func connectServer(ctx context.Context, server ServerConfig) (*client.Client, error) {
	tp, err := newTransport(server)
	if err != nil {
		return nil, err
	}

	c := client.NewClient(tp)
	if err := c.Start(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to start transport")
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "telos",
		Version: version.Version,
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return nil, errors.Wrap(err, "failed to initialize session")
	}

	return c, nil
}

func toolDefinition(tool mcp.Tool) llmtypes.ToolDefinition {
	schema := map[string]any{
		"type": "object",
	}
	if raw, err := json.Marshal(tool.InputSchema); err == nil {
		parsed := map[string]any{}
		if err := json.Unmarshal(raw, &parsed); err == nil && len(parsed) > 0 {
			schema = parsed
		}
	}
	return llmtypes.ToolDefinition{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: schema,
	}
}

// Tools returns the definitions of every tool advertised by the connected
// servers, in connection order.
func (m *Manager) Tools() []llmtypes.ToolDefinition {
	if m == nil {
		return nil
	}
	return m.defs
}

// HasToolsAvailable reports whether any server tools are connected.
func (m *Manager) HasToolsAvailable() bool {
	return m != nil && len(m.defs) > 0
}

// HasTool reports whether any connected server advertises the named tool.
func (m *Manager) HasTool(name string) bool {
	if m == nil {
		return false
	}
	_, ok := m.routes[name]
	return ok
}

// CallTool invokes the named tool on the server that advertised it and
// flattens the textual content of the response.
func (m *Manager) CallTool(ctx context.Context, call llmtypes.ToolCall) llmtypes.ToolResult {
	result := llmtypes.ToolResult{ToolCallID: call.ID}

	if m == nil || !m.HasTool(call.Name) {
		result.Content = errors.Errorf("Unknown tool: %s", call.Name).Error()
		result.IsError = true
		return result
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = call.Name
	req.Params.Arguments = call.Arguments

	resp, err := m.routes[call.Name].CallTool(ctx, req)
	if err != nil {
		result.Content = errors.Wrapf(err, "mcp tool %s failed", call.Name).Error()
		result.IsError = true
		return result
	}

	var parts []string
	for _, content := range resp.Content {
		if text, ok := content.(mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	result.Content = strings.Join(parts, "\n")
	result.IsError = resp.IsError
	return result
}

// Close shuts down every open session. Safe to call on a nil manager and
// after a partial Connect failure.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	for name, c := range m.clients {
		if err := c.Close(); err != nil {
			logger.L.WithField("server", name).WithError(err).Debug("error closing mcp client")
		}
	}
	m.clients = make(map[string]*client.Client)
	m.routes = make(map[string]*client.Client)
	m.defs = nil
}
