// Package tools provides the built-in tool set for skill execution and the
// dispatch entry point the conversation loop calls. Built-ins cover local
// file I/O, directory listing, URL fetching and shell command execution.
package tools

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"github.com/mpazaryna/telos/pkg/logger"
	llmtypes "github.com/mpazaryna/telos/pkg/types/llm"
	tooltypes "github.com/mpazaryna/telos/pkg/types/tools"
)

// GenerateSchema reflects a JSON schema from a typed tool input struct
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T

	return reflector.Reflect(v)
}

// toolRegistry holds all built-in tools mapped by their names
var toolRegistry = map[string]tooltypes.Tool{
	"write_file":     &WriteFileTool{},
	"read_file":      &ReadFileTool{},
	"list_directory": &ListDirectoryTool{},
	"fetch_url":      &FetchURLTool{},
	"run_command":    &RunCommandTool{},
}

// builtinOrder fixes the catalog order presented to the model
var builtinOrder = []string{
	"write_file",
	"read_file",
	"list_directory",
	"fetch_url",
	"run_command",
}

// BuiltinTools returns the fixed built-in tool set in catalog order
func BuiltinTools() []tooltypes.Tool {
	tools := make([]tooltypes.Tool, 0, len(builtinOrder))
	for _, name := range builtinOrder {
		tools = append(tools, toolRegistry[name])
	}
	return tools
}

// IsBuiltin reports whether name belongs to the built-in namespace.
// Built-ins take precedence over external tools on name collision.
func IsBuiltin(name string) bool {
	_, ok := toolRegistry[name]
	return ok
}

// ToolDefinitions converts tools into the provider-facing catalog shape
func ToolDefinitions(tools []tooltypes.Tool) []llmtypes.ToolDefinition {
	defs := make([]llmtypes.ToolDefinition, 0, len(tools))
	for _, tool := range tools {
		defs = append(defs, llmtypes.ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: schemaToMap(tool.GenerateSchema()),
		})
	}
	return defs
}

// schemaToMap flattens a reflected schema into the JSON-Schema-like object
// providers consume
func schemaToMap(schema *jsonschema.Schema) map[string]any {
	b, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return map[string]any{"type": "object"}
	}
	out := map[string]any{"type": "object"}
	if props, ok := m["properties"]; ok {
		out["properties"] = props
	}
	if required, ok := m["required"]; ok {
		out["required"] = required
	}
	return out
}

// RunTool validates and executes a built-in tool by name. Failures never
// propagate: an unknown name, bad input or execution error all come back as
// an error-flagged result for the model to react to.
func RunTool(ctx context.Context, state tooltypes.State, toolName string, parameters string) tooltypes.ToolResult {
	tool, ok := toolRegistry[toolName]
	if !ok {
		return tooltypes.ToolResult{
			Error: errors.Errorf("Unknown tool: %s", toolName).Error(),
		}
	}

	if err := tool.ValidateInput(state, parameters); err != nil {
		return tooltypes.ToolResult{
			Error: errors.Wrapf(err, "invalid input for %s", toolName).Error(),
		}
	}

	result := tool.Execute(ctx, state, parameters)

	logger.G(ctx).
		WithField("tool", toolName).
		WithField("is_error", result.IsError()).
		Debug("executed built-in tool")

	return result
}
