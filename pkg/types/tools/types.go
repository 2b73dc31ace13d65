// Package tools defines the tool execution contract shared by the built-in
// tools and the dispatcher.
package tools

import (
	"context"

	"github.com/invopop/jsonschema"
)

// Tool is a single built-in capability. Parameters arrive as the raw JSON
// argument object produced by the model.
type Tool interface {
	GenerateSchema() *jsonschema.Schema
	Name() string
	Description() string
	ValidateInput(state State, parameters string) error
	Execute(ctx context.Context, state State, parameters string) ToolResult
}

// ToolResult is the outcome of one tool execution. Tools fold diagnostics
// (stderr, exit codes, timeouts) into Result so the model sees them; Error
// is set in addition whenever the execution failed.
type ToolResult struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

// IsError reports whether the execution failed.
func (t ToolResult) IsError() bool {
	return t.Error != ""
}

// Content returns the text fed back to the model.
func (t ToolResult) Content() string {
	if t.Result != "" {
		return t.Result
	}
	return t.Error
}

// State carries the per-run execution environment for built-in tools.
type State interface {
	// WorkingDir is the directory file tools resolve relative paths against.
	WorkingDir() string
	// CommandDir is the directory shell commands run in. It falls back to
	// WorkingDir when no companion script directory is configured.
	CommandDir() string
	// ResolvePath resolves a possibly-relative path against WorkingDir.
	ResolvePath(path string) string
}
