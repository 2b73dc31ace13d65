package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	tooltypes "github.com/mpazaryna/telos/pkg/types/tools"
)

// WriteFileTool writes text content to a file under the working directory
type WriteFileTool struct{}

var _ tooltypes.Tool = &WriteFileTool{}

// WriteFileInput is the input schema for write_file
type WriteFileInput struct {
	Path    string `json:"path" jsonschema:"required,description=The path of the file to write, relative to the working directory"`
	Content string `json:"content" jsonschema:"required,description=The full content to write to the file"`
}

// GenerateSchema returns the JSON schema for write_file
func (t *WriteFileTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[WriteFileInput]()
}

// Name returns "write_file"
func (t *WriteFileTool) Name() string {
	return "write_file"
}

// Description describes the tool for the model
func (t *WriteFileTool) Description() string {
	return "Write content to a file. Creates parent directories as needed and overwrites the file if it exists."
}

// ValidateInput checks the raw parameters
func (t *WriteFileTool) ValidateInput(state tooltypes.State, parameters string) error {
	input := &WriteFileInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return err
	}
	if input.Path == "" {
		return errors.New("path is required")
	}
	return nil
}

// Execute writes the file, creating parent directories first
func (t *WriteFileTool) Execute(ctx context.Context, state tooltypes.State, parameters string) tooltypes.ToolResult {
	input := &WriteFileInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return tooltypes.ToolResult{Error: err.Error()}
	}

	path := state.ResolvePath(input.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return tooltypes.ToolResult{Error: errors.Wrap(err, "failed to create parent directories").Error()}
	}
	if err := os.WriteFile(path, []byte(input.Content), 0o644); err != nil {
		return tooltypes.ToolResult{Error: errors.Wrap(err, "failed to write file").Error()}
	}

	return tooltypes.ToolResult{
		Result: fmt.Sprintf("Wrote %d bytes to %s", len(input.Content), input.Path),
	}
}
