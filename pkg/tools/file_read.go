package tools

import (
	"context"
	"encoding/json"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	tooltypes "github.com/mpazaryna/telos/pkg/types/tools"
)

// ReadFileTool reads a file under the working directory
type ReadFileTool struct{}

var _ tooltypes.Tool = &ReadFileTool{}

// ReadFileInput is the input schema for read_file
type ReadFileInput struct {
	Path string `json:"path" jsonschema:"required,description=The path of the file to read, relative to the working directory"`
}

// GenerateSchema returns the JSON schema for read_file
func (t *ReadFileTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[ReadFileInput]()
}

// Name returns "read_file"
func (t *ReadFileTool) Name() string {
	return "read_file"
}

// Description describes the tool for the model
func (t *ReadFileTool) Description() string {
	return "Read the content of a file as text."
}

// ValidateInput checks the raw parameters
func (t *ReadFileTool) ValidateInput(state tooltypes.State, parameters string) error {
	input := &ReadFileInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return err
	}
	if input.Path == "" {
		return errors.New("path is required")
	}
	return nil
}

// Execute reads the file
func (t *ReadFileTool) Execute(ctx context.Context, state tooltypes.State, parameters string) tooltypes.ToolResult {
	input := &ReadFileInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return tooltypes.ToolResult{Error: err.Error()}
	}

	content, err := os.ReadFile(state.ResolvePath(input.Path))
	if err != nil {
		return tooltypes.ToolResult{Error: errors.Wrap(err, "failed to read file").Error()}
	}

	return tooltypes.ToolResult{Result: string(content)}
}
