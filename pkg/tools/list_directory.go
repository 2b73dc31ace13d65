package tools

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	tooltypes "github.com/mpazaryna/telos/pkg/types/tools"
)

// ListDirectoryTool lists the entries of a directory under the working
// directory
type ListDirectoryTool struct{}

var _ tooltypes.Tool = &ListDirectoryTool{}

// ListDirectoryInput is the input schema for list_directory
type ListDirectoryInput struct {
	Path string `json:"path,omitempty" jsonschema:"description=The directory to list, relative to the working directory. Defaults to the working directory itself."`
}

// GenerateSchema returns the JSON schema for list_directory
func (t *ListDirectoryTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[ListDirectoryInput]()
}

// Name returns "list_directory"
func (t *ListDirectoryTool) Name() string {
	return "list_directory"
}

// Description describes the tool for the model
func (t *ListDirectoryTool) Description() string {
	return `List the entries of a directory, one per line. Directories carry a trailing "/".`
}

// ValidateInput checks the raw parameters. An empty object is valid and
// lists the working directory.
func (t *ListDirectoryTool) ValidateInput(state tooltypes.State, parameters string) error {
	input := &ListDirectoryInput{}
	return json.Unmarshal([]byte(parameters), input)
}

// Execute lists the directory entries
func (t *ListDirectoryTool) Execute(ctx context.Context, state tooltypes.State, parameters string) tooltypes.ToolResult {
	input := &ListDirectoryInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return tooltypes.ToolResult{Error: err.Error()}
	}

	path := input.Path
	if path == "" {
		path = "."
	}

	entries, err := os.ReadDir(state.ResolvePath(path))
	if err != nil {
		return tooltypes.ToolResult{Error: errors.Wrap(err, "failed to list directory").Error()}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}

	return tooltypes.ToolResult{Result: strings.Join(names, "\n")}
}
