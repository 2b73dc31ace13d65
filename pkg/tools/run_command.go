package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	tooltypes "github.com/mpazaryna/telos/pkg/types/tools"
)

// commandTimeout is the fixed wall-clock budget for one shell command.
const commandTimeout = 60 * time.Second

// RunCommandTool executes a shell command in the companion script directory
// (or the working directory when none is configured). Timeouts, non-zero
// exits and stderr output are folded into the textual result so the model
// can react to them; they never abort the conversation loop.
type RunCommandTool struct{}

var _ tooltypes.Tool = &RunCommandTool{}

// RunCommandInput is the input schema for run_command
type RunCommandInput struct {
	Command string `json:"command" jsonschema:"required,description=The shell command to run"`
}

// GenerateSchema returns the JSON schema for run_command
func (t *RunCommandTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[RunCommandInput]()
}

// Name returns "run_command"
func (t *RunCommandTool) Name() string {
	return "run_command"
}

// Description describes the tool for the model
func (t *RunCommandTool) Description() string {
	return fmt.Sprintf("Run a shell command with a %d second timeout. stdout, stderr and the exit code are all returned in the result.", int(commandTimeout.Seconds()))
}

// ValidateInput checks the raw parameters
func (t *RunCommandTool) ValidateInput(state tooltypes.State, parameters string) error {
	input := &RunCommandInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return err
	}
	if input.Command == "" {
		return errors.New("command is required")
	}
	return nil
}

// Execute runs the command via bash -c
func (t *RunCommandTool) Execute(ctx context.Context, state tooltypes.State, parameters string) tooltypes.ToolResult {
	input := &RunCommandInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return tooltypes.ToolResult{Error: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "bash", "-c", input.Command)
	cmd.Dir = state.CommandDir()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	var out strings.Builder
	out.WriteString(stdout.String())
	if stderr.Len() > 0 {
		if out.Len() > 0 {
			out.WriteString("\n")
		}
		out.WriteString("[stderr]\n")
		out.WriteString(stderr.String())
	}

	if ctx.Err() == context.DeadlineExceeded {
		fmt.Fprintf(&out, "\n[command timed out after %d seconds]", int(commandTimeout.Seconds()))
		return tooltypes.ToolResult{
			Result: out.String(),
			Error:  fmt.Sprintf("command timed out after %d seconds", int(commandTimeout.Seconds())),
		}
	}

	if runErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		fmt.Fprintf(&out, "\n[command exited with code %d]", exitCode)
		return tooltypes.ToolResult{
			Result: out.String(),
			Error:  errors.Wrap(runErr, "command failed").Error(),
		}
	}

	return tooltypes.ToolResult{Result: out.String()}
}
