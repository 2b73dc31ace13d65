// Package executor runs a skill as a streaming tool-use conversation.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/subosito/gotenv"

	"github.com/mpazaryna/telos/pkg/journal"
	"github.com/mpazaryna/telos/pkg/logger"
	"github.com/mpazaryna/telos/pkg/mcp"
	"github.com/mpazaryna/telos/pkg/sysprompt"
	"github.com/mpazaryna/telos/pkg/tools"
	llmtypes "github.com/mpazaryna/telos/pkg/types/llm"
	tooltypes "github.com/mpazaryna/telos/pkg/types/tools"
)

// DefaultMaxRounds caps the number of tool-use rounds in one run.
const DefaultMaxRounds = 20

// Engine drives the conversation loop for one skill run: stream a model
// turn, execute the requested tools, feed the results back, repeat until
// the model answers without tools.
type Engine struct {
	Provider  llmtypes.Provider
	State     tooltypes.State
	MCP       *mcp.Manager
	Journal   *journal.Journal
	Out       io.Writer
	MaxRounds int
	MaxTokens int
}

// BuildPrompt assembles the user prompt: the skill body, the request and
// the current time, so date-sensitive skills need no extra tool round.
func BuildPrompt(skillBody, userRequest string, now time.Time) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(skillBody, "\n"))
	b.WriteString("\n\n---\nUser request: ")
	b.WriteString(userRequest)
	b.WriteString("\nCurrent date/time: ")
	b.WriteString(now.Format("2006-01-02 15:04:05 Monday"))
	return b.String()
}

// LoadEnv merges the process environment with a .env file in dir. Values
// from the file win, so a project-local .env can override inherited keys.
func LoadEnv(dir string) map[string]string {
	env := map[string]string{}
	for _, pair := range os.Environ() {
		if key, value, ok := strings.Cut(pair, "="); ok {
			env[key] = value
		}
	}

	dotenv, err := gotenv.Read(filepath.Join(dir, ".env"))
	if err != nil {
		return env
	}
	for key, value := range dotenv {
		env[key] = value
	}
	return env
}

// ResolveWorkingDir expands a configured working directory: "." and the
// empty string mean the current directory, and a leading ~ means the home
// directory.
func ResolveWorkingDir(path string) (string, error) {
	if path == "" || path == "." {
		return os.Getwd()
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "failed to resolve home directory")
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

type turnResult struct {
	text       string
	calls      []llmtypes.ToolCall
	stopReason string
}

// Execute runs the conversation loop for one skill. Streamed text goes to
// Out as it arrives; the returned error reflects provider failures, not
// tool failures, which are fed back to the model as error results.
func (e *Engine) Execute(ctx context.Context, skillBody, userRequest string) error {
	maxRounds := e.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	catalog := e.catalog()
	e.Journal.SkillStart(ctx, e.Provider.Name(), e.Provider.Model(), e.MCP.HasToolsAvailable())

	history := []llmtypes.Message{{
		Role:   llmtypes.RoleUser,
		Blocks: []llmtypes.ContentBlock{llmtypes.TextBlock(BuildPrompt(skillBody, userRequest, time.Now()))},
	}}

	totalToolCalls := 0
	rounds := 0
	degraded := false
	runErr := func() error {
		for round := 1; round <= maxRounds; round++ {
			rounds = round

			turn, err := e.streamTurn(ctx, history, catalog, degraded)
			if err != nil {
				if degraded {
					return err
				}
				// Some models reject tool catalogs outright. Drop the
				// tools once and retry as a plain conversation.
				logger.G(ctx).WithError(err).Warn("stream failed, retrying without tools")
				if turn.text != "" && e.Out != nil {
					// Text already forwarded before the failure stays on
					// screen; break the line so the retry restreams cleanly.
					fmt.Fprintln(e.Out)
				}
				degraded = true
				catalog = nil
				turn, err = e.streamTurn(ctx, history, catalog, degraded)
				if err != nil {
					return err
				}
			}

			history = append(history, assistantMessage(turn))
			if len(turn.calls) == 0 {
				return nil
			}

			results := make([]llmtypes.ContentBlock, 0, len(turn.calls))
			for _, call := range turn.calls {
				result := e.dispatch(ctx, call)
				e.Journal.ToolCall(ctx, call.Name, result.IsError)
				totalToolCalls++
				results = append(results, llmtypes.ToolResultBlock(result))
			}
			history = append(history, llmtypes.Message{Role: llmtypes.RoleUser, Blocks: results})
		}

		// Round budget exhausted. One last turn without tools so the
		// model has to answer in text.
		rounds++
		turn, err := e.streamTurn(ctx, history, nil, degraded)
		if err != nil {
			return err
		}
		history = append(history, assistantMessage(turn))
		return nil
	}()

	e.Journal.SkillEnd(ctx, rounds, totalToolCalls, history, runErr)
	return runErr
}

func (e *Engine) catalog() []llmtypes.ToolDefinition {
	defs := tools.ToolDefinitions(tools.BuiltinTools())
	defs = append(defs, e.MCP.Tools()...)
	return defs
}

func systemPrompt(degraded bool) string {
	if degraded {
		return sysprompt.DegradedPrompt()
	}
	return sysprompt.SystemPrompt()
}

func (e *Engine) streamTurn(ctx context.Context, history []llmtypes.Message, catalog []llmtypes.ToolDefinition, degraded bool) (turnResult, error) {
	turn := turnResult{}
	err := e.Provider.StreamCompletion(ctx, llmtypes.Request{
		System:    systemPrompt(degraded),
		Messages:  history,
		Tools:     catalog,
		MaxTokens: e.MaxTokens,
	}, func(event llmtypes.StreamEvent) {
		switch event.Type {
		case llmtypes.StreamEventText:
			turn.text += event.Text
			if e.Out != nil {
				fmt.Fprint(e.Out, event.Text)
			}
		case llmtypes.StreamEventToolCall:
			if event.ToolCall != nil {
				turn.calls = append(turn.calls, *event.ToolCall)
			}
		case llmtypes.StreamEventDone:
			turn.stopReason = event.StopReason
		}
	})
	if err != nil {
		// The partial turn comes back with the error so the caller knows
		// what was already forwarded to Out.
		return turn, err
	}

	if e.Out != nil && turn.text != "" {
		fmt.Fprintln(e.Out)
	}
	return turn, nil
}

// assistantMessage records one model turn in the history: the streamed text
// first, then the tool invocations in the order they were requested.
func assistantMessage(turn turnResult) llmtypes.Message {
	blocks := []llmtypes.ContentBlock{}
	if turn.text != "" {
		blocks = append(blocks, llmtypes.TextBlock(turn.text))
	}
	for _, call := range turn.calls {
		blocks = append(blocks, llmtypes.ToolUseBlock(call))
	}
	if len(blocks) == 0 {
		// The API rejects empty assistant turns.
		blocks = append(blocks, llmtypes.TextBlock("(no output)"))
	}
	return llmtypes.Message{Role: llmtypes.RoleAssistant, Blocks: blocks}
}

// dispatch routes one tool call: built-ins first, then the MCP servers,
// then an error result for anything unknown. Tool failures come back as
// error results so the model can react to them.
func (e *Engine) dispatch(ctx context.Context, call llmtypes.ToolCall) llmtypes.ToolResult {
	if tools.IsBuiltin(call.Name) {
		arguments := call.Arguments
		if arguments == nil {
			arguments = map[string]any{}
		}
		parameters, err := json.Marshal(arguments)
		if err != nil {
			return llmtypes.ToolResult{
				ToolCallID: call.ID,
				Content:    errors.Wrap(err, "failed to encode tool arguments").Error(),
				IsError:    true,
			}
		}
		result := tools.RunTool(ctx, e.State, call.Name, string(parameters))
		return llmtypes.ToolResult{
			ToolCallID: call.ID,
			Content:    result.Content(),
			IsError:    result.IsError(),
		}
	}

	if e.MCP.HasTool(call.Name) {
		return e.MCP.CallTool(ctx, call)
	}

	return llmtypes.ToolResult{
		ToolCallID: call.ID,
		Content:    fmt.Sprintf("Unknown tool: %s", call.Name),
		IsError:    true,
	}
}
