// Package journal appends skill execution events to per-day JSONL files.
package journal

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mpazaryna/telos/pkg/logger"
	llmtypes "github.com/mpazaryna/telos/pkg/types/llm"
)

// Journal records the lifecycle of one skill run. Each event is one JSON
// line in <dir>/YYYY-MM-DD.jsonl, so a day's activity is a single file that
// can be replayed or grepped. Writes are best-effort: a journal failure
// never aborts a run.
type Journal struct {
	dir   string
	runID string
	agent string
	skill string
	start time.Time
	now   func() time.Time
}

// Event is one journal line.
type Event struct {
	Timestamp string             `json:"timestamp"`
	RunID     string             `json:"run_id"`
	Event     string             `json:"event"`
	Agent     string             `json:"agent,omitempty"`
	Skill     string             `json:"skill,omitempty"`
	Provider  string             `json:"provider,omitempty"`
	Model     string             `json:"model,omitempty"`
	MCP       bool               `json:"mcp,omitempty"`
	Tool      string             `json:"tool,omitempty"`
	IsError   bool               `json:"is_error,omitempty"`
	DurationS float64            `json:"duration_s,omitempty"`
	Rounds    int                `json:"rounds,omitempty"`
	ToolCalls int                `json:"tool_calls,omitempty"`
	Messages  []llmtypes.Message `json:"messages,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// New creates a journal for one run. Events carry a fresh run ID so
// concurrent runs writing to the same day file stay distinguishable.
func New(dir, agent, skill string) *Journal {
	return &Journal{
		dir:   dir,
		runID: uuid.NewString(),
		agent: agent,
		skill: skill,
		now:   time.Now,
	}
}

// RunID returns the identifier stamped on this run's events.
func (j *Journal) RunID() string {
	if j == nil {
		return ""
	}
	return j.runID
}

// SkillStart records the beginning of a run and marks the start time the
// closing event's duration is measured from.
func (j *Journal) SkillStart(ctx context.Context, provider, model string, hasMCP bool) {
	if j != nil {
		j.start = j.now()
	}
	j.append(ctx, Event{
		Event:    "skill_start",
		Provider: provider,
		Model:    model,
		MCP:      hasMCP,
	})
}

// ToolCall records one tool dispatch and whether it errored.
func (j *Journal) ToolCall(ctx context.Context, tool string, isError bool) {
	j.append(ctx, Event{
		Event:   "tool_call",
		Tool:    tool,
		IsError: isError,
	})
}

// SkillEnd records the end of a run: its duration, totals and the final
// conversation history. A non-nil err marks the run as failed.
func (j *Journal) SkillEnd(ctx context.Context, rounds, toolCalls int, history []llmtypes.Message, err error) {
	event := Event{
		Event:     "skill_end",
		Rounds:    rounds,
		ToolCalls: toolCalls,
		Messages:  history,
	}
	if j != nil && !j.start.IsZero() {
		duration := j.now().Sub(j.start).Seconds()
		event.DurationS = math.Round(duration*100) / 100
	}
	if err != nil {
		event.Error = err.Error()
	}
	j.append(ctx, event)
}

func (j *Journal) append(ctx context.Context, event Event) {
	if j == nil {
		return
	}

	event.Timestamp = j.now().Format(time.RFC3339)
	event.RunID = j.runID
	event.Agent = j.agent
	event.Skill = j.skill

	if err := j.write(event); err != nil {
		logger.G(ctx).WithError(err).Debug("failed to write journal event")
	}
}

func (j *Journal) write(event Event) error {
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create journal directory")
	}

	path := filepath.Join(j.dir, j.now().Format("2006-01-02")+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "failed to open journal file")
	}
	defer f.Close()

	line, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal journal event")
	}
	line = append(line, '\n')

	_, err = f.Write(line)
	return errors.Wrap(err, "failed to append journal event")
}
