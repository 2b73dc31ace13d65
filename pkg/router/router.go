// Package router picks the skill matching a user request: a cheap keyword
// pass first, then a single model call when keywords are inconclusive.
package router

import (
	"context"
	"sort"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"

	"github.com/mpazaryna/telos/pkg/logger"
	"github.com/mpazaryna/telos/pkg/skills"
)

const (
	routeModel     = "claude-sonnet-4-6"
	routeMaxTokens = 64
	// noneSentinel is what the model answers when no skill applies.
	noneSentinel = "NONE"
)

// KeywordMatch returns the skill whose name appears in the request,
// case-insensitively. Longer names are tried first so "weekly-report-eu"
// wins over "weekly-report" when both occur.
func KeywordMatch(available []skills.Skill, request string) (skills.Skill, bool) {
	candidates := make([]skills.Skill, len(available))
	copy(candidates, available)
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].Name) > len(candidates[j].Name)
	})

	lowered := strings.ToLower(request)
	for _, skill := range candidates {
		if strings.Contains(lowered, strings.ToLower(skill.Name)) {
			return skill, true
		}
	}
	return skills.Skill{}, false
}

// Router routes requests to skills. Complete performs one non-streaming
// model call; a nil Complete disables the model pass, leaving keyword
// matching only.
type Router struct {
	Complete func(ctx context.Context, system, user string) (string, error)
}

// NewRouter builds a router that uses the Anthropic API when a key is
// available. Without a key the router degrades to keyword matching.
func NewRouter(apiKey string) *Router {
	if apiKey == "" {
		return &Router{}
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Router{
		Complete: func(ctx context.Context, system, user string) (string, error) {
			message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
				Model:     anthropic.Model(routeModel),
				MaxTokens: routeMaxTokens,
				System:    []anthropic.TextBlockParam{{Text: system}},
				Messages: []anthropic.MessageParam{
					anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
				},
			})
			if err != nil {
				return "", errors.Wrap(err, "route completion failed")
			}
			var text strings.Builder
			for _, block := range message.Content {
				if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
					text.WriteString(variant.Text)
				}
			}
			return text.String(), nil
		},
	}
}

// Route picks the skill for a request. The keyword pass runs first; when it
// misses and a completer is configured, the model chooses from the skill
// catalog or answers NONE.
func (r *Router) Route(ctx context.Context, available []skills.Skill, request string) (skills.Skill, bool, error) {
	if skill, ok := KeywordMatch(available, request); ok {
		return skill, true, nil
	}
	if r.Complete == nil || len(available) == 0 {
		return skills.Skill{}, false, nil
	}

	answer, err := r.Complete(ctx, routeSystemPrompt(), routeUserPrompt(available, request))
	if err != nil {
		return skills.Skill{}, false, err
	}

	name := strings.TrimSpace(answer)
	if name == "" || strings.EqualFold(name, noneSentinel) {
		return skills.Skill{}, false, nil
	}

	for _, skill := range available {
		if strings.EqualFold(skill.Name, name) {
			return skill, true, nil
		}
	}

	logger.G(ctx).WithField("answer", name).Debug("router answered with unknown skill")
	return skills.Skill{}, false, nil
}

func routeSystemPrompt() string {
	return "You route user requests to skills. Reply with exactly one skill name " +
		"from the list, or " + noneSentinel + " if no skill fits. No punctuation, no explanation."
}

func routeUserPrompt(available []skills.Skill, request string) string {
	var b strings.Builder
	b.WriteString("Skills:\n")
	for _, skill := range available {
		b.WriteString("- ")
		b.WriteString(skill.Name)
		b.WriteString(": ")
		b.WriteString(skill.Description)
		b.WriteString("\n")
	}
	b.WriteString("\nRequest: ")
	b.WriteString(request)
	return b.String()
}
