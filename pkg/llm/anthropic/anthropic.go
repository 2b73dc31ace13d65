// Package anthropic implements the native Messages API backend.
package anthropic

import (
	"context"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"

	"github.com/mpazaryna/telos/pkg/logger"
	llmtypes "github.com/mpazaryna/telos/pkg/types/llm"
)

const defaultMaxTokens = 8192

// Provider streams completions from the Anthropic Messages API.
type Provider struct {
	client anthropic.Client
	config llmtypes.Config
}

var _ llmtypes.Provider = &Provider{}

// NewProvider creates a provider for the given config.
func NewProvider(config llmtypes.Config) *Provider {
	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	return &Provider{
		client: anthropic.NewClient(opts...),
		config: config,
	}
}

// Name returns the configured provider name.
func (p *Provider) Name() string {
	return p.config.Provider
}

// Model returns the configured model.
func (p *Provider) Model() string {
	return p.config.Model
}

// StreamCompletion runs one model turn. Text deltas are emitted as they
// arrive; tool calls are emitted after the stream completes, since their
// arguments accumulate across many input_json deltas.
func (p *Provider) StreamCompletion(ctx context.Context, req llmtypes.Request, emit func(llmtypes.StreamEvent)) error {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		MaxTokens: int64(maxTokens),
		Messages:  toMessageParams(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = toToolParams(req.Tools)
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	accumulated := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := accumulated.Accumulate(event); err != nil {
			return errors.Wrap(err, "failed to accumulate stream event")
		}

		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				emit(llmtypes.StreamEvent{Type: llmtypes.StreamEventText, Text: delta.Text})
			}
		}
	}
	if err := stream.Err(); err != nil {
		return errors.Wrap(err, "anthropic stream failed")
	}

	for _, block := range accumulated.Content {
		if variant, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			arguments := map[string]any{}
			raw := variant.JSON.Input.Raw()
			if raw != "" {
				if err := json.Unmarshal([]byte(raw), &arguments); err != nil {
					logger.G(ctx).WithError(err).WithField("tool", variant.Name).Warn("unparseable tool arguments")
					arguments = map[string]any{}
				}
			}
			emit(llmtypes.StreamEvent{
				Type: llmtypes.StreamEventToolCall,
				ToolCall: &llmtypes.ToolCall{
					ID:        variant.ID,
					Name:      variant.Name,
					Arguments: arguments,
				},
			})
		}
	}

	emit(llmtypes.StreamEvent{
		Type:       llmtypes.StreamEventDone,
		StopReason: string(accumulated.StopReason),
	})
	return nil
}

// toMessageParams converts the native history into Messages API params.
func toMessageParams(messages []llmtypes.Message) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(messages))
	for _, message := range messages {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(message.Blocks))
		for _, block := range message.Blocks {
			switch block.Type {
			case llmtypes.BlockTypeText:
				blocks = append(blocks, anthropic.NewTextBlock(block.Text))
			case llmtypes.BlockTypeToolUse:
				input := block.Input
				if input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    block.ID,
						Name:  block.Name,
						Input: input,
					},
				})
			case llmtypes.BlockTypeToolResult:
				blocks = append(blocks, anthropic.NewToolResultBlock(block.ToolUseID, block.Content, block.IsError))
			}
		}

		if message.Role == llmtypes.RoleAssistant {
			params = append(params, anthropic.NewAssistantMessage(blocks...))
		} else {
			params = append(params, anthropic.NewUserMessage(blocks...))
		}
	}
	return params
}

// toToolParams converts the tool catalog into Messages API tool params.
func toToolParams(tools []llmtypes.ToolDefinition) []anthropic.ToolUnionParam {
	params := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		schema := anthropic.ToolInputSchemaParam{}
		if properties, ok := tool.InputSchema["properties"]; ok {
			schema.Properties = properties
		}
		schema.Required = requiredFields(tool.InputSchema["required"])
		params = append(params, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name,
				Description: anthropic.String(tool.Description),
				InputSchema: schema,
			},
		})
	}
	return params
}

// requiredFields normalizes the schema's required list, which arrives as
// []string from reflected schemas and []any after a JSON round trip.
func requiredFields(value any) []string {
	switch required := value.(type) {
	case []string:
		return required
	case []any:
		fields := make([]string, 0, len(required))
		for _, entry := range required {
			if field, ok := entry.(string); ok {
				fields = append(fields, field)
			}
		}
		return fields
	default:
		return nil
	}
}
