// Package openai implements the OpenAI Chat Completions backend, also used
// for OpenAI-compatible endpoints such as Ollama.
package openai

import (
	"context"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"github.com/mpazaryna/telos/pkg/logger"
	llmtypes "github.com/mpazaryna/telos/pkg/types/llm"
)

// Provider streams completions from a Chat Completions endpoint.
type Provider struct {
	client *openai.Client
	config llmtypes.Config
}

var _ llmtypes.Provider = &Provider{}

// NewProvider creates a provider for the given config. A non-empty BaseURL
// points the client at a compatible endpoint.
func NewProvider(config llmtypes.Config) *Provider {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
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
// arrive; tool calls are assembled across deltas and emitted once the
// stream ends.
func (p *Provider) StreamCompletion(ctx context.Context, req llmtypes.Request, emit func(llmtypes.StreamEvent)) error {
	chatReq := openai.ChatCompletionRequest{
		Model:    p.config.Model,
		Messages: convertMessages(req.System, req.Messages),
		Stream:   true,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = convertTools(req.Tools)
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return errors.Wrap(err, "failed to open completion stream")
	}
	defer stream.Close()

	acc := newStreamAccumulator()
	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return errors.Wrap(err, "completion stream failed")
		}
		if len(response.Choices) == 0 {
			continue
		}

		choice := response.Choices[0]
		if choice.Delta.Content != "" {
			emit(llmtypes.StreamEvent{Type: llmtypes.StreamEventText, Text: choice.Delta.Content})
		}
		acc.addToolCallDeltas(choice.Delta.ToolCalls)
		if choice.FinishReason != "" {
			acc.finishReason = string(choice.FinishReason)
		}
	}

	for _, call := range acc.toolCalls(ctx) {
		call := call
		emit(llmtypes.StreamEvent{Type: llmtypes.StreamEventToolCall, ToolCall: &call})
	}

	emit(llmtypes.StreamEvent{
		Type:       llmtypes.StreamEventDone,
		StopReason: acc.stopReason(),
	})
	return nil
}

// streamAccumulator assembles tool calls from index-keyed argument deltas.
type streamAccumulator struct {
	calls        []openai.ToolCall
	finishReason string
}

func newStreamAccumulator() *streamAccumulator {
	return &streamAccumulator{}
}

func (a *streamAccumulator) addToolCallDeltas(deltas []openai.ToolCall) {
	for _, delta := range deltas {
		if delta.Index == nil {
			continue
		}
		idx := *delta.Index
		for len(a.calls) <= idx {
			a.calls = append(a.calls, openai.ToolCall{})
		}
		if delta.ID != "" {
			a.calls[idx].ID = delta.ID
		}
		if delta.Function.Name != "" {
			a.calls[idx].Function.Name = delta.Function.Name
		}
		a.calls[idx].Function.Arguments += delta.Function.Arguments
	}
}

// toolCalls finalizes the assembled calls. Arguments that fail to parse as
// JSON become an empty argument map rather than aborting the turn.
func (a *streamAccumulator) toolCalls(ctx context.Context) []llmtypes.ToolCall {
	var calls []llmtypes.ToolCall
	for _, call := range a.calls {
		if call.Function.Name == "" {
			continue
		}
		arguments := map[string]any{}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &arguments); err != nil {
				logger.G(ctx).WithError(err).WithField("tool", call.Function.Name).Warn("unparseable tool arguments")
				arguments = map[string]any{}
			}
		}
		calls = append(calls, llmtypes.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: arguments,
		})
	}
	return calls
}

func (a *streamAccumulator) stopReason() string {
	if a.finishReason == "" {
		return "stop"
	}
	return a.finishReason
}

// convertMessages flattens the native block history into chat messages. The
// system prompt leads; assistant tool_use blocks become tool calls on the
// assistant message; user tool_result blocks become role "tool" messages.
func convertMessages(system string, messages []llmtypes.Message) []openai.ChatCompletionMessage {
	var converted []openai.ChatCompletionMessage
	if system != "" {
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for _, message := range messages {
		if message.Role == llmtypes.RoleAssistant {
			converted = append(converted, convertAssistantMessage(message))
			continue
		}

		// A user turn holds either plain text or the tool results that
		// answer the previous assistant turn.
		for _, block := range message.Blocks {
			switch block.Type {
			case llmtypes.BlockTypeText:
				converted = append(converted, openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleUser,
					Content: block.Text,
				})
			case llmtypes.BlockTypeToolResult:
				converted = append(converted, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    block.Content,
					ToolCallID: block.ToolUseID,
				})
			}
		}
	}
	return converted
}

func convertAssistantMessage(message llmtypes.Message) openai.ChatCompletionMessage {
	converted := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant}
	for _, block := range message.Blocks {
		switch block.Type {
		case llmtypes.BlockTypeText:
			converted.Content += block.Text
		case llmtypes.BlockTypeToolUse:
			arguments := "{}"
			if block.Input != nil {
				if raw, err := json.Marshal(block.Input); err == nil {
					arguments = string(raw)
				}
			}
			converted.ToolCalls = append(converted.ToolCalls, openai.ToolCall{
				ID:   block.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      block.Name,
					Arguments: arguments,
				},
			})
		}
	}
	return converted
}

// convertTools maps the tool catalog onto function definitions.
func convertTools(tools []llmtypes.ToolDefinition) []openai.Tool {
	converted := make([]openai.Tool, 0, len(tools))
	for _, tool := range tools {
		converted = append(converted, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.InputSchema,
			},
		})
	}
	return converted
}
