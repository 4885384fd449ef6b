package agent

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"nexuslm/tools"
)

// OpenAI implements ChatProvider with the OpenAI SDK. Any OpenAI-compatible
// endpoint works, including Gemini's.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates a provider. A non-empty baseURL overrides the default
// API endpoint.
func NewOpenAI(model, apiKey, baseURL string, opts ...option.RequestOption) *OpenAI {
	all := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		all = append(all, option.WithBaseURL(baseURL))
	}
	all = append(all, opts...)
	client := openai.NewClient(all...)
	return &OpenAI{client: &client, model: model}
}

func (p *OpenAI) Complete(ctx context.Context, system string, messages []Message, defs []tools.Definition) (*Message, error) {
	oaiMsgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if system != "" {
		oaiMsgs = append(oaiMsgs, openai.SystemMessage(system))
	}
	for _, m := range messages {
		oaiMsgs = append(oaiMsgs, toOpenAIMessage(m))
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: oaiMsgs,
	}
	if len(defs) > 0 {
		params.Tools = toOpenAITools(defs)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}
	return fromOpenAIMessage(resp.Choices[0].Message), nil
}

func toOpenAITools(defs []tools.Definition) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, len(defs))
	for i, d := range defs {
		out[i] = openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        d.Name,
				Description: openai.String(d.Description),
				Parameters:  shared.FunctionParameters(d.Parameters),
			},
		}
	}
	return out
}

func toOpenAIMessage(m Message) openai.ChatCompletionMessageParamUnion {
	switch m.Role {
	case "tool":
		return openai.ToolMessage(m.Content, m.ToolCallID)
	case "user":
		return openai.UserMessage(m.Content)
	default:
		asst := openai.ChatCompletionAssistantMessageParam{}
		if m.Content != "" {
			asst.Content.OfString = openai.String(m.Content)
		}
		if len(m.ToolCalls) > 0 {
			asst.ToolCalls = make([]openai.ChatCompletionMessageToolCallParam, len(m.ToolCalls))
			for i, tc := range m.ToolCalls {
				asst.ToolCalls[i] = openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				}
			}
		}
		return openai.ChatCompletionMessageParamUnion{OfAssistant: &asst}
	}
}

func fromOpenAIMessage(m openai.ChatCompletionMessage) *Message {
	msg := &Message{Role: "assistant", Content: m.Content}
	for _, tc := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return msg
}
