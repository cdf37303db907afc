package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/disha-ai/disha/internal/config"
	"github.com/disha-ai/disha/internal/schema"
)

// wrapKey holds non-object roots: structured outputs only accept an object at the top level.
const wrapKey = "result"

type openAIClient struct {
	api   *openai.Client
	model string
}

func newOpenAI(cfg config.LLMConfig) Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &openAIClient{api: openai.NewClientWithConfig(oc), model: cfg.Model}
}

func (c *openAIClient) GenerateJSON(ctx context.Context, req JSONRequest) (string, error) {
	root := req.Schema
	wrapped := root.Type != jsonschema.Object
	if wrapped {
		root = schema.ObjectOf(schema.Field(wrapKey, root))
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.Name,
				Schema: &root,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai generate %s: %w", req.Name, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	text := resp.Choices[0].Message.Content
	if !wrapped {
		return text, nil
	}
	return unwrap(text), nil
}

// unwrap returns the value under wrapKey, or text unchanged when it has none so
// the caller's validation reports the real problem.
func unwrap(text string) string {
	var env map[string]json.RawMessage
	if err := json.Unmarshal([]byte(schema.CleanJSON(text)), &env); err != nil {
		return text
	}
	inner, ok := env[wrapKey]
	if !ok {
		return text
	}
	return string(inner)
}

func (c *openAIClient) StreamChat(ctx context.Context, req ChatRequest) iter.Seq2[string, error] {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, t := range req.History {
		role := openai.ChatMessageRoleUser
		if t.Speaker == SpeakerModel {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Text})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Message})

	return func(yield func(string, error) bool) {
		stream, err := c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:    c.model,
			Messages: msgs,
			Stream:   true,
		})
		if err != nil {
			yield("", fmt.Errorf("openai stream: %w", err))
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("openai stream: %w", err))
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if text := resp.Choices[0].Delta.Content; text != "" {
				if !yield(text, nil) {
					return
				}
			}
		}
	}
}
