package llm

import (
	"context"
	"fmt"
	"iter"

	"github.com/sashabaranov/go-openai/jsonschema"
	"google.golang.org/genai"

	"github.com/disha-ai/disha/internal/config"
	"github.com/disha-ai/disha/internal/schema"
)

type geminiClient struct {
	models *genai.Models
	model  string
}

func newGemini(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &geminiClient{models: client.Models, model: cfg.Model}, nil
}

func (g *geminiClient) GenerateJSON(ctx context.Context, req JSONRequest) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   toGenaiSchema(req.Schema),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate %s: %w", req.Name, err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Text(), nil
}

func (g *geminiClient) StreamChat(ctx context.Context, req ChatRequest) iter.Seq2[string, error] {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, t := range req.History {
		contents = append(contents, &genai.Content{
			Role:  string(t.Speaker),
			Parts: []*genai.Part{{Text: t.Text}},
		})
	}
	contents = append(contents, &genai.Content{
		Role:  string(SpeakerUser),
		Parts: []*genai.Part{{Text: req.Message}},
	})

	var cfg *genai.GenerateContentConfig
	if req.System != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: req.System}}},
		}
	}

	return func(yield func(string, error) bool) {
		for resp, err := range g.models.GenerateContentStream(ctx, g.model, contents, cfg) {
			if err != nil {
				yield("", fmt.Errorf("gemini stream: %w", err))
				return
			}
			if resp == nil {
				continue
			}
			if text := resp.Text(); text != "" {
				if !yield(text, nil) {
					return
				}
			}
		}
	}
}

var genaiTypes = map[jsonschema.DataType]genai.Type{
	jsonschema.Object:  genai.TypeObject,
	jsonschema.Array:   genai.TypeArray,
	jsonschema.String:  genai.TypeString,
	jsonschema.Integer: genai.TypeInteger,
	jsonschema.Number:  genai.TypeNumber,
	jsonschema.Boolean: genai.TypeBoolean,
}

// toGenaiSchema converts a schema definition into Gemini's response schema.
func toGenaiSchema(d jsonschema.Definition) *genai.Schema {
	out := &genai.Schema{
		Type:        genaiTypes[d.Type],
		Description: d.Description,
		Enum:        d.Enum,
	}
	if d.Items != nil {
		out.Items = toGenaiSchema(*d.Items)
	}
	if d.Type == jsonschema.Object {
		out.Properties = make(map[string]*genai.Schema, len(d.Properties))
		for _, name := range schema.Order(d) {
			out.Properties[name] = toGenaiSchema(d.Properties[name])
			out.PropertyOrdering = append(out.PropertyOrdering, name)
		}
		out.Required = d.Required
	}
	return out
}
