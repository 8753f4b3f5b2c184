package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

var errEmptyReply = errors.New("model returned an empty reply")

type geminiGenerator struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGeminiClient returns nil and no error when apiKey is empty, so callers can treat
// a missing key as "no models".
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// NewGeminiGenerators builds one Generator per model name, in order.
func NewGeminiGenerators(client *genai.Client, modelNames []string) []Generator {
	if client == nil {
		return nil
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.2),
		TopP:            genai.Ptr[float32](0.8),
		MaxOutputTokens: 8192,
	}

	generators := make([]Generator, 0, len(modelNames))
	for _, name := range modelNames {
		generators = append(generators, &geminiGenerator{client: client, model: name, config: config})
	}
	return generators
}

func (g *geminiGenerator) Name() string {
	return g.model
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	res, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, g.config)
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", g.model, err)
	}

	text := res.Text()
	if strings.TrimSpace(text) == "" {
		return "", errEmptyReply
	}
	return text, nil
}
