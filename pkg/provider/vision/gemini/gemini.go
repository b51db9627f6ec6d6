// Package gemini provides a vision provider backed by the Gemini API.
package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/scenevox/scenevox/pkg/provider/vision"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// Provider implements vision.Provider using the Gemini API.
type Provider struct {
	client *genai.Client
	model  string
}

// New constructs a Gemini vision Provider. model may be empty to use
// [DefaultModel].
func New(ctx context.Context, apiKey string, model string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: client: %w", err)
	}
	return &Provider{client: client, model: model}, nil
}

// Describe implements vision.Provider.
func (p *Provider) Describe(ctx context.Context, req vision.Request) (*vision.Description, error) {
	if len(req.Frames) == 0 {
		return nil, fmt.Errorf("gemini: no frames to describe")
	}

	parts := []*genai.Part{genai.NewPartFromText(vision.Instructions(req))}
	for i, frame := range req.Frames {
		jpeg, err := base64.StdEncoding.DecodeString(frame)
		if err != nil {
			return nil, fmt.Errorf("gemini: frame %d is not valid base64: %w", i, err)
		}
		parts = append(parts, genai.NewPartFromBytes(jpeg, "image/jpeg"))
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   descriptionSchema(),
	}
	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	desc, err := vision.ParseDescription([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return desc, nil
}

// descriptionSchema constrains the model's reply to the Description shape.
func descriptionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"caption":   {Type: genai.TypeString},
			"narrative": {Type: genai.TypeString},
			"subjects":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"language":  {Type: genai.TypeString},
		},
		Required: []string{"caption", "narrative", "subjects", "language"},
	}
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("response has no text parts")
	}
	return b.String(), nil
}
