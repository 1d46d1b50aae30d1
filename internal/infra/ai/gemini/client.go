package gemini

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/genai"

	domai "github.com/bryanwahyu/creative-lens/internal/domain/ai"
)

type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Client{client: cli, model: model}, nil
}

func (c *Client) Name() string { return "gemini" }

func (c *Client) Supports(cap domai.Capability) bool {
	return cap == domai.CapabilityVisionScoring || cap == domai.CapabilityTextReasoning
}

func (c *Client) Call(ctx context.Context, prompt string, image *domai.ImagePayload) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	if image != nil {
		data, err := base64.StdEncoding.DecodeString(image.Base64)
		if err != nil {
			return "", fmt.Errorf("failed to decode image payload: %w", err)
		}
		mime := image.MimeType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, genai.NewPartFromBytes(data, mime))
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model %s", c.model)
	}
	return text, nil
}
