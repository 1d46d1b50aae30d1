package openai

import (
    "context"
    "fmt"
    "strings"

    "github.com/sashabaranov/go-openai"

    domai "github.com/bryanwahyu/creative-lens/internal/domain/ai"
)

const maxTokens = 2048

type Client struct {
    *openai.Client
    Model string
}

func NewClient(apiKey, model string) *Client {
    return &Client{Client: openai.NewClient(apiKey), Model: model}
}

func (c *Client) Name() string { return "openai" }

// Supports: model vision juga bisa text-reasoning
func (c *Client) Supports(cap domai.Capability) bool {
    return cap == domai.CapabilityVisionScoring || cap == domai.CapabilityTextReasoning
}

func (c *Client) Call(ctx context.Context, prompt string, image *domai.ImagePayload) (string, error) {
    model := c.Model
    if model == "" {
        model = "gpt-4o"
    }

    var msg openai.ChatCompletionMessage
    if image != nil {
        mime := image.MimeType
        if mime == "" {
            mime = "image/jpeg"
        }
        msg = openai.ChatCompletionMessage{
            Role: openai.ChatMessageRoleUser,
            MultiContent: []openai.ChatMessagePart{
                {Type: openai.ChatMessagePartTypeText, Text: prompt},
                {
                    Type: openai.ChatMessagePartTypeImageURL,
                    ImageURL: &openai.ChatMessageImageURL{
                        URL:    fmt.Sprintf("data:%s;base64,%s", mime, image.Base64),
                        Detail: openai.ImageURLDetailAuto,
                    },
                },
            },
        }
    } else {
        msg = openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt}
    }

    req := openai.ChatCompletionRequest{
        Model: model,
        ResponseFormat: &openai.ChatCompletionResponseFormat{
            Type: openai.ChatCompletionResponseFormatTypeJSONObject,
        },
        Messages: []openai.ChatCompletionMessage{msg},
    }
    // For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
    if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
        req.MaxCompletionTokens = maxTokens
    } else {
        req.MaxTokens = maxTokens
    }

    resp, err := c.CreateChatCompletion(ctx, req)
    if err != nil {
        return "", fmt.Errorf("failed to create chat completion: %w", err)
    }
    if len(resp.Choices) == 0 {
        return "", fmt.Errorf("empty completion response")
    }

    return resp.Choices[0].Message.Content, nil
}
