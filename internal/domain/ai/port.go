package ai

import "context"

// Capability jenis kemampuan yang dibutuhkan dari provider
type Capability string

const (
	CapabilityVisionScoring Capability = "vision-scoring"
	CapabilityTextReasoning Capability = "text-reasoning"
)

// ImagePayload opaque encoded image; this core never decodes pixels
type ImagePayload struct {
	Base64   string
	MimeType string
}

// Provider port (interface untuk backend AI)
type Provider interface {
	Name() string
	Supports(c Capability) bool
	Call(ctx context.Context, prompt string, image *ImagePayload) (string, error)
}
