package gateway

import (
	"context"
	"fmt"

	domai "github.com/bryanwahyu/creative-lens/internal/domain/ai"
)

// Gateway picks a provider by capability. Providers are tried in the configured
// preference order; the first one whose capability set matches wins. No retry
// here: retry policy belongs to callers.
type Gateway struct {
	providers []domai.Provider
}

func New(providers ...domai.Provider) *Gateway {
	return &Gateway{providers: providers}
}

// Invoke jalankan satu call ke provider pertama yang support capability
func (g *Gateway) Invoke(ctx context.Context, cap domai.Capability, prompt string, image *domai.ImagePayload) (string, error) {
	for _, p := range g.providers {
		if p.Supports(cap) {
			return p.Call(ctx, prompt, image)
		}
	}
	return "", fmt.Errorf("%w: %s", domai.ErrNoProvider, cap)
}

// Providers daftar nama provider terkonfigurasi (untuk health/debug)
func (g *Gateway) Providers() []string {
	out := make([]string, 0, len(g.providers))
	for _, p := range g.providers {
		out = append(out, p.Name())
	}
	return out
}
