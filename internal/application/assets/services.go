package assets

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"

	"github.com/google/uuid"

	"github.com/bryanwahyu/creative-lens/internal/application"
	domain "github.com/bryanwahyu/creative-lens/internal/domain/assets"
	"github.com/bryanwahyu/creative-lens/internal/domain/analysis"
)

// Service implements use-cases untuk asset library
type Service struct {
	Repo     domain.Repository
	Binaries domain.BinaryStore
	Clock    application.Clock
}

// UploadCommand payload upload satu creative
type UploadCommand struct {
	TenantID    string
	Filename    string
	Kind        string
	Width       int
	Height      int
	DurationSec float64
	DataBase64  string
	ContentType string
}

// Upload stores the binary in object storage and the metadata in the repository.
func (s *Service) Upload(ctx context.Context, cmd UploadCommand) (*domain.Asset, error) {
	if cmd.Filename == "" {
		return nil, fmt.Errorf("filename is required")
	}
	kind := analysis.MediaKind(cmd.Kind)
	if kind != analysis.MediaImage && kind != analysis.MediaVideo {
		return nil, fmt.Errorf("invalid media kind: %s", cmd.Kind)
	}

	data, err := base64.StdEncoding.DecodeString(cmd.DataBase64)
	if err != nil {
		return nil, fmt.Errorf("decode asset payload: %w", err)
	}

	id := domain.AssetID(uuid.New().String())
	key := fmt.Sprintf("%s/%s%s", cmd.TenantID, id, path.Ext(cmd.Filename))
	url, err := s.Binaries.Put(ctx, key, data, cmd.ContentType)
	if err != nil {
		return nil, fmt.Errorf("store asset binary: %w", err)
	}

	asset := &domain.Asset{
		ID:          id,
		TenantID:    cmd.TenantID,
		Filename:    cmd.Filename,
		Kind:        kind,
		Width:       cmd.Width,
		Height:      cmd.Height,
		DurationSec: cmd.DurationSec,
		URL:         url,
		SizeBytes:   int64(len(data)),
		UploadedAt:  s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// Get ambil 1 asset by id
func (s *Service) Get(ctx context.Context, tenant string, id domain.AssetID) (*domain.Asset, error) {
	return s.Repo.Get(ctx, tenant, id)
}

// ListAll daftar semua asset milik tenant
func (s *Service) ListAll(ctx context.Context, tenant string) ([]*domain.Asset, error) {
	return s.Repo.ListAll(ctx, tenant)
}
