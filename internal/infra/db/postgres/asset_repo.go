package postgres

import (
    "context"
    "database/sql"
    "time"

    domain "github.com/bryanwahyu/creative-lens/internal/domain/assets"
)

type AssetRepository struct { db *sql.DB }

func NewAssetRepository(db *sql.DB) *AssetRepository { return &AssetRepository{db: db} }

// Save insert/update asset metadata
func (r *AssetRepository) Save(ctx context.Context, a *domain.Asset) error {
    const q = `
INSERT INTO creative_assets
  (id, tenant_id, filename, kind, width, height, duration_sec, url, size_bytes, uploaded_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  filename=EXCLUDED.filename, url=EXCLUDED.url, size_bytes=EXCLUDED.size_bytes;`
    uploadedAt := a.UploadedAt
    if uploadedAt.IsZero() {
        uploadedAt = time.Now()
    }
    _, err := r.db.ExecContext(ctx, q,
        a.ID, a.TenantID, a.Filename, a.Kind,
        a.Width, a.Height, a.DurationSec, a.URL, a.SizeBytes, uploadedAt,
    )
    return err
}

// Get by ID + tenant
func (r *AssetRepository) Get(ctx context.Context, tenant string, id domain.AssetID) (*domain.Asset, error) {
    const q = `
SELECT id, tenant_id, filename, kind, width, height, duration_sec, url, size_bytes, uploaded_at
FROM creative_assets
WHERE tenant_id=$1 AND id=$2
LIMIT 1;`
    row := r.db.QueryRowContext(ctx, q, tenant, id)
    var a domain.Asset
    if err := row.Scan(&a.ID, &a.TenantID, &a.Filename, &a.Kind, &a.Width, &a.Height, &a.DurationSec, &a.URL, &a.SizeBytes, &a.UploadedAt); err != nil {
        return nil, err
    }
    return &a, nil
}

// ListAll semua asset milik tenant, terbaru dulu
func (r *AssetRepository) ListAll(ctx context.Context, tenant string) ([]*domain.Asset, error) {
    const q = `
SELECT id, tenant_id, filename, kind, width, height, duration_sec, url, size_bytes, uploaded_at
FROM creative_assets
WHERE tenant_id=$1
ORDER BY uploaded_at DESC;`
    rows, err := r.db.QueryContext(ctx, q, tenant)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []*domain.Asset
    for rows.Next() {
        var a domain.Asset
        if err := rows.Scan(&a.ID, &a.TenantID, &a.Filename, &a.Kind, &a.Width, &a.Height, &a.DurationSec, &a.URL, &a.SizeBytes, &a.UploadedAt); err != nil {
            return nil, err
        }
        out = append(out, &a)
    }
    return out, rows.Err()
}
