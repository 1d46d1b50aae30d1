package assets

import "context"

// Repository port: one injected asset library, no ambient registry probing
type Repository interface {
	Save(ctx context.Context, a *Asset) error
	Get(ctx context.Context, tenant string, id AssetID) (*Asset, error)
	ListAll(ctx context.Context, tenant string) ([]*Asset, error)
}

// BinaryStore port (interface untuk penyimpanan file creative)
type BinaryStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
