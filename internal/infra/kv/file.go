package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	domain "github.com/bryanwahyu/creative-lens/internal/domain/history"
)

// FileKV persists the whole key space as one JSON file, localStorage style.
// MaxBytes > 0 enforces a total-size ceiling; writes past it fail with
// ErrCapacityExceeded so the history store can run its degradation chain.
type FileKV struct {
	path     string
	maxBytes int

	mu   sync.Mutex
	data map[string]string
}

// NewFileKV loads (or creates) the backing file under dataDir.
func NewFileKV(dataDir string, maxBytes int) (*FileKV, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	kv := &FileKV{
		path:     filepath.Join(dataDir, "creative_lens_store.json"),
		maxBytes: maxBytes,
		data:     make(map[string]string),
	}
	if err := kv.load(); err != nil {
		return nil, err
	}
	return kv, nil
}

func (kv *FileKV) Get(_ context.Context, key string) (string, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	v, ok := kv.data[key]
	return v, ok, nil
}

func (kv *FileKV) Set(_ context.Context, key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	if kv.maxBytes > 0 {
		total := len(value)
		for k, v := range kv.data {
			if k == key {
				continue
			}
			total += len(v)
		}
		if total > kv.maxBytes {
			return fmt.Errorf("%w: %d bytes over %d limit", domain.ErrCapacityExceeded, total, kv.maxBytes)
		}
	}

	prev, had := kv.data[key]
	kv.data[key] = value
	if err := kv.save(); err != nil {
		// roll back memory state so a failed flush stays invisible
		if had {
			kv.data[key] = prev
		} else {
			delete(kv.data, key)
		}
		return err
	}
	return nil
}

func (kv *FileKV) Remove(_ context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.data, key)
	return kv.save()
}

func (kv *FileKV) load() error {
	f, err := os.Open(kv.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open store file: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&kv.data); err != nil {
		return fmt.Errorf("failed to decode store file: %w", err)
	}
	return nil
}

func (kv *FileKV) save() error {
	f, err := os.Create(kv.path)
	if err != nil {
		return fmt.Errorf("failed to create store file: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(kv.data)
}
