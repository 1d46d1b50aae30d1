package kv

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/bryanwahyu/creative-lens/internal/domain/history"
)

// MemoryKV in-memory store with the same quota semantics as the persistent
// backends. Default for dev mode and the workhorse in tests.
type MemoryKV struct {
	MaxBytes int

	mu   sync.Mutex
	data map[string]string
}

func NewMemoryKV(maxBytes int) *MemoryKV {
	return &MemoryKV{MaxBytes: maxBytes, data: make(map[string]string)}
}

func (kv *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	v, ok := kv.data[key]
	return v, ok, nil
}

func (kv *MemoryKV) Set(_ context.Context, key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	if kv.MaxBytes > 0 {
		total := len(value)
		for k, v := range kv.data {
			if k == key {
				continue
			}
			total += len(v)
		}
		if total > kv.MaxBytes {
			return fmt.Errorf("%w: %d bytes over %d limit", domain.ErrCapacityExceeded, total, kv.MaxBytes)
		}
	}

	kv.data[key] = value
	return nil
}

func (kv *MemoryKV) Remove(_ context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.data, key)
	return nil
}

// Len jumlah key tersimpan (untuk test)
func (kv *MemoryKV) Len() int {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return len(kv.data)
}
