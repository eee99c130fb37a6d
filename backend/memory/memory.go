// Package memory implements an in-process KVStore. Nothing survives the
// process; it backs tests and --ephemeral sessions.
package memory

import (
	"context"
	"errors"
	"sync"

	"thingsish/backend"
)

// ErrQuotaExceeded is returned by Set while the store is armed to fail.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

func init() {
	backend.Register("memory", func(string) (backend.KVStore, error) {
		return New(), nil
	})
}

// Backend implements backend.KVStore with a map
type Backend struct {
	mu        sync.Mutex
	data      map[string][]byte
	failWrite bool
	writes    int
}

// New creates an empty memory store
func New() *Backend {
	return &Backend{data: make(map[string][]byte)}
}

// Get returns a copy of the value under key
func (b *Backend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set stores a copy of value
func (b *Backend) Set(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWrite {
		return ErrQuotaExceeded
	}
	v := make([]byte, len(value))
	copy(v, value)
	b.data[key] = v
	b.writes++
	return nil
}

// Delete removes key
func (b *Backend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	return nil
}

// Close is a no-op
func (b *Backend) Close() error {
	return nil
}

// FailWrites makes subsequent Set calls fail with ErrQuotaExceeded.
func (b *Backend) FailWrites(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWrite = fail
}

// Writes returns the number of successful Set calls.
func (b *Backend) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}
