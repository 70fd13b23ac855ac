package store

import (
	"bytes"
	"context"
	"sync"
)

// MemoryMedium keeps values in a process-local map.
// Values are copied on the way in and out.
type MemoryMedium struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemoryMedium creates an empty in-memory medium.
func NewMemoryMedium() *MemoryMedium {
	return &MemoryMedium{values: make(map[string][]byte)}
}

// Get returns a copy of the value for key, or ErrNotFound.
func (m *MemoryMedium) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(v), nil
}

// Set stores a copy of value.
func (m *MemoryMedium) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = bytes.Clone(value)
	return nil
}

// Update applies fn under the medium lock.
func (m *MemoryMedium) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[key]
	if !ok {
		return ErrNotFound
	}

	next, err := fn(bytes.Clone(v))
	if err != nil {
		return err
	}
	if next != nil {
		m.values[key] = bytes.Clone(next)
	}
	return nil
}

// Delete removes keys.
func (m *MemoryMedium) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// Ping always succeeds.
func (m *MemoryMedium) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (m *MemoryMedium) Close() error {
	return nil
}
