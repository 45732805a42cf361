package store

import (
	"context"
	"fmt"
	"sync"
)

// Memory is a process-local KV.
//
// A positive quota caps the total bytes held across all keys, the way a
// browser caps local storage; a Put that would exceed it fails with
// ErrQuotaExceeded and keeps the prior value.
type Memory struct {
	mu      sync.Mutex
	quota   int
	entries map[string][]byte
	failErr error
}

// NewMemory creates an empty store. quota <= 0 means unlimited.
func NewMemory(quota int) *Memory {
	return &Memory{quota: quota, entries: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Put stores a copy of value under key.
func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failErr != nil {
		return fmt.Errorf("put %q: %w", key, m.failErr)
	}
	if m.quota > 0 {
		used := len(value)
		for k, v := range m.entries {
			if k != key {
				used += len(v)
			}
		}
		if used > m.quota {
			return fmt.Errorf("put %q (%d of %d bytes): %w", key, used, m.quota, ErrQuotaExceeded)
		}
	}
	m.entries[key] = append([]byte(nil), value...)
	return nil
}

// FailWrites makes every later Put fail with err until called with nil.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
