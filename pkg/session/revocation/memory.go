// Package revocation provides RevocationList backends for pkg/session.
package revocation

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process revocation list. Entries are lost on restart,
// which re-validates revoked but unexpired tokens; use the badger backend
// when that matters.
type Memory struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemory creates an empty in-memory revocation list.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke remembers id until the given time. A zero until keeps it forever.
func (m *Memory) Revoke(ctx context.Context, id string, until time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.pruneLocked()
	m.entries[id] = until
	return nil
}

// IsRevoked reports whether id is on the list and not yet past its expiry.
func (m *Memory) IsRevoked(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	until, ok := m.entries[id]
	if !ok {
		return false, nil
	}
	if !until.IsZero() && !m.now().Before(until) {
		delete(m.entries, id)
		return false, nil
	}
	return true, nil
}

// Len returns the number of tracked entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

func (m *Memory) pruneLocked() {
	now := m.now()
	for id, until := range m.entries {
		if !until.IsZero() && !now.Before(until) {
			delete(m.entries, id)
		}
	}
}
