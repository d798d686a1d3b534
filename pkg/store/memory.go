package store

import (
	"context"
	"sort"
	"sync"

	"github.com/matzehuels/stackplan/pkg/errors"
	"github.com/matzehuels/stackplan/pkg/snapshot"
)

// MemoryStore keeps snapshots in a map. Snapshots are stored as given; the
// caller must not modify a snapshot after Put.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*snapshot.Snapshot
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]*snapshot.Snapshot)}
}

// Put implements [Store].
func (m *MemoryStore) Put(_ context.Context, s *snapshot.Snapshot) error {
	if s == nil || s.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "snapshot needs an id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[s.ID] = s
	return nil
}

// Get implements [Store].
func (m *MemoryStore) Get(_ context.Context, id string) (*snapshot.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.items[id]
	if !ok {
		return nil, notFound(id)
	}
	return s, nil
}

// List implements [Store].
func (m *MemoryStore) List(_ context.Context, circuit string, limit int) ([]Summary, error) {
	m.mu.RLock()
	out := make([]Summary, 0, len(m.items))
	for _, s := range m.items {
		if circuit == "" || s.Circuit == circuit {
			out = append(out, summarize(s))
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete implements [Store].
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

// Close implements [Store].
func (m *MemoryStore) Close(context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
