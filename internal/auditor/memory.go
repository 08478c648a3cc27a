package auditor

import (
	"context"
	"sort"
	"sync"

	"github.com/valpere/lexpure/internal/script"
)

// MemoryStore is a Store held in memory.
type MemoryStore struct {
	mu        sync.Mutex
	fragments map[string]Fragment
}

func NewMemoryStore(fragments ...Fragment) *MemoryStore {
	m := &MemoryStore{fragments: make(map[string]Fragment, len(fragments))}
	for _, f := range fragments {
		m.fragments[f.ID] = f
	}
	return m
}

// Put inserts or overwrites a fragment.
func (m *MemoryStore) Put(f Fragment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fragments[f.ID] = f
}

// Get returns the fragment with id.
func (m *MemoryStore) Get(id string) (Fragment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fragments[id]
	return f, ok
}

// Fragments returns the fragments in lang ordered by id.
func (m *MemoryStore) Fragments(_ context.Context, lang script.Language) ([]Fragment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Fragment
	for _, f := range m.fragments {
		if f.Language == lang {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) Replace(_ context.Context, id, oldText, newText string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fragments[id]
	if !ok || f.Text != oldText {
		return false, nil
	}
	f.Text = newText
	m.fragments[id] = f
	return true, nil
}
