package cache

import (
	"context"
	"sync"

	"github.com/valpere/lexpure/internal/script"
)

// Memory is an in-process Backend.
type Memory struct {
	entries sync.Map // memoryKey -> Entry
}

type memoryKey struct {
	hash   string
	target script.Language
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Get(_ context.Context, hash string, target script.Language) (*Entry, error) {
	v, ok := m.entries.Load(memoryKey{hash, target})
	if !ok {
		return nil, nil
	}
	e := v.(Entry)
	return &e, nil
}

func (m *Memory) Put(_ context.Context, e Entry) error {
	m.entries.Store(memoryKey{e.ContentHash, e.TargetLanguage}, e)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	n := 0
	m.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
