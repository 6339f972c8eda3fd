// ABOUTME: In-memory TreeStore for tests
// ABOUTME: Holds the encoded document bytes and counts saves; errors can be injected

package store

import (
	"sync"

	"github.com/2389/habit-gateway/internal/habit"
)

// MemoryStore is a TreeStore that keeps the encoded document in memory.
// Loads decode a fresh copy, so callers never share nodes between calls.
type MemoryStore struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	loadErr error
	saveErr error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWithDocument returns a MemoryStore seeded with raw document bytes.
func NewMemoryStoreWithDocument(doc []byte) *MemoryStore {
	return &MemoryStore{data: append([]byte(nil), doc...)}
}

// Load decodes the stored document.
func (m *MemoryStore) Load() (habit.Forest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return decodeForest(m.data)
}

// Save encodes f and replaces the stored document.
func (m *MemoryStore) Save(f habit.Forest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := encodeForest(f)
	if err != nil {
		return err
	}
	m.data = data
	m.saves++
	return nil
}

// Document returns a copy of the stored document bytes.
func (m *MemoryStore) Document() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

// Saves returns how many successful saves have happened.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// SetLoadError makes subsequent loads fail with err. Pass nil to clear.
func (m *MemoryStore) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// SetSaveError makes subsequent saves fail with err. Pass nil to clear.
func (m *MemoryStore) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}
