package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/emahq/mers/internal/domain/integrity"
	"github.com/emahq/mers/internal/domain/model"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps the dataset in process memory. It backs tests and
// one-shot runs that import, rank and render without a database file.
type MemoryStore struct {
	mu       sync.RWMutex
	data     Dataset
	settings map[string]string
	closed   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{settings: make(map[string]string)}
}

// Load returns the working set. Records are shared, not copied: the
// engine's passes mutate the derived fields in place and the Save
// methods are then no-ops beyond validation.
func (s *MemoryStore) Load(_ context.Context) (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	ds := s.data
	return &ds, nil
}

// Replace swaps the store content after an integrity check.
func (s *MemoryStore) Replace(_ context.Context, ds *Dataset) error {
	if err := integrity.Check(ds.Countries, ds.Players, ds.Tournaments, ds.Results); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.data = *ds
	return nil
}

// SaveAging accepts the already-mutated records: memory records are
// shared with the passes, so there is nothing further to write.
func (s *MemoryStore) SaveAging(_ context.Context, _ []*model.Tournament, _ []*model.Result) error {
	return nil
}

// SaveRatings accepts the already-mutated player records.
func (s *MemoryStore) SaveRatings(_ context.Context, _ []*model.Player) error {
	return nil
}

// SaveStandings accepts the already-mutated country records.
func (s *MemoryStore) SaveStandings(_ context.Context, _ []*model.Country) error {
	return nil
}

// PutSetting stores a loose key/value pair.
func (s *MemoryStore) PutSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.settings[key] = value
	return nil
}

// Setting returns a stored value or ErrNotFound.
func (s *MemoryStore) Setting(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", ErrClosed
	}
	v, ok := s.settings[key]
	if !ok {
		return "", fmt.Errorf("%w: setting %q", ErrNotFound, key)
	}
	return v, nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
