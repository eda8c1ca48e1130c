// Package memory provides an in-process profile store.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cory-johannsen/starcase/internal/game/session"
)

// Store keeps snapshots as encoded JSON so callers never share memory with
// a stored profile. All methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	profiles map[string][]byte
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{profiles: make(map[string][]byte)}
}

// Load returns the player's snapshot or session.ErrProfileNotFound.
func (s *Store) Load(_ context.Context, player string) (*session.Snapshot, error) {
	s.mu.RLock()
	data, ok := s.profiles[player]
	s.mu.RUnlock()
	if !ok {
		return nil, session.ErrProfileNotFound
	}
	var snap session.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding profile %q: %w", player, err)
	}
	return &snap, nil
}

// Save replaces the player's snapshot.
func (s *Store) Save(_ context.Context, player string, snap *session.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding profile %q: %w", player, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[player] = data
	return nil
}

// Len returns the number of stored profiles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}
