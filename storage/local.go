// Package storage persists the coordinator's session state between restarts.
// It is the only durable local state in the agent; nothing outside the
// coordinator writes to it.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"clementus360/activity-agent/types"
)

type state struct {
	User            *types.User `json:"user,omitempty"`
	TrackingEnabled *bool       `json:"tracking_enabled,omitempty"`
}

type Store struct {
	mu    sync.RWMutex
	path  string
	state state
}

// Open loads the state file if it exists. A missing file is a fresh install,
// not an error.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}
	return s, nil
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

func (s *Store) User() *types.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User
}

func (s *Store) SetUser(u *types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.User = u
	return s.save()
}

// ClearUser is idempotent.
func (s *Store) ClearUser() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.User = nil
	return s.save()
}

// TrackingEnabled defaults to true when the flag has never been set.
func (s *Store) TrackingEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.TrackingEnabled == nil {
		return true
	}
	return *s.state.TrackingEnabled
}

func (s *Store) SetTrackingEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.TrackingEnabled = &enabled
	return s.save()
}
