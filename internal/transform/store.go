/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package transform

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NotFoundError reports a lookup for a transform id that does not
// exist.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("transform %q not found", e.ID)
}

// Store persists transforms as one JSON file per transform under a
// directory. Writes are serialized; reads go straight to disk so the
// store itself never caches stale definitions.
type Store struct {
	mu  sync.Mutex
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transforms directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// validID rejects ids that could name a file outside the store
// directory. Ids come straight from request paths.
func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

// Create validates the transform, assigns an id and timestamps, and
// writes it to disk.
func (s *Store) Create(t *Transform) error {
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Ids are always store-assigned; a client-supplied id is ignored.
	t.ID = "transform-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	return s.write(t)
}

// Get loads a transform by id.
func (s *Store) Get(id string) (*Transform, error) {
	if !validID(id) {
		return nil, &NotFoundError{ID: id}
	}
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("read transform %q: %w", id, err)
	}

	var t Transform
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode transform %q: %w", id, err)
	}
	return &t, nil
}

// List returns all stored transforms sorted by creation time, oldest
// first. Unreadable files are skipped rather than failing the listing.
func (s *Store) List() ([]*Transform, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read transforms directory: %w", err)
	}

	var transforms []*Transform
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		t, err := s.Get(id)
		if err != nil {
			continue
		}
		transforms = append(transforms, t)
	}

	sort.Slice(transforms, func(i, j int) bool {
		if transforms[i].CreatedAt.Equal(transforms[j].CreatedAt) {
			return transforms[i].ID < transforms[j].ID
		}
		return transforms[i].CreatedAt.Before(transforms[j].CreatedAt)
	})
	return transforms, nil
}

// ListEnabled returns the enabled transforms in listing order.
func (s *Store) ListEnabled() ([]*Transform, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	enabled := all[:0]
	for _, t := range all {
		if t.Enabled {
			enabled = append(enabled, t)
		}
	}
	return enabled, nil
}

// Update replaces a stored transform, keeping its id and creation time.
func (s *Store) Update(id string, t *Transform) error {
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.Get(id)
	if err != nil {
		return err
	}

	t.ID = id
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	return s.write(t)
}

// SetEnabled flips the enabled flag of a stored transform.
func (s *Store) SetEnabled(id string, enabled bool) (*Transform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	t.Enabled = enabled
	t.UpdatedAt = time.Now().UTC()
	if err := s.write(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a stored transform.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !validID(id) {
		return &NotFoundError{ID: id}
	}
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return &NotFoundError{ID: id}
	}
	if err != nil {
		return fmt.Errorf("delete transform %q: %w", id, err)
	}
	return nil
}

func (s *Store) write(t *Transform) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transform %q: %w", t.ID, err)
	}
	if err := os.WriteFile(s.path(t.ID), data, 0o644); err != nil {
		return fmt.Errorf("write transform %q: %w", t.ID, err)
	}
	return nil
}
