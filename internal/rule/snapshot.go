/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package rule

import (
	"log/slog"
	"sync"
	"time"
)

// Snapshot owns the active rule set. Requests read the slice without
// locking beyond the reference fetch; a reload builds a complete new
// slice and swaps it in whole, so readers see either the old set or the
// new one, never a partial mix.
type Snapshot struct {
	mu         sync.RWMutex
	rules      []Rule
	bySID      map[int]int
	generation uint64
	loadedAt   time.Time
}

func NewSnapshot() *Snapshot {
	return &Snapshot{bySID: map[int]int{}}
}

// Swap replaces the active rule set and bumps the generation counter.
func (s *Snapshot) Swap(rules []Rule) {
	index := make(map[int]int, len(rules))
	for i, r := range rules {
		if prev, ok := index[r.SID]; ok {
			slog.Warn("Duplicate SID in rule set, keeping first occurrence.",
				"sid", r.SID, "kept", rules[prev].Source, "dropped", r.Source)
			continue
		}
		index[r.SID] = i
	}

	s.mu.Lock()
	s.rules = rules
	s.bySID = index
	s.generation++
	s.loadedAt = time.Now()
	s.mu.Unlock()
}

// Rules returns the active rule set. The slice must be treated as
// read-only.
func (s *Snapshot) Rules() []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules
}

// BySID looks up a rule by signature id.
func (s *Snapshot) BySID(sid int) (Rule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.bySID[sid]
	if !ok {
		return Rule{}, false
	}
	return s.rules[i], true
}

func (s *Snapshot) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func (s *Snapshot) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rules)
}
