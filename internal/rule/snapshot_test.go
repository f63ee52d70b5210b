/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package rule

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func swapReplacesRuleSetAndBumpsGeneration(t *testing.T) {
	s := NewSnapshot()
	assert.Equal(t, uint64(0), s.Generation())
	assert.Equal(t, 0, s.Len())

	s.Swap([]Rule{{SID: 1}, {SID: 2}})
	assert.Equal(t, uint64(1), s.Generation())
	assert.Equal(t, 2, s.Len())
	assert.WithinDuration(t, time.Now(), s.LoadedAt(), time.Minute)

	s.Swap([]Rule{{SID: 3}})
	assert.Equal(t, uint64(2), s.Generation())
	assert.Equal(t, 1, s.Len())

	_, ok := s.BySID(1)
	assert.False(t, ok)
}

func bySIDKeepsFirstDuplicate(t *testing.T) {
	s := NewSnapshot()
	s.Swap([]Rule{
		{SID: 7, Source: "first"},
		{SID: 7, Source: "second"},
	})

	r, ok := s.BySID(7)
	assert.True(t, ok)
	assert.Equal(t, "first", r.Source)
	assert.Equal(t, 2, s.Len())
}

func snapshotToleratesConcurrentReadersDuringSwap(t *testing.T) {
	s := NewSnapshot()
	s.Swap([]Rule{{SID: 1}})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				_ = s.Rules()
				_, _ = s.BySID(1)
				_ = s.Generation()
			}
		}()
	}
	for range 50 {
		s.Swap([]Rule{{SID: 1}, {SID: 2}})
	}
	wg.Wait()
}

func TestSnapshot(t *testing.T) {
	t.Run("Swap replaces rule set and bumps generation", swapReplacesRuleSetAndBumpsGeneration)
	t.Run("BySID keeps first duplicate", bySIDKeepsFirstDuplicate)
	t.Run("snapshot tolerates concurrent readers during swap", snapshotToleratesConcurrentReadersDuringSwap)
}
