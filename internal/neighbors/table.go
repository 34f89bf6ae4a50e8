// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package neighbors keeps the last SHB header heard from each station.
package neighbors

import (
	"bytes"
	"sort"
	"sync"
	"time"

	"github.com/relabs-tech/geonet_beacon/internal/geonet"
)

// Entry is the latest state of one neighbor.
type Entry struct {
	Header   geonet.SHBHeader `json:"header"`
	LastSeen time.Time        `json:"last_seen"`
	Count    uint64           `json:"count"`
}

// Table is safe for concurrent use.
type Table struct {
	mu      sync.RWMutex
	entries map[geonet.Address]*Entry
	now     func() time.Time
}

func NewTable() *Table {
	return &Table{entries: map[geonet.Address]*Entry{}, now: time.Now}
}

// Update records a decoded header and returns the stored entry.
func (t *Table) Update(h geonet.SHBHeader) Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	addr := h.SourcePV.Address
	e, ok := t.entries[addr]
	if !ok {
		e = &Entry{}
		t.entries[addr] = e
	}
	e.Header = h
	e.LastSeen = t.now()
	e.Count++
	return *e
}

func (t *Table) Get(addr geonet.Address) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[addr]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Snapshot returns a copy of all entries ordered by address.
func (t *Table) Snapshot() []Entry {
	t.mu.RLock()
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, *e)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Header.SourcePV.Address, out[j].Header.SourcePV.Address
		return bytes.Compare(a[:], b[:]) < 0
	})
	return out
}

// Prune drops neighbors not heard for longer than maxAge and returns how
// many were removed.
func (t *Table) Prune(maxAge time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	removed := 0
	for addr, e := range t.entries {
		if now.Sub(e.LastSeen) > maxAge {
			delete(t.entries, addr)
			removed++
		}
	}
	return removed
}
