// Package activity keeps a bounded history of expansions and streams new
// ones to live subscribers.
package activity

import (
	"sync"
	"time"
)

// DefaultMaxEntries bounds the history kept by a Hub.
const DefaultMaxEntries = 200

type Status string

const (
	StatusExpanded Status = "expanded"
	StatusFailed   Status = "failed"
	StatusDropped  Status = "dropped"
	StatusReloaded Status = "reloaded"
)

// Entry records one expansion attempt or store reload.
type Entry struct {
	ID       string    `json:"id"`
	Time     time.Time `json:"time"`
	Status   Status    `json:"status"`
	Shortcut string    `json:"shortcut,omitempty"`
	Kind     string    `json:"kind,omitempty"`
	App      string    `json:"app,omitempty"`
	Deleted  int       `json:"deleted,omitempty"`
	// Snippets is the store size after a reload.
	Snippets int    `json:"snippets,omitempty"`
	Error    string `json:"error,omitempty"`
}

// history is a ring of the newest entries; older ones fall off the front.
type history struct {
	mu      sync.Mutex
	entries []Entry
	max     int
}

func newHistory(max int) *history {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &history{max: max}
}

func (h *history) add(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
	if len(h.entries) > h.max {
		excess := len(h.entries) - h.max
		h.entries = append(h.entries[:0:0], h.entries[excess:]...)
	}
}

func (h *history) snapshot() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return nil
	}
	cp := make([]Entry, len(h.entries))
	copy(cp, h.entries)
	return cp
}
