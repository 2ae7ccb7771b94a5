// Package store persists snippets to a single JSON file and keeps a
// hot-reloaded snapshot of it for the expansion engine.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
)

const (
	MaxShortcutLen    = 50
	MaxSnippetLines   = 10000
	MaxSnippetLineLen = 5000
)

// Store handles loading and rewriting the snippet file. Every write
// rewrites the whole file under an advisory lock next to it.
type Store struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// New returns a Store for the file at path. The file need not exist yet.
func New(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Path returns the store file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads every record in file order.
func (s *Store) Load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStoreMissing, s.path)
		}
		return nil, fmt.Errorf("read store: %w", err)
	}
	return Decode(data)
}

// Decode parses store file contents. Empty input is an empty store.
func Decode(data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Record{}, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// Encode serializes records the way the store writes them.
func Encode(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return buf.Bytes(), nil
}

// Init creates an empty store if none exists.
func (s *Store) Init() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	}
	return s.mutate(func(records []Record) ([]Record, error) {
		return records, nil
	})
}

// Get returns the first record with shortcut.
func (s *Store) Get(shortcut string) (Record, error) {
	records, err := s.Load()
	if err != nil {
		return Record{}, err
	}
	for _, r := range records {
		if r.Shortcut == shortcut {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("%w: %s", ErrNotFound, shortcut)
}

// Add appends a new record. The store is created on first write.
func (s *Store) Add(shortcut, snippet string) (Record, error) {
	if err := ValidateShortcut(shortcut); err != nil {
		return Record{}, err
	}
	if err := ValidateSnippet(snippet); err != nil {
		return Record{}, err
	}
	rec := Record{Shortcut: shortcut, Snippet: snippet, Timestamp: s.timestamp()}
	err := s.mutate(func(records []Record) ([]Record, error) {
		for _, r := range records {
			if r.Shortcut == shortcut {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateShortcut, shortcut)
			}
		}
		return append(records, rec), nil
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Update rewrites the body and timestamp of the first record with shortcut.
func (s *Store) Update(shortcut, snippet string) (Record, error) {
	if err := ValidateSnippet(snippet); err != nil {
		return Record{}, err
	}
	var updated Record
	err := s.mutate(func(records []Record) ([]Record, error) {
		for i := range records {
			if records[i].Shortcut == shortcut {
				records[i].Snippet = snippet
				records[i].Timestamp = s.timestamp()
				updated = records[i]
				return records, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, shortcut)
	})
	if err != nil {
		return Record{}, err
	}
	return updated, nil
}

// Delete removes every record with shortcut and reports how many were
// removed. Deleting an absent shortcut is not an error.
func (s *Store) Delete(shortcut string) (int, error) {
	removed := 0
	err := s.mutate(func(records []Record) ([]Record, error) {
		kept := records[:0]
		for _, r := range records {
			if r.Shortcut == shortcut {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		return kept, nil
	})
	return removed, err
}

// Suggest returns up to three existing shortcuts resembling shortcut.
func (s *Store) Suggest(shortcut string) []string {
	records, err := s.Load()
	if err != nil {
		return nil
	}
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Shortcut
	}
	matches := fuzzy.Find(shortcut, names)
	var out []string
	for _, m := range matches {
		out = append(out, m.Str)
		if len(out) == 3 {
			break
		}
	}
	return out
}

// ValidateShortcut rejects empty, over-long, or whitespace-bearing shortcuts.
func ValidateShortcut(shortcut string) error {
	if shortcut == "" {
		return fmt.Errorf("%w: empty", ErrInvalidShortcut)
	}
	if !utf8.ValidString(shortcut) {
		return fmt.Errorf("%w: not UTF-8", ErrInvalidShortcut)
	}
	if n := utf8.RuneCountInString(shortcut); n > MaxShortcutLen {
		return fmt.Errorf("%w: %d characters exceeds %d", ErrInvalidShortcut, n, MaxShortcutLen)
	}
	for _, r := range shortcut {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return fmt.Errorf("%w: %q is not printable", ErrInvalidShortcut, r)
		}
	}
	return nil
}

// ValidateSnippet bounds the expansion body.
func ValidateSnippet(snippet string) error {
	lines := strings.Split(snippet, "\n")
	if len(lines) > MaxSnippetLines {
		return fmt.Errorf("%w: %d lines exceeds %d", ErrSnippetTooLarge, len(lines), MaxSnippetLines)
	}
	for i, l := range lines {
		if n := utf8.RuneCountInString(l); n > MaxSnippetLineLen {
			return fmt.Errorf("%w: line %d has %d characters", ErrSnippetTooLarge, i+1, n)
		}
	}
	return nil
}

func (s *Store) timestamp() string {
	return s.now().Format(time.RFC3339)
}

// mutate runs fn over the current records under the in-process mutex and
// the cross-process file lock, then writes the result back.
func (s *Store) mutate(fn func([]Record) ([]Record, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	unlock, err := lockFile(s.path + ".lock")
	if err != nil {
		return err
	}
	defer unlock()

	records, err := s.Load()
	if errors.Is(err, ErrStoreMissing) {
		records = []Record{}
	} else if err != nil {
		return err
	}
	records, err = fn(records)
	if err != nil {
		return err
	}
	return s.writeAtomic(records)
}

// writeAtomic writes to a temp file then renames it over the store.
func (s *Store) writeAtomic(records []Record) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
