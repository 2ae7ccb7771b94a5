package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var (
	ErrStoreMissing      = errors.New("snippet store not found")
	ErrSerialization     = errors.New("snippet store is not valid JSON")
	ErrDuplicateShortcut = errors.New("shortcut already exists")
	ErrNotFound          = errors.New("shortcut not found")
	ErrInvalidShortcut   = errors.New("invalid shortcut")
	ErrSnippetTooLarge   = errors.New("snippet too large")
)

// Record maps one shortcut to its snippet.
//
// Keys other than shortcut, snippet and timestamp are kept in Extra and
// written back after the known keys, sorted by name.
type Record struct {
	Shortcut  string
	Snippet   string
	Timestamp string
	Extra     map[string]json.RawMessage
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	fields := []struct {
		key string
		val any
	}{
		{"shortcut", r.Shortcut},
		{"snippet", r.Snippet},
		{"timestamp", r.Timestamp},
	}
	extraKeys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		if k == "shortcut" || k == "snippet" || k == "timestamp" {
			continue
		}
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		fields = append(fields, struct {
			key string
			val any
		}{k, r.Extra[k]})
	}

	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := encode(f.key)
		if err != nil {
			return nil, err
		}
		vb, err := encode(f.val)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errors.New("snippet entry must be an object")
	}
	take := func(key string, dst *string, required bool) error {
		v, ok := raw[key]
		if !ok {
			if required {
				return fmt.Errorf("snippet entry missing %q", key)
			}
			return nil
		}
		delete(raw, key)
		if err := json.Unmarshal(v, dst); err != nil {
			return fmt.Errorf("snippet entry field %q: %w", key, err)
		}
		return nil
	}
	*r = Record{}
	if err := take("shortcut", &r.Shortcut, true); err != nil {
		return err
	}
	if err := take("snippet", &r.Snippet, true); err != nil {
		return err
	}
	if err := take("timestamp", &r.Timestamp, false); err != nil {
		return err
	}
	if len(raw) > 0 {
		r.Extra = raw
	}
	return nil
}

// encode marshals v without HTML escaping so snippets holding markup
// stay readable in the file.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
