package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"snipt/store"
)

type snippetRequest struct {
	Shortcut string `json:"shortcut"`
	Snippet  string `json:"snippet"`
}

func (h *handler) listSnippets(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.Load()
	if errors.Is(err, store.ErrStoreMissing) {
		records, err = []store.Record{}, nil
	}
	if err != nil {
		h.storeError(w, err, "")
		return
	}
	ok(w, http.StatusOK, records)
}

func (h *handler) getSnippet(w http.ResponseWriter, r *http.Request) {
	shortcut := r.URL.Query().Get("shortcut")
	if shortcut == "" {
		fail(w, http.StatusBadRequest, "missing shortcut parameter")
		return
	}
	rec, err := h.store.Get(shortcut)
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrStoreMissing) {
		ok(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		h.storeError(w, err, shortcut)
		return
	}
	ok(w, http.StatusOK, rec)
}

func (h *handler) addSnippet(w http.ResponseWriter, r *http.Request) {
	req, good := decodeSnippet(w, r)
	if !good {
		return
	}
	rec, err := h.store.Add(req.Shortcut, req.Snippet)
	if err != nil {
		h.storeError(w, err, req.Shortcut)
		return
	}
	ok(w, http.StatusCreated, rec)
}

func (h *handler) updateSnippet(w http.ResponseWriter, r *http.Request) {
	req, good := decodeSnippet(w, r)
	if !good {
		return
	}
	rec, err := h.store.Update(req.Shortcut, req.Snippet)
	if err != nil {
		h.storeError(w, err, req.Shortcut)
		return
	}
	ok(w, http.StatusOK, rec)
}

func (h *handler) deleteSnippet(w http.ResponseWriter, r *http.Request) {
	shortcut := r.URL.Query().Get("shortcut")
	if shortcut == "" {
		fail(w, http.StatusBadRequest, "missing shortcut parameter")
		return
	}
	n, err := h.store.Delete(shortcut)
	if err != nil {
		h.storeError(w, err, shortcut)
		return
	}
	ok(w, http.StatusOK, map[string]int{"deleted": n})
}

func decodeSnippet(w http.ResponseWriter, r *http.Request) (snippetRequest, bool) {
	var req snippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Shortcut == "" {
		fail(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	return req, true
}

// storeError maps store failures onto HTTP statuses.
func (h *handler) storeError(w http.ResponseWriter, err error, shortcut string) {
	switch {
	case errors.Is(err, store.ErrDuplicateShortcut):
		fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrNotFound):
		msg := err.Error()
		if s := h.store.Suggest(shortcut); len(s) > 0 {
			msg = fmt.Sprintf("%s (did you mean %s?)", msg, strings.Join(s, ", "))
		}
		fail(w, http.StatusNotFound, msg)
	case errors.Is(err, store.ErrInvalidShortcut), errors.Is(err, store.ErrSnippetTooLarge):
		fail(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("store operation failed", "shortcut", shortcut, "error", err)
		fail(w, http.StatusInternalServerError, err.Error())
	}
}
