package api

import (
	"fmt"
	"net/http"

	"snipt/daemon"
)

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("snipt API server is running"))
}

func (h *handler) daemonStatus(w http.ResponseWriter, r *http.Request) {
	_, err := daemon.Status(h.paths.PID)
	ok(w, http.StatusOK, err == nil)
}

type apiServer struct {
	Port int    `json:"port"`
	URL  string `json:"url"`
}

type daemonDetails struct {
	Running    bool      `json:"running"`
	PID        *int      `json:"pid"`
	ConfigPath string    `json:"config_path"`
	APIServer  apiServer `json:"api_server"`
}

func (h *handler) daemonDetails(w http.ResponseWriter, r *http.Request) {
	d := daemonDetails{
		ConfigPath: h.paths.Store,
		APIServer: apiServer{
			Port: h.port,
			URL:  fmt.Sprintf("http://127.0.0.1:%d", h.port),
		},
	}
	if pid, err := daemon.Status(h.paths.PID); err == nil {
		d.Running = true
		d.PID = &pid
	}
	ok(w, http.StatusOK, d)
}

func (h *handler) listActivity(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		ok(w, http.StatusOK, []any{})
		return
	}
	entries := h.hub.Recent()
	if entries == nil {
		ok(w, http.StatusOK, []any{})
		return
	}
	ok(w, http.StatusOK, entries)
}
