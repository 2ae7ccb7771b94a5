package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"snipt/activity"
)

var upgrader = websocket.Upgrader{
	// The server only listens on loopback.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsMessage struct {
	Type  string          `json:"type"`
	Entry *activity.Entry `json:"entry,omitempty"`
}

// handleWS replays the retained activity and then streams new entries
// until the client goes away.
func (h *handler) handleWS(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		fail(w, http.StatusServiceUnavailable, "activity is only available from a running daemon")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// gorilla/websocket forbids concurrent writes.
	var writeMu sync.Mutex
	writeMsg := func(msg wsMessage) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(msg)
	}

	replay, live, cancel := h.hub.Subscribe(64)
	defer cancel()

	for i := range replay {
		if err := writeMsg(wsMessage{Type: "entry", Entry: &replay[i]}); err != nil {
			return
		}
	}
	if err := writeMsg(wsMessage{Type: "ready"}); err != nil {
		return
	}

	// Pump live entries; exits when cancel closes the channel.
	go func() {
		for e := range live {
			e := e
			if err := writeMsg(wsMessage{Type: "entry", Entry: &e}); err != nil {
				conn.Close()
				return
			}
		}
	}()

	// Read until the client disconnects; incoming messages are ignored.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
