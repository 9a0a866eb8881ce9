package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"activation_fulfiller/internal/logbus"
)

const writeWait = 5 * time.Second

// Handler streams log bus messages to operators watching fulfillments.
// The optional ?level= query drops messages below that level.
type Handler struct {
	bus          *logbus.Bus
	allowOrigins []string
	upgrader     websocket.Upgrader
}

func NewHandler(bus *logbus.Bus, allowOrigins []string) *Handler {
	h := &Handler{
		bus:          bus,
		allowOrigins: allowOrigins,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: h.checkOrigin,
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.bus == nil {
		http.Error(w, "log stream unavailable", http.StatusServiceUnavailable)
		return
	}
	minLevel := zerolog.TraceLevel
	if v := strings.TrimSpace(r.URL.Query().Get("level")); v != "" {
		lvl, err := zerolog.ParseLevel(strings.ToLower(v))
		if err != nil {
			http.Error(w, "invalid level", http.StatusBadRequest)
			return
		}
		minLevel = lvl
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// subscribe before the snapshot so nothing logged in between is lost
	ch, cancel := h.bus.Subscribe(256)
	defer cancel()

	for _, msg := range h.bus.Snapshot() {
		if !wanted(msg, minLevel) {
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !wanted(msg, minLevel) {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

func wanted(msg logbus.Message, min zerolog.Level) bool {
	data, ok := msg.Data.(logbus.LogData)
	if !ok {
		return true
	}
	lvl, err := zerolog.ParseLevel(data.Level)
	if err != nil {
		return true
	}
	return lvl >= min
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.allowOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}
