package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"shortcut-panel/logging"
)

func (h *handler) completions(w http.ResponseWriter, r *http.Request) {
	file := r.URL.Query().Get("file")
	if file == "" {
		http.Error(w, "missing file parameter", http.StatusBadRequest)
		return
	}
	pos := 0
	if raw := r.URL.Query().Get("pos"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid pos parameter", http.StatusBadRequest)
			return
		}
		pos = n
	}
	writeJSON(w, http.StatusOK, h.app.Completion.Complete(file, pos))
}

func (h *handler) tree(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Tree.Roots())
}

const eventPingInterval = 30 * time.Second

// handleEvents streams collection changes to a WebSocket client until it
// disconnects.
func (h *handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	sock, err := upgrade(w, r)
	if err != nil {
		logging.Warn().Err(err).Msg("events upgrade failed")
		return
	}
	defer sock.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	changes, err := h.app.Events.Subscribe(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("events subscribe failed")
		return
	}

	// The client sends nothing; reading notices the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := sock.conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(eventPingInterval)
	defer ping.Stop()
	for {
		select {
		case ch, ok := <-changes:
			if !ok {
				return
			}
			if err := sock.send(ch); err != nil {
				return
			}
		case <-ping.C:
			if err := sock.ping(); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
