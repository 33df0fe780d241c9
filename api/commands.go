package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shortcut-panel/dispatch"
	"shortcut-panel/logging"
	"shortcut-panel/shortcut"
)

func (h *handler) listCommands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Commands.List())
}

func (h *handler) addCommand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string   `json:"title"`
		Commands    []string `json:"command"`
		Description string   `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sc, err := h.app.Commands.Add(req.Title, req.Commands, req.Description)
	if err != nil {
		logging.Error().Err(err).Msg("failed to add command shortcut")
		http.Error(w, "failed to save shortcut", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (h *handler) deleteCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.app.Commands.Delete(id); err != nil {
		writeShortcutError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type executeResponse struct {
	ID       string `json:"id"`
	Commands int    `json:"commands"`
	Terminal any    `json:"terminal"`
}

// executeCommand answers once the first command was sent; the rest follow
// in the background.
func (h *handler) executeCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sc, ok := h.app.Commands.Get(id)
	if !ok {
		http.Error(w, "shortcut not found", http.StatusNotFound)
		return
	}

	run, err := h.app.Commands.Execute(sc)
	if err != nil {
		logging.Error().Err(err).Str("id", id).Msg("failed to execute command shortcut")
		http.Error(w, "failed to open terminal", http.StatusInternalServerError)
		return
	}
	go watchRun(sc, run)

	writeJSON(w, http.StatusAccepted, executeResponse{ID: sc.ID, Commands: len(sc.Commands), Terminal: run.Terminal()})
}

func watchRun(sc shortcut.CommandShortcut, run *dispatch.Run) {
	<-run.Done()
	if err := run.Err(); err != nil {
		logging.Warn().Err(err).Str("id", sc.ID).Int("sent", run.Sent()).Msg("command shortcut stopped early")
		return
	}
	logging.Debug().Str("id", sc.ID).Int("sent", run.Sent()).Msg("command shortcut finished")
}

func writeShortcutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shortcut.ErrNotFound):
		http.Error(w, "shortcut not found", http.StatusNotFound)
	case errors.Is(err, shortcut.ErrNoActiveEditor):
		http.Error(w, "no active document", http.StatusBadRequest)
	case errors.Is(err, shortcut.ErrEmptyPattern):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, shortcut.ErrPatternMismatch):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		logging.Error().Err(err).Msg("shortcut request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
