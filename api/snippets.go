package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shortcut-panel/editor"
	"shortcut-panel/logging"
)

func (h *handler) listSnippets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Snippets.List())
}

func (h *handler) addSnippet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		FileTypes   string `json:"fileTypes"`
		SnippetCode string `json:"snippetCode"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sn, err := h.app.Snippets.Add(req.Title, req.FileTypes, req.SnippetCode, req.Description)
	if err != nil {
		writeShortcutError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sn)
}

func (h *handler) deleteSnippet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.app.Snippets.Delete(id); err != nil {
		writeShortcutError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type applyResponse struct {
	Document  editor.Document `json:"document"`
	Diff      string          `json:"diff"`
	Additions int             `json:"additions"`
	Deletions int             `json:"deletions"`
}

// executeSnippet inserts the snippet into the document sent by the client,
// which stands in for the active editor, and returns the edited document.
func (h *handler) executeSnippet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Document *editor.Document `json:"document"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sn, ok := h.app.Snippets.Get(id)
	if !ok {
		http.Error(w, "shortcut not found", http.StatusNotFound)
		return
	}

	var before string
	if req.Document != nil {
		before = req.Document.Text
	}
	buf := editor.NewBuffer(req.Document)
	if err := h.app.Snippets.Execute(sn, buf); err != nil {
		writeShortcutError(w, err)
		return
	}

	doc, _ := buf.Snapshot()
	diff, add, del := editor.Diff(doc.FileName, before, doc.Text)
	logging.Debug().Str("id", id).Int("additions", add).Msg("snippet applied")
	writeJSON(w, http.StatusOK, applyResponse{Document: doc, Diff: diff, Additions: add, Deletions: del})
}
