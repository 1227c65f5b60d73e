package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/toolhive-schema-sync/internal/datatree"
	"github.com/stacklok/toolhive-schema-sync/internal/schema"
	"github.com/stacklok/toolhive-schema-sync/internal/store"
	"github.com/stacklok/toolhive-schema-sync/internal/versions"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ModelResponse describes the currently loaded model
type ModelResponse struct {
	Generation uint64          `json:"generation"`
	Digest     string          `json:"digest,omitempty"`
	Modules    []schema.Module `json:"modules"`
}

// RecordResponse is a committed record with its decoded payload
type RecordResponse struct {
	Location    store.Location  `json:"location"`
	Kind        string          `json:"kind"`
	Revision    uint64          `json:"revision"`
	WriterNode  string          `json:"writerNode"`
	WriterChain string          `json:"writerChain"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Data        json.RawMessage `json:"data"`
}

type handlers struct {
	deps Dependencies
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readiness reports ready once a model has been accepted
func (h *handlers) readiness(w http.ResponseWriter, _ *http.Request) {
	if h.deps.Models == nil {
		writeError(w, http.StatusServiceUnavailable, "no schema model has been loaded yet")
		return
	}
	if _, gen := h.deps.Models.Snapshot(); gen == 0 {
		writeError(w, http.StatusServiceUnavailable, "no schema model has been loaded yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, versions.GetVersionInfo())
}

func (h *handlers) getStatus(w http.ResponseWriter, _ *http.Request) {
	if h.deps.Status == nil {
		writeError(w, http.StatusServiceUnavailable, "sync status is not available")
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Status.Snapshot())
}

func (h *handlers) getModel(w http.ResponseWriter, _ *http.Request) {
	if h.deps.Models == nil {
		writeError(w, http.StatusServiceUnavailable, "schema model is not available")
		return
	}
	model, gen := h.deps.Models.Snapshot()
	if model == nil {
		writeError(w, http.StatusNotFound, "no schema model has been loaded yet")
		return
	}
	writeJSON(w, http.StatusOK, ModelResponse{
		Generation: uint64(gen),
		Digest:     model.Digest(),
		Modules:    model.Modules(),
	})
}

// getRecord serves the record of one kind, given as module:name
func (h *handlers) getRecord(w http.ResponseWriter, r *http.Request) {
	if h.deps.Records == nil {
		writeError(w, http.StatusServiceUnavailable, "record store is not available")
		return
	}

	kind := chi.URLParam(r, "kind")
	module, name, ok := strings.Cut(kind, ":")
	if !ok || module == "" || name == "" {
		writeError(w, http.StatusBadRequest, "kind must be of the form module:name")
		return
	}

	loc := store.LocationOfKind(datatree.Kind{Module: module, Name: name})
	rec, err := h.deps.Records.Get(r.Context(), loc)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no record published for "+kind)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to read record", "location", loc, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read record")
		return
	}

	writeJSON(w, http.StatusOK, RecordResponse{
		Location:    rec.Location,
		Kind:        rec.Kind,
		Revision:    rec.Revision,
		WriterNode:  rec.WriterNode,
		WriterChain: rec.WriterChain,
		UpdatedAt:   rec.UpdatedAt,
		Data:        json.RawMessage(rec.Payload),
	})
}

func (h *handlers) triggerSync(w http.ResponseWriter, _ *http.Request) {
	h.deps.Trigger.Trigger()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sync requested"})
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}
