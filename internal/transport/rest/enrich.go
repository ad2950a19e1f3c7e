package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/havliksimon/anki-card-creator/internal/domain"
	"github.com/havliksimon/anki-card-creator/internal/service/enrichment"
)

// enricher defines the minimal interface needed by EnrichHandler.
type enricher interface {
	Enrich(ctx context.Context, term string, sink enrichment.ProgressSink) domain.VocabularyRecord
}

// EnrichHandler serves on-demand vocabulary enrichment.
type EnrichHandler struct {
	svc enricher
	log *slog.Logger
}

// NewEnrichHandler creates an EnrichHandler.
func NewEnrichHandler(svc enricher, logger *slog.Logger) *EnrichHandler {
	return &EnrichHandler{svc: svc, log: logger.With("handler", "enrich")}
}

type enrichResponse struct {
	domain.VocabularyRecord
	Empty bool `json:"empty"`
}

type progressEvent struct {
	Stage   enrichment.Stage `json:"stage"`
	Message string           `json:"message"`
}

// Enrich handles GET /api/enrich?word=...
// A term nothing is known about still answers 200 with "empty": true.
func (h *EnrichHandler) Enrich(w http.ResponseWriter, r *http.Request) {
	word, ok := wordParam(w, r)
	if !ok {
		return
	}

	rec := h.svc.Enrich(r.Context(), word, nil)
	writeJSON(w, http.StatusOK, enrichResponse{VocabularyRecord: rec, Empty: rec.IsEmpty()})
}

// Stream handles GET /api/enrich/stream?word=... as server-sent events: one
// "progress" event per stage transition followed by a single "record" event.
func (h *EnrichHandler) Stream(w http.ResponseWriter, r *http.Request) {
	word, ok := wordParam(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	// Enrich serializes sink calls, so writes here never interleave.
	sink := func(stage enrichment.Stage, message string) {
		h.writeEvent(r, w, "progress", progressEvent{Stage: stage, Message: message})
		flusher.Flush()
	}

	rec := h.svc.Enrich(r.Context(), word, sink)
	h.writeEvent(r, w, "record", enrichResponse{VocabularyRecord: rec, Empty: rec.IsEmpty()})
	flusher.Flush()
}

func (h *EnrichHandler) writeEvent(r *http.Request, w http.ResponseWriter, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.ErrorContext(r.Context(), "marshal event", slog.String("error", err.Error()))
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data) //nolint:errcheck
}

func wordParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	word := strings.TrimSpace(r.URL.Query().Get("word"))
	if word == "" {
		writeError(w, http.StatusBadRequest, "missing word parameter")
		return "", false
	}
	return word, true
}
