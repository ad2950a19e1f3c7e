package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/havliksimon/anki-card-creator/internal/domain"
	"github.com/havliksimon/anki-card-creator/internal/mediacache"
)

// mediaResolver defines the minimal interface needed by MediaHandler.
type mediaResolver interface {
	Resolve(ctx context.Context, key domain.MediaAssetKey) (mediacache.Asset, error)
}

// MediaHandler serves audio and stroke-diagram bytes to rendered cards.
type MediaHandler struct {
	media mediaResolver
	log   *slog.Logger
}

// NewMediaHandler creates a MediaHandler.
func NewMediaHandler(media mediaResolver, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{media: media, log: logger.With("handler", "media")}
}

// TTS handles GET /api/tts?hanzi=...
func (h *MediaHandler) TTS(w http.ResponseWriter, r *http.Request) {
	hanzi := strings.TrimSpace(r.URL.Query().Get("hanzi"))
	if hanzi == "" {
		writeError(w, http.StatusBadRequest, "missing hanzi parameter")
		return
	}

	h.serve(w, r, domain.AudioKey(hanzi))
}

// Stroke handles GET /api/stroke?hanzi=...&order=N. Order defaults to 1.
func (h *MediaHandler) Stroke(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hanzi := strings.TrimSpace(q.Get("hanzi"))
	if hanzi == "" {
		writeError(w, http.StatusBadRequest, "missing hanzi parameter")
		return
	}

	order := 1
	if v := q.Get("order"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "order must be a positive integer")
			return
		}
		order = n
	}

	h.serve(w, r, domain.StrokeKey(hanzi, order))
}

func (h *MediaHandler) serve(w http.ResponseWriter, r *http.Request, key domain.MediaAssetKey) {
	asset, err := h.media.Resolve(r.Context(), key)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.log.ErrorContext(r.Context(), "resolve media",
				slog.String("key", key.String()),
				slog.String("error", err.Error()),
			)
		}
		switch status {
		case http.StatusNotFound:
			writeError(w, status, "media not found")
		case http.StatusBadRequest:
			writeError(w, status, err.Error())
		case http.StatusBadGateway:
			writeError(w, status, "failed to generate media")
		default:
			writeError(w, status, "internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", key.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(asset.Data)))
	w.Header().Set("Cache-Control", "public, max-age=604800, immutable")
	w.Header().Set("X-Media-Tier", string(asset.Tier))
	w.WriteHeader(http.StatusOK)
	w.Write(asset.Data) //nolint:errcheck
}
