package rest

import (
	"net/http"

	"github.com/havliksimon/anki-card-creator/internal/transport/middleware"
)

// Handlers groups the REST handlers mounted by NewRouter.
type Handlers struct {
	Health *HealthHandler
	Media  *MediaHandler
	Enrich *EnrichHandler
	Decks  *DeckHandler
}

// NewRouter mounts every endpoint. enrichLimit wraps only the enrichment
// endpoints and may be nil.
func NewRouter(h Handlers, enrichLimit middleware.Middleware) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", h.Health.Live)
	mux.HandleFunc("GET /ready", h.Health.Ready)
	mux.HandleFunc("GET /health", h.Health.Health)

	mux.HandleFunc("GET /api/tts", h.Media.TTS)
	mux.HandleFunc("GET /api/stroke", h.Media.Stroke)

	limited := middleware.Chain(enrichLimit)
	mux.Handle("GET /api/enrich", limited(http.HandlerFunc(h.Enrich.Enrich)))
	mux.Handle("GET /api/enrich/stream", limited(http.HandlerFunc(h.Enrich.Stream)))

	mux.HandleFunc("GET /api/decks", h.Decks.List)
	mux.HandleFunc("GET /api/decks/decode", h.Decks.Decode)
	mux.HandleFunc("GET /api/decks/export", h.Decks.Export)
	mux.HandleFunc("GET /api/decks/history", h.Decks.History)
	mux.HandleFunc("GET /api/decks/records", h.Decks.Records)
	mux.HandleFunc("POST /api/decks/records", h.Decks.Save)
	mux.HandleFunc("DELETE /api/decks/records", h.Decks.Delete)

	return mux
}
