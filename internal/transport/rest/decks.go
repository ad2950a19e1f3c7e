package rest

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/havliksimon/anki-card-creator/internal/domain"
)

// deckService defines the minimal interface needed by DeckHandler.
type deckService interface {
	ListDecks(ctx context.Context, owner string) ([]domain.DeckID, error)
	SaveRecord(ctx context.Context, deck domain.DeckID, rec domain.VocabularyRecord) error
	ListRecords(ctx context.Context, deck domain.DeckID, limit int) ([]domain.VocabularyRecord, error)
	DeleteRecord(ctx context.Context, deck domain.DeckID, term string) error
	History(ctx context.Context, deck domain.DeckID, limit int) ([]domain.AuditRecord, error)
}

// DeckHandler serves deck identifiers and the records stored in decks.
// Decode works without storage; every other endpoint answers 503 when the
// server runs without a database.
type DeckHandler struct {
	svc deckService
	log *slog.Logger
}

// NewDeckHandler creates a DeckHandler. svc may be nil.
func NewDeckHandler(svc deckService, logger *slog.Logger) *DeckHandler {
	return &DeckHandler{svc: svc, log: logger.With("handler", "deck")}
}

type deckResponse struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Number  int    `json:"number"`
	Label   string `json:"label"`
	Legacy  bool   `json:"legacy"`
}

func toDeckResponse(raw string, d domain.DeckID) deckResponse {
	return deckResponse{
		ID:      d.Encode(),
		OwnerID: d.OwnerID,
		Number:  d.Number,
		Label:   d.Label(),
		Legacy:  domain.IsLegacyNumericDeck(raw),
	}
}

// Decode handles GET /api/decks/decode?id=...
func (h *DeckHandler) Decode(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing id parameter")
		return
	}
	writeJSON(w, http.StatusOK, toDeckResponse(raw, domain.DecodeDeckID(raw)))
}

// List handles GET /api/decks?owner=...
func (h *DeckHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	owner := strings.TrimSpace(r.URL.Query().Get("owner"))

	decks, err := h.svc.ListDecks(r.Context(), owner)
	if err != nil {
		h.fail(w, r, "list decks", err)
		return
	}

	out := make([]deckResponse, 0, len(decks))
	for _, d := range decks {
		out = append(out, toDeckResponse(d.Encode(), d))
	}
	writeJSON(w, http.StatusOK, out)
}

// Records handles GET /api/decks/records?id=...&limit=N.
func (h *DeckHandler) Records(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.deckParam(w, r)
	if !ok {
		return
	}
	limit, err := limitParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	recs, err := h.svc.ListRecords(r.Context(), deck, limit)
	if err != nil {
		h.fail(w, r, "list records", err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// Save handles POST /api/decks/records?id=... with a VocabularyRecord body.
func (h *DeckHandler) Save(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.deckParam(w, r)
	if !ok {
		return
	}

	var rec domain.VocabularyRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.SaveRecord(r.Context(), deck, rec); err != nil {
		h.fail(w, r, "save record", err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// Delete handles DELETE /api/decks/records?id=...&term=...
func (h *DeckHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.deckParam(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteRecord(r.Context(), deck, r.URL.Query().Get("term")); err != nil {
		h.fail(w, r, "delete record", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type auditResponse struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	Term      string         `json:"term,omitempty"`
	Changes   map[string]any `json:"changes,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// History handles GET /api/decks/history?id=...&limit=N.
func (h *DeckHandler) History(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.deckParam(w, r)
	if !ok {
		return
	}
	limit, err := limitParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	recs, err := h.svc.History(r.Context(), deck, limit)
	if err != nil {
		h.fail(w, r, "deck history", err)
		return
	}

	out := make([]auditResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, auditResponse{
			ID:        rec.ID.String(),
			Action:    rec.Action.String(),
			Term:      rec.Term,
			Changes:   rec.Changes,
			CreatedAt: rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Export handles GET /api/decks/export?id=... as a flashcard CSV with a
// header row in domain.ExportColumns order.
func (h *DeckHandler) Export(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.deckParam(w, r)
	if !ok {
		return
	}

	recs, err := h.svc.ListRecords(r.Context(), deck, 0)
	if err != nil {
		h.fail(w, r, "export records", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="anki_export.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	cw.Write(domain.ExportColumns) //nolint:errcheck
	for _, rec := range recs {
		cw.Write(rec.ExportRow()) //nolint:errcheck
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.log.WarnContext(r.Context(), "write export", slog.String("error", err.Error()))
	}
}

func (h *DeckHandler) available(w http.ResponseWriter) bool {
	if h.svc == nil {
		writeError(w, http.StatusServiceUnavailable, "deck storage not configured")
		return false
	}
	return true
}

func (h *DeckHandler) deckParam(w http.ResponseWriter, r *http.Request) (domain.DeckID, bool) {
	if !h.available(w) {
		return domain.DeckID{}, false
	}
	raw := strings.TrimSpace(r.URL.Query().Get("id"))
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing id parameter")
		return domain.DeckID{}, false
	}
	return domain.DecodeDeckID(raw), true
}

func (h *DeckHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), op, slog.String("error", err.Error()))
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func limitParam(r *http.Request) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, domain.ErrValidation
	}
	return n, nil
}
