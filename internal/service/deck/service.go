// Package deck manages an owner's decks of enriched vocabulary records.
package deck

import (
	"context"
	"log/slog"

	"github.com/havliksimon/anki-card-creator/internal/domain"
)

type recordRepo interface {
	Upsert(ctx context.Context, deckID string, rec domain.VocabularyRecord) error
	Get(ctx context.Context, deckID, term string) (domain.VocabularyRecord, error)
	List(ctx context.Context, deckID string, limit int) ([]domain.VocabularyRecord, error)
	Delete(ctx context.Context, deckID, term string) error
	ListDeckIDs(ctx context.Context, owner string) ([]string, error)
	ListLegacyDeckIDs(ctx context.Context) ([]string, error)
	MoveDeck(ctx context.Context, from, to string) (int64, error)
}

type auditLogger interface {
	Log(ctx context.Context, record domain.AuditRecord) error
	ListByDeck(ctx context.Context, deckID string, limit int) ([]domain.AuditRecord, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service provides deck and record operations.
type Service struct {
	log         *slog.Logger
	records     recordRepo
	audit       auditLogger
	tx          txManager
	legacyOwner string
}

// NewService creates a new deck service. legacyOwner receives the
// pre-migration numeric decks.
func NewService(log *slog.Logger, records recordRepo, audit auditLogger, tx txManager, legacyOwner string) *Service {
	return &Service{
		log:         log.With("service", "deck"),
		records:     records,
		audit:       audit,
		tx:          tx,
		legacyOwner: legacyOwner,
	}
}
