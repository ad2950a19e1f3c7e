package deck

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/havliksimon/anki-card-creator/internal/domain"
)

// SaveRecord stores rec in deck, replacing an earlier record for the same
// term. Empty records are rejected: they mean enrichment found nothing.
func (s *Service) SaveRecord(ctx context.Context, deck domain.DeckID, rec domain.VocabularyRecord) error {
	if err := validateOwner(deck.OwnerID); err != nil {
		return err
	}
	rec.Term = domain.NormalizeTerm(rec.Term)
	if rec.Term == "" {
		return domain.NewValidationError("term", "required")
	}
	if rec.IsEmpty() {
		return domain.NewValidationError("record", "no enrichment data")
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.records.Upsert(ctx, deck.Encode(), rec); err != nil {
			return fmt.Errorf("save %s to %s: %w", rec.Term, deck, err)
		}
		return s.audit.Log(ctx, domain.NewAuditRecord(deck, domain.AuditActionSave, rec.Term, map[string]any{
			"translation":    rec.Translation,
			"has_image":      rec.IllustrativeImageRef != "",
			"sentence_count": len(rec.ExampleSentences),
		}))
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "record saved", slog.String("deck", deck.Encode()), slog.String("term", rec.Term))
	return nil
}

// GetRecord returns the record for term in deck.
func (s *Service) GetRecord(ctx context.Context, deck domain.DeckID, term string) (domain.VocabularyRecord, error) {
	return s.records.Get(ctx, deck.Encode(), domain.NormalizeTerm(term))
}

// ListRecords returns up to limit records of deck, oldest first.
func (s *Service) ListRecords(ctx context.Context, deck domain.DeckID, limit int) ([]domain.VocabularyRecord, error) {
	if err := validateOwner(deck.OwnerID); err != nil {
		return nil, err
	}
	if limit < 0 {
		limit = 0
	}
	return s.records.List(ctx, deck.Encode(), limit)
}

// DeleteRecord removes term from deck.
func (s *Service) DeleteRecord(ctx context.Context, deck domain.DeckID, term string) error {
	term = domain.NormalizeTerm(term)
	if term == "" {
		return domain.NewValidationError("term", "required")
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.records.Delete(ctx, deck.Encode(), term); err != nil {
			return fmt.Errorf("delete %s from %s: %w", term, deck, err)
		}
		return s.audit.Log(ctx, domain.NewAuditRecord(deck, domain.AuditActionDelete, term, nil))
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "record deleted", slog.String("deck", deck.Encode()), slog.String("term", term))
	return nil
}

// History returns up to limit audit records of deck, newest first.
func (s *Service) History(ctx context.Context, deck domain.DeckID, limit int) ([]domain.AuditRecord, error) {
	if err := validateOwner(deck.OwnerID); err != nil {
		return nil, err
	}
	if limit < 0 {
		limit = 0
	}
	records, err := s.audit.ListByDeck(ctx, deck.Encode(), limit)
	if err != nil {
		return nil, fmt.Errorf("history of %s: %w", deck, err)
	}
	return records, nil
}
