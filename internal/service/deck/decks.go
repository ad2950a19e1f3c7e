package deck

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/havliksimon/anki-card-creator/internal/domain"
)

// ListDecks returns the decks owner has records in, ordered by number.
// Deck 1 is always present.
func (s *Service) ListDecks(ctx context.Context, owner string) ([]domain.DeckID, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}

	ids, err := s.records.ListDeckIDs(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list decks of %s: %w", owner, err)
	}

	seen := map[int]bool{1: true}
	decks := []domain.DeckID{domain.NewDeckID(owner, 1)}
	for _, raw := range ids {
		d := domain.DecodeDeckID(raw)
		// "<owner>-2-3" decodes to owner "<owner>-2" and belongs to someone else.
		if d.OwnerID != owner || seen[d.Number] {
			continue
		}
		seen[d.Number] = true
		decks = append(decks, d)
	}

	slices.SortFunc(decks, func(a, b domain.DeckID) int { return a.Number - b.Number })
	return decks, nil
}

// NextDeck returns the id of a fresh deck for owner: one past the highest
// deck number in use. The deck exists once a record is saved into it.
func (s *Service) NextDeck(ctx context.Context, owner string) (domain.DeckID, error) {
	decks, err := s.ListDecks(ctx, owner)
	if err != nil {
		return domain.DeckID{}, err
	}
	return domain.NewDeckID(owner, decks[len(decks)-1].Number+1), nil
}

// MigrationResult summarizes a legacy deck migration.
type MigrationResult struct {
	Decks   int   `json:"decks"`
	Records int64 `json:"records"`
}

// MigrateLegacyDecks reassigns every legacy numeric deck "N" to deck N of the
// configured legacy owner in one transaction. Records whose term already
// exists in the target deck keep the target's copy.
func (s *Service) MigrateLegacyDecks(ctx context.Context) (MigrationResult, error) {
	var result MigrationResult

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		ids, err := s.records.ListLegacyDeckIDs(ctx)
		if err != nil {
			return fmt.Errorf("list legacy decks: %w", err)
		}

		for _, id := range ids {
			target, ok := domain.LegacyDeckFor(id, s.legacyOwner)
			if !ok {
				continue
			}
			moved, err := s.records.MoveDeck(ctx, id, target.Encode())
			if err != nil {
				return fmt.Errorf("move deck %s: %w", id, err)
			}
			if err := s.audit.Log(ctx, domain.NewAuditRecord(target, domain.AuditActionMigrate, "", map[string]any{
				"from":    id,
				"records": moved,
			})); err != nil {
				return err
			}
			s.log.InfoContext(ctx, "legacy deck migrated",
				slog.String("from", id),
				slog.String("to", target.Encode()),
				slog.Int64("records", moved),
			)
			result.Decks++
			result.Records += moved
		}
		return nil
	})
	if err != nil {
		return MigrationResult{}, err
	}

	return result, nil
}

func validateOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return domain.NewValidationError("owner", "required")
	}
	return nil
}
