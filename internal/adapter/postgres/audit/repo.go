// Package audit implements the deck audit log using PostgreSQL.
// It provides append-only operations for audit records.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/havliksimon/anki-card-creator/internal/adapter/postgres"
	"github.com/havliksimon/anki-card-creator/internal/domain"
)

const table = "deck_audit"

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repo provides audit log persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new audit repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Log appends record. A nil ID is replaced with a fresh one; a zero
// CreatedAt takes the database clock.
func (r *Repo) Log(ctx context.Context, record domain.AuditRecord) error {
	if !record.Action.IsValid() {
		return domain.NewValidationError("action", "unknown audit action "+record.Action.String())
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	var changes []byte
	if record.Changes != nil {
		var err error
		if changes, err = json.Marshal(record.Changes); err != nil {
			return fmt.Errorf("deck_audit marshal changes: %w", err)
		}
	}

	cols := []string{"id", "deck_id", "action", "term", "changes"}
	vals := []any{record.ID, record.DeckID, string(record.Action), record.Term, changes}
	if !record.CreatedAt.IsZero() {
		cols = append(cols, "created_at")
		vals = append(vals, record.CreatedAt)
	}

	sql, args, err := psql.Insert(table).Columns(cols...).Values(vals...).ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}
	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "deck_audit", record.ID.String())
	}
	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// ListByDeck returns the history of deckID, newest first. A limit <= 0
// returns every record.
func (r *Repo) ListByDeck(ctx context.Context, deckID string, limit int) ([]domain.AuditRecord, error) {
	query := psql.Select("id", "deck_id", "action", "term", "changes", "created_at").
		From(table).
		Where(squirrel.Eq{"deck_id": deckID}).
		OrderBy("created_at DESC", "id")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build audit list query: %w", err)
	}
	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list deck_audit of %s: %w", deckID, err)
	}

	records, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("scan deck_audit of %s: %w", deckID, err)
	}
	return records, nil
}

// ---------------------------------------------------------------------------
// Mapping helpers
// ---------------------------------------------------------------------------

func scanRecord(row pgx.CollectableRow) (domain.AuditRecord, error) {
	var (
		rec     domain.AuditRecord
		action  string
		changes []byte
	)
	if err := row.Scan(&rec.ID, &rec.DeckID, &action, &rec.Term, &changes, &rec.CreatedAt); err != nil {
		return domain.AuditRecord{}, err
	}
	rec.Action = domain.AuditAction(action)

	// changes: JSONB -> map[string]any
	if len(changes) > 0 {
		rec.Changes = make(map[string]any)
		if err := json.Unmarshal(changes, &rec.Changes); err != nil {
			return domain.AuditRecord{}, fmt.Errorf("deck_audit %s unmarshal changes: %w", rec.ID, err)
		}
	}
	return rec, nil
}
