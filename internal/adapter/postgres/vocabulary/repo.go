// Package vocabulary implements persistence of enriched vocabulary records,
// keyed by (deck id, term). Queries are built with squirrel.
package vocabulary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/havliksimon/anki-card-creator/internal/adapter/postgres"
	"github.com/havliksimon/anki-card-creator/internal/domain"
)

const table = "vocabulary_records"

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repo provides vocabulary record persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new vocabulary repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Upsert stores rec under (deckID, rec.Term), replacing any previous record.
func (r *Repo) Upsert(ctx context.Context, deckID string, rec domain.VocabularyRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.Term, err)
	}

	query := psql.Insert(table).
		Columns("deck_id", "term", "record").
		Values(deckID, rec.Term, payload).
		Suffix("ON CONFLICT (deck_id, term) DO UPDATE SET record = EXCLUDED.record, updated_at = now()")

	return r.exec(ctx, query, rec.Term)
}

// Get returns the record for term in deckID.
// Returns domain.ErrNotFound if it does not exist.
func (r *Repo) Get(ctx context.Context, deckID, term string) (domain.VocabularyRecord, error) {
	query := psql.Select("record").
		From(table).
		Where(squirrel.Eq{"deck_id": deckID, "term": term})

	sql, args, err := query.ToSql()
	if err != nil {
		return domain.VocabularyRecord{}, fmt.Errorf("build get query: %w", err)
	}

	var payload []byte
	if err := postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&payload); err != nil {
		return domain.VocabularyRecord{}, postgres.MapError(err, "vocabulary_record", deckID+"/"+term)
	}
	return decode(payload)
}

// List returns up to limit records of deckID in insertion order.
// A limit <= 0 returns every record.
func (r *Repo) List(ctx context.Context, deckID string, limit int) ([]domain.VocabularyRecord, error) {
	query := psql.Select("record").
		From(table).
		Where(squirrel.Eq{"deck_id": deckID}).
		OrderBy("created_at ASC", "term ASC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list vocabulary records: %w", err)
	}

	payloads, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("scan vocabulary records: %w", err)
	}

	records := make([]domain.VocabularyRecord, 0, len(payloads))
	for _, p := range payloads {
		rec, err := decode(p)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Delete removes term from deckID.
// Returns domain.ErrNotFound if nothing was deleted.
func (r *Repo) Delete(ctx context.Context, deckID, term string) error {
	query := psql.Delete(table).Where(squirrel.Eq{"deck_id": deckID, "term": term})

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "vocabulary_record", deckID+"/"+term)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vocabulary_record %s/%s: %w", deckID, term, domain.ErrNotFound)
	}
	return nil
}

// ListDeckIDs returns the distinct encoded deck ids that belong to owner:
// the bare owner id and every "<owner>-<suffix>".
func (r *Repo) ListDeckIDs(ctx context.Context, owner string) ([]string, error) {
	query := psql.Select("DISTINCT deck_id").
		From(table).
		Where(squirrel.Or{
			squirrel.Eq{"deck_id": owner},
			squirrel.Like{"deck_id": escapeLike(owner) + domain.DeckSeparator + "%"},
		}).
		OrderBy("deck_id")

	return r.strings(ctx, query)
}

// ListLegacyDeckIDs returns the distinct deck ids made only of ASCII digits.
func (r *Repo) ListLegacyDeckIDs(ctx context.Context) ([]string, error) {
	query := psql.Select("DISTINCT deck_id").
		From(table).
		Where(squirrel.Expr("deck_id ~ ?", "^[0-9]+$")).
		OrderBy("deck_id")

	return r.strings(ctx, query)
}

// MoveDeck moves every record of deck from into deck to and returns the
// number of records moved. A term already present in the target keeps the
// target's record; the source copy is discarded.
func (r *Repo) MoveDeck(ctx context.Context, from, to string) (int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	// Nested select keeps "?" placeholders; the outer builder renumbers them.
	sel := squirrel.Select().
		Column(squirrel.Expr("?::text", to)).
		Columns("term", "record", "created_at", "now()").
		From(table).
		Where(squirrel.Eq{"deck_id": from})
	insert := psql.Insert(table).
		Columns("deck_id", "term", "record", "created_at", "updated_at").
		Select(sel).
		Suffix("ON CONFLICT (deck_id, term) DO NOTHING")

	sql, args, err := insert.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build move query: %w", err)
	}
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(err, "deck", from)
	}
	moved := tag.RowsAffected()

	sql, args, err = psql.Delete(table).Where(squirrel.Eq{"deck_id": from}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete deck query: %w", err)
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return 0, postgres.MapError(err, "deck", from)
	}
	return moved, nil
}

func (r *Repo) exec(ctx context.Context, query squirrel.Sqlizer, key string) error {
	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "vocabulary_record", key)
	}
	return nil
}

func (r *Repo) strings(ctx context.Context, query squirrel.SelectBuilder) ([]string, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list deck ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan deck ids: %w", err)
	}
	return ids, nil
}

func decode(payload []byte) (domain.VocabularyRecord, error) {
	rec := domain.NewVocabularyRecord()
	if err := json.Unmarshal(payload, &rec); err != nil {
		return domain.VocabularyRecord{}, fmt.Errorf("decode vocabulary record: %w", err)
	}
	return rec, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
