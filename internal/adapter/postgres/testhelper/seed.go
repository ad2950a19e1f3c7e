package testhelper

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/havliksimon/anki-card-creator/internal/domain"
)

// UniqueSuffix returns a short unique string for generating non-conflicting test data.
func UniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedAudio stores a legacy TTS blob for hanzi.
func SeedAudio(t *testing.T, pool *pgxpool.Pool, hanzi string, audio []byte) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO tts_cache (hanzi, audio) VALUES ($1, $2)
		 ON CONFLICT (hanzi) DO UPDATE SET audio = EXCLUDED.audio`,
		hanzi, audio,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedAudio: %v", err)
	}
}

// SeedStroke stores a legacy stroke diagram for character at the 1-based order.
func SeedStroke(t *testing.T, pool *pgxpool.Pool, character string, order int, gif []byte) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO stroke_gifs (character, stroke_order, gif_data) VALUES ($1, $2, $3)
		 ON CONFLICT (character, stroke_order) DO UPDATE SET gif_data = EXCLUDED.gif_data`,
		character, order, gif,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedStroke: %v", err)
	}
}

// SeedRecord saves a minimal vocabulary record for term into deckID.
// created_at is offset by age so that tests can control listing order.
func SeedRecord(t *testing.T, pool *pgxpool.Pool, deckID, term string, age time.Duration) domain.VocabularyRecord {
	t.Helper()

	rec := domain.NewVocabularyRecord()
	rec.Term = term
	rec.Translation = "translation of " + term

	payload, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("testhelper: SeedRecord marshal: %v", err)
	}

	createdAt := time.Now().UTC().Add(-age).Truncate(time.Microsecond)
	_, err = pool.Exec(context.Background(),
		`INSERT INTO vocabulary_records (deck_id, term, record, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)`,
		deckID, term, payload, createdAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedRecord insert: %v", err)
	}
	return rec
}
