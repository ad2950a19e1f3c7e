// Package legacymedia implements the legacy relational media tier on
// PostgreSQL: the tts_cache and stroke_gifs tables shared with older
// deployments.
package legacymedia

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/havliksimon/anki-card-creator/internal/adapter/postgres"
)

// Repo provides legacy TTS and stroke-diagram blobs backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new legacy media repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const (
	getAudioSQL = `SELECT audio FROM tts_cache WHERE hanzi = $1`

	putAudioSQL = `
INSERT INTO tts_cache (hanzi, audio) VALUES ($1, $2)
ON CONFLICT (hanzi) DO UPDATE SET audio = EXCLUDED.audio`

	getStrokeSQL = `SELECT gif_data FROM stroke_gifs WHERE character = $1 AND stroke_order = $2`

	putStrokeSQL = `
INSERT INTO stroke_gifs (character, stroke_order, gif_data) VALUES ($1, $2, $3)
ON CONFLICT (character, stroke_order) DO UPDATE SET gif_data = EXCLUDED.gif_data`
)

// GetAudio returns the stored audio for text.
// Returns domain.ErrNotFound if no row exists.
func (r *Repo) GetAudio(ctx context.Context, text string) ([]byte, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var audio []byte
	if err := q.QueryRow(ctx, getAudioSQL, text).Scan(&audio); err != nil {
		return nil, postgres.MapError(err, "tts_cache", text)
	}
	return audio, nil
}

// PutAudio upserts the audio for text.
func (r *Repo) PutAudio(ctx context.Context, text string, data []byte) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, putAudioSQL, text, data); err != nil {
		return postgres.MapError(err, "tts_cache", text)
	}
	return nil
}

// GetStroke returns stroke diagram number order (1-based) for char.
// Returns domain.ErrNotFound if no row exists.
func (r *Repo) GetStroke(ctx context.Context, char string, order int) ([]byte, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var gif []byte
	if err := q.QueryRow(ctx, getStrokeSQL, char, order).Scan(&gif); err != nil {
		return nil, postgres.MapError(err, "stroke_gifs", strokeKey(char, order))
	}
	return gif, nil
}

// PutStroke upserts stroke diagram number order for char.
func (r *Repo) PutStroke(ctx context.Context, char string, order int, data []byte) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, putStrokeSQL, char, order, data); err != nil {
		return postgres.MapError(err, "stroke_gifs", strokeKey(char, order))
	}
	return nil
}

func strokeKey(char string, order int) string {
	return char + "#" + strconv.Itoa(order)
}
