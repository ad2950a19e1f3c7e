// Package sqlite implements the legacy relational media tier on a local
// SQLite file, for single-host deployments without PostgreSQL.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/havliksimon/anki-card-creator/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// Store provides legacy TTS and stroke-diagram blobs backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// Open opens (or creates) the database at path and ensures the schema.
// Use ":memory:" for a private in-process database.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// Every connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger.InfoContext(ctx, "sqlite legacy store opened", slog.String("path", path))
	return &Store{db: db, path: path, log: logger.With("adapter", "sqlite")}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the database file is still usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetAudio returns the stored audio for text or domain.ErrNotFound.
func (s *Store) GetAudio(ctx context.Context, text string) ([]byte, error) {
	var audio []byte
	err := s.db.QueryRowContext(ctx, `SELECT audio FROM tts_cache WHERE hanzi = ?`, text).Scan(&audio)
	if err != nil {
		return nil, mapError(err, "tts_cache", text)
	}
	return audio, nil
}

// PutAudio upserts the audio for text.
func (s *Store) PutAudio(ctx context.Context, text string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tts_cache (hanzi, audio) VALUES (?, ?)
		 ON CONFLICT (hanzi) DO UPDATE SET audio = excluded.audio`,
		text, data,
	)
	if err != nil {
		return mapError(err, "tts_cache", text)
	}
	return nil
}

// GetStroke returns stroke diagram number order (1-based) for char or
// domain.ErrNotFound.
func (s *Store) GetStroke(ctx context.Context, char string, order int) ([]byte, error) {
	var gif []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT gif_data FROM stroke_gifs WHERE character = ? AND stroke_order = ?`,
		char, order,
	).Scan(&gif)
	if err != nil {
		return nil, mapError(err, "stroke_gifs", char+"#"+strconv.Itoa(order))
	}
	return gif, nil
}

// PutStroke upserts stroke diagram number order for char.
func (s *Store) PutStroke(ctx context.Context, char string, order int, data []byte) error {
	if order < 1 {
		return fmt.Errorf("stroke_gifs %s: %w", char, domain.NewValidationError("stroke_order", "must be >= 1"))
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stroke_gifs (character, stroke_order, gif_data) VALUES (?, ?, ?)
		 ON CONFLICT (character, stroke_order) DO UPDATE SET gif_data = excluded.gif_data`,
		char, order, data,
	)
	if err != nil {
		return mapError(err, "stroke_gifs", char+"#"+strconv.Itoa(order))
	}
	return nil
}

func mapError(err error, entity, key string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, key, domain.ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", entity, key, err)
}
