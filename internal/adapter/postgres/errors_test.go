package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/havliksimon/anki-card-creator/internal/domain"
)

func TestMapError_Nil(t *testing.T) {
	t.Parallel()

	if got := MapError(nil, "record", "你好"); got != nil {
		t.Errorf("MapError(nil) = %v, want nil", got)
	}
}

func TestMapError_NoRows(t *testing.T) {
	t.Parallel()

	got := MapError(pgx.ErrNoRows, "record", "你好")
	if !errors.Is(got, domain.ErrNotFound) {
		t.Errorf("MapError(ErrNoRows) does not wrap domain.ErrNotFound: %v", got)
	}
	if want := "record 你好: not found"; got.Error() != want {
		t.Errorf("MapError(ErrNoRows).Error() = %q, want %q", got.Error(), want)
	}
}

func TestMapError_WrappedNoRows(t *testing.T) {
	t.Parallel()

	got := MapError(fmt.Errorf("scan row: %w", pgx.ErrNoRows), "tts_cache", "好")
	if !errors.Is(got, domain.ErrNotFound) {
		t.Errorf("MapError(wrapped ErrNoRows) does not wrap domain.ErrNotFound: %v", got)
	}
}

func TestMapError_PgCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want error
	}{
		{"23505", domain.ErrAlreadyExists},
		{"23503", domain.ErrNotFound},
		{"23514", domain.ErrValidation},
		{"22001", domain.ErrValidation},
	}
	for _, tt := range tests {
		got := MapError(&pgconn.PgError{Code: tt.code}, "record", "k")
		if !errors.Is(got, tt.want) {
			t.Errorf("code %s: got %v, want wrapping %v", tt.code, got, tt.want)
		}
	}
}

func TestMapError_ContextPassesThrough(t *testing.T) {
	t.Parallel()

	got := MapError(context.DeadlineExceeded, "record", "k")
	if !errors.Is(got, context.DeadlineExceeded) {
		t.Errorf("context error should pass through: %v", got)
	}
	if errors.Is(got, domain.ErrNotFound) {
		t.Error("context error must not map to a domain error")
	}
}

func TestMapError_Unknown(t *testing.T) {
	t.Parallel()

	orig := errors.New("boom")
	got := MapError(orig, "record", "k")
	if !errors.Is(got, orig) {
		t.Errorf("unknown error should be wrapped: %v", got)
	}
}
