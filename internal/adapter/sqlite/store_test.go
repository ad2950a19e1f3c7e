package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havliksimon/anki-card-creator/internal/domain"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Audio(t *testing.T) {
	t.Parallel()
	s := openMemory(t)
	ctx := context.Background()

	_, err := s.GetAudio(ctx, "你好")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)

	require.NoError(t, s.PutAudio(ctx, "你好", []byte("a")))
	require.NoError(t, s.PutAudio(ctx, "你好", []byte("b")))

	got, err := s.GetAudio(ctx, "你好")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got)
}

func TestStore_Stroke(t *testing.T) {
	t.Parallel()
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.PutStroke(ctx, "好", 1, []byte("gif-1")))
	require.NoError(t, s.PutStroke(ctx, "好", 2, []byte("gif-2")))

	got, err := s.GetStroke(ctx, "好", 2)
	require.NoError(t, err)
	assert.Equal(t, []byte("gif-2"), got)

	_, err = s.GetStroke(ctx, "好", 3)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)

	err = s.PutStroke(ctx, "好", 0, []byte("gif"))
	assert.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "media.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	s, err := Open(ctx, path, logger)
	require.NoError(t, err)
	require.NoError(t, s.PutAudio(ctx, "猫", []byte("meow")))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, logger)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetAudio(ctx, "猫")
	require.NoError(t, err)
	assert.Equal(t, []byte("meow"), got)
}

func TestStore_Ping(t *testing.T) {
	t.Parallel()
	s := openMemory(t)

	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
	assert.Error(t, s.Ping(context.Background()))
}
