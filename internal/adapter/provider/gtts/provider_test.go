package gtts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havliksimon/anki-card-creator/internal/domain"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProvider_Synthesize(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate_tts", r.URL.Path)
		assert.Equal(t, "zh-CN", r.URL.Query().Get("tl"))
		assert.Equal(t, "你好", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3-mp3"))
	}))
	defer srv.Close()

	got, err := NewProviderWithURL(srv.URL, "", newTestLogger()).Synthesize(context.Background(), "你好")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3-mp3"), got)
}

func TestProvider_Synthesize_LongTextConcatenatesChunks(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("[" + r.URL.Query().Get("idx") + "]"))
	}))
	defer srv.Close()

	text := strings.Repeat("我喜欢学习中文。", 30)
	got, err := NewProviderWithURL(srv.URL, "", newTestLogger()).Synthesize(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "[0][1][2]", string(got))
}

func TestProvider_Synthesize_Errors(t *testing.T) {
	t.Parallel()

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()
		_, err := NewProviderWithURL("http://unused", "", newTestLogger()).Synthesize(context.Background(), "  ")
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer srv.Close()
		_, err := NewProviderWithURL(srv.URL, "", newTestLogger()).Synthesize(context.Background(), "你")
		assert.True(t, errors.Is(err, domain.ErrMalformedResponse))
	})

	t.Run("forbidden", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()
		_, err := NewProviderWithURL(srv.URL, "", newTestLogger()).Synthesize(context.Background(), "你")
		assert.True(t, errors.Is(err, domain.ErrSourceUnavailable))
	})
}

func TestSplitText(t *testing.T) {
	t.Parallel()

	assert.Empty(t, splitText("", 10))
	assert.Equal(t, []string{"你好"}, splitText(" 你好 ", 10))
	assert.Equal(t, []string{"一二三，", "四五六"}, splitText("一二三，四五六", 5))
	assert.Equal(t, []string{"一二三四五", "六七"}, splitText("一二三四五六七", 5))

	for _, c := range splitText(strings.Repeat("字", 250), 100) {
		assert.LessOrEqual(t, len([]rune(c)), 100)
	}
}
