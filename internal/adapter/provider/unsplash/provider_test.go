package unsplash

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havliksimon/anki-card-creator/internal/domain"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProvider_Search_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/photos", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "猫", q.Get("query"))
		assert.Equal(t, "1", q.Get("per_page"))
		assert.Equal(t, "relevant", q.Get("order_by"))
		assert.Equal(t, "key", q.Get("client_id"))
		w.Write([]byte(`{"total":2,"results":[{"urls":{"regular":"https://images.example/cat.jpg","small":"x"}}]}`))
	}))
	defer srv.Close()

	got, err := NewProviderWithURL(srv.URL, "key", newTestLogger()).Search(context.Background(), "猫")
	require.NoError(t, err)
	assert.Equal(t, "https://images.example/cat.jpg", got)
}

func TestProvider_Search_NoResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total":0,"results":[]}`))
	}))
	defer srv.Close()

	got, err := NewProviderWithURL(srv.URL, "key", newTestLogger()).Search(context.Background(), "龘")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProvider_Search_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"errors":["bad key"]}`, wantErr: domain.ErrSourceUnavailable},
		{name: "bad json", status: http.StatusOK, body: `{"results":`, wantErr: domain.ErrMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewProviderWithURL(srv.URL, "key", newTestLogger()).Search(context.Background(), "猫")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))
		})
	}
}
