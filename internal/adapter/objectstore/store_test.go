package objectstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havliksimon/anki-card-creator/internal/domain"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeS3 serves a single path-style bucket from memory.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")
	if bucket != f.bucket {
		writeS3Error(w, http.StatusNotFound, "NoSuchBucket")
		return
	}

	switch r.Method {
	case http.MethodHead:
		if key == "" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = data
		f.types[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			writeS3Error(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		w.Header().Set("ETag", `"etag"`)
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
		w.Header().Set("Content-Type", f.types[key])
		w.Write(data)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>`+code+`</Code><Message>not found</Message></Error>`)
}

func newTestStore(t *testing.T) (*Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{bucket: "cards", objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := New(Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "ak",
		SecretKey: "sk",
		Bucket:    "cards",
		Region:    "auto",
		PublicURL: "https://media.example/",
	}, newTestLogger())
	require.NoError(t, err)
	return s, fake
}

func TestStore_PutGet(t *testing.T) {
	t.Parallel()

	s, fake := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "tts/abc", []byte("mp3"), "audio/mpeg"))
	assert.Equal(t, "audio/mpeg", fake.types["tts/abc"])

	got, err := s.Get(ctx, "tts/abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3"), got)
}

func TestStore_Get_NotFound(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	_, err := s.Get(context.Background(), "tts/missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestStore_Ping(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestStore_URL(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	assert.Equal(t, "https://media.example/strokes/abc", s.URL("strokes/abc"))

	s.publicURL = ""
	assert.Empty(t, s.URL("strokes/abc"))
}
