package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/havliksimon/anki-card-creator/pkg/ctxutil"
)

func captureRequestID(t *testing.T, req *http.Request) (ctxID, headerID string) {
	t.Helper()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = ctxutil.RequestIDFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	RequestID(handler).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	return ctxID, rec.Header().Get(RequestIDHeader)
}

func TestRequestID_ReuseIncoming(t *testing.T) {
	t.Parallel()
	incomingID := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/api/tts?hanzi=好", nil)
	req.Header.Set(RequestIDHeader, incomingID)

	ctxID, headerID := captureRequestID(t, req)
	if ctxID != incomingID {
		t.Errorf("expected requestID %s in context, got %s", incomingID, ctxID)
	}
	if headerID != incomingID {
		t.Errorf("expected %s header %s, got %s", RequestIDHeader, incomingID, headerID)
	}
}

func TestRequestID_GenerateNew(t *testing.T) {
	t.Parallel()

	ctxID, headerID := captureRequestID(t, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(ctxID); err != nil {
		t.Errorf("expected valid UUID in context, got %q: %v", ctxID, err)
	}
	if headerID != ctxID {
		t.Errorf("expected header %q to match context %q", headerID, ctxID)
	}
}

func TestRequestID_OversizedIncomingReplaced(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLen+1))

	ctxID, _ := captureRequestID(t, req)
	if _, err := uuid.Parse(ctxID); err != nil {
		t.Errorf("expected oversized id to be replaced by a UUID, got %q", ctxID)
	}
}
