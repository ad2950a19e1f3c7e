package rest

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havliksimon/anki-card-creator/internal/domain"
	"github.com/havliksimon/anki-card-creator/internal/service/enrichment"
)

type enricherMock struct {
	EnrichFunc func(ctx context.Context, term string, sink enrichment.ProgressSink) domain.VocabularyRecord
}

func (m *enricherMock) Enrich(ctx context.Context, term string, sink enrichment.ProgressSink) domain.VocabularyRecord {
	return m.EnrichFunc(ctx, term, sink)
}

func helloRecord() domain.VocabularyRecord {
	rec := domain.NewVocabularyRecord()
	rec.Term = "你好"
	rec.Translation = "hello"
	rec.StyledPronunciation = "nǐ hǎo"
	return rec
}

func TestEnrichHandler_Enrich(t *testing.T) {
	t.Parallel()

	var gotTerm string
	mock := &enricherMock{EnrichFunc: func(_ context.Context, term string, sink enrichment.ProgressSink) domain.VocabularyRecord {
		gotTerm = term
		assert.Nil(t, sink)
		return helloRecord()
	}}
	h := NewEnrichHandler(mock, discardLogger())

	rec := httptest.NewRecorder()
	h.Enrich(rec, httptest.NewRequest(http.MethodGet, "/api/enrich?word=%E4%BD%A0%E5%A5%BD", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "你好", gotTerm)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "你好", body["term"])
	assert.Equal(t, "hello", body["translation"])
	assert.Equal(t, false, body["empty"])
	assert.Equal(t, []any{}, body["stroke_diagram_refs"])
}

func TestEnrichHandler_Enrich_EmptyRecordIs200(t *testing.T) {
	t.Parallel()

	mock := &enricherMock{EnrichFunc: func(_ context.Context, term string, _ enrichment.ProgressSink) domain.VocabularyRecord {
		rec := domain.NewVocabularyRecord()
		rec.Term = term
		return rec
	}}
	h := NewEnrichHandler(mock, discardLogger())

	rec := httptest.NewRecorder()
	h.Enrich(rec, httptest.NewRequest(http.MethodGet, "/api/enrich?word=qqq", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["empty"])
}

func TestEnrichHandler_Enrich_MissingWord(t *testing.T) {
	t.Parallel()

	h := NewEnrichHandler(&enricherMock{}, discardLogger())

	rec := httptest.NewRecorder()
	h.Enrich(rec, httptest.NewRequest(http.MethodGet, "/api/enrich", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing word parameter", errorBody(t, rec))
}

func TestEnrichHandler_Stream(t *testing.T) {
	t.Parallel()

	mock := &enricherMock{EnrichFunc: func(_ context.Context, _ string, sink enrichment.ProgressSink) domain.VocabularyRecord {
		sink(enrichment.StageDictionary, "Looking up 你好")
		sink(enrichment.StageDone, "Finished 你好")
		return helloRecord()
	}}
	h := NewEnrichHandler(mock, discardLogger())

	rec := httptest.NewRecorder()
	h.Stream(rec, httptest.NewRequest(http.MethodGet, "/api/enrich/stream?word=%E4%BD%A0%E5%A5%BD", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var events, data []string
	sc := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			events = append(events, strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
	require.Equal(t, []string{"progress", "progress", "record"}, events)

	var first progressEvent
	require.NoError(t, json.Unmarshal([]byte(data[0]), &first))
	assert.Equal(t, enrichment.StageDictionary, first.Stage)
	assert.Equal(t, "Looking up 你好", first.Message)

	var last map[string]any
	require.NoError(t, json.Unmarshal([]byte(data[2]), &last))
	assert.Equal(t, "hello", last["translation"])
	assert.Equal(t, false, last["empty"])
}
