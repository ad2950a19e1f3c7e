package deck

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havliksimon/anki-card-creator/internal/domain"
)

// ---------------------------------------------------------------------------
// Manual mocks (moq-style with func fields)
// ---------------------------------------------------------------------------

type mockRecordRepo struct {
	UpsertFunc            func(ctx context.Context, deckID string, rec domain.VocabularyRecord) error
	GetFunc               func(ctx context.Context, deckID, term string) (domain.VocabularyRecord, error)
	ListFunc              func(ctx context.Context, deckID string, limit int) ([]domain.VocabularyRecord, error)
	DeleteFunc            func(ctx context.Context, deckID, term string) error
	ListDeckIDsFunc       func(ctx context.Context, owner string) ([]string, error)
	ListLegacyDeckIDsFunc func(ctx context.Context) ([]string, error)
	MoveDeckFunc          func(ctx context.Context, from, to string) (int64, error)
}

func (m *mockRecordRepo) Upsert(ctx context.Context, deckID string, rec domain.VocabularyRecord) error {
	return m.UpsertFunc(ctx, deckID, rec)
}

func (m *mockRecordRepo) Get(ctx context.Context, deckID, term string) (domain.VocabularyRecord, error) {
	return m.GetFunc(ctx, deckID, term)
}

func (m *mockRecordRepo) List(ctx context.Context, deckID string, limit int) ([]domain.VocabularyRecord, error) {
	return m.ListFunc(ctx, deckID, limit)
}

func (m *mockRecordRepo) Delete(ctx context.Context, deckID, term string) error {
	return m.DeleteFunc(ctx, deckID, term)
}

func (m *mockRecordRepo) ListDeckIDs(ctx context.Context, owner string) ([]string, error) {
	return m.ListDeckIDsFunc(ctx, owner)
}

func (m *mockRecordRepo) ListLegacyDeckIDs(ctx context.Context) ([]string, error) {
	return m.ListLegacyDeckIDsFunc(ctx)
}

func (m *mockRecordRepo) MoveDeck(ctx context.Context, from, to string) (int64, error) {
	return m.MoveDeckFunc(ctx, from, to)
}

type mockAuditLogger struct {
	logged         []domain.AuditRecord
	LogFunc        func(ctx context.Context, record domain.AuditRecord) error
	ListByDeckFunc func(ctx context.Context, deckID string, limit int) ([]domain.AuditRecord, error)
}

func (m *mockAuditLogger) Log(ctx context.Context, record domain.AuditRecord) error {
	m.logged = append(m.logged, record)
	if m.LogFunc != nil {
		return m.LogFunc(ctx, record)
	}
	return nil
}

func (m *mockAuditLogger) ListByDeck(ctx context.Context, deckID string, limit int) ([]domain.AuditRecord, error) {
	return m.ListByDeckFunc(ctx, deckID, limit)
}

type mockTxManager struct {
	calls       int
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	if m.RunInTxFunc != nil {
		return m.RunInTxFunc(ctx, fn)
	}
	// Default: pass-through (no real transaction).
	return fn(ctx)
}

func newTestService(repo *mockRecordRepo, tx *mockTxManager) *Service {
	return newAuditedService(repo, &mockAuditLogger{}, tx)
}

func newAuditedService(repo *mockRecordRepo, audit *mockAuditLogger, tx *mockTxManager) *Service {
	if tx == nil {
		tx = &mockTxManager{}
	}
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, audit, tx, "admin")
}

func filledRecord(term string) domain.VocabularyRecord {
	rec := domain.NewVocabularyRecord()
	rec.Term = term
	rec.Translation = "meaning"
	return rec
}

// ---------------------------------------------------------------------------
// ListDecks / NextDeck
// ---------------------------------------------------------------------------

func TestListDecks(t *testing.T) {
	t.Parallel()

	repo := &mockRecordRepo{ListDeckIDsFunc: func(ctx context.Context, owner string) ([]string, error) {
		return []string{"u1-10", "u1", "u1-2", "u1-2-3", "u1-x"}, nil
	}}

	decks, err := newTestService(repo, nil).ListDecks(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []domain.DeckID{
		{OwnerID: "u1", Number: 1},
		{OwnerID: "u1", Number: 2},
		{OwnerID: "u1", Number: 10},
	}, decks)
}

func TestListDecks_AlwaysHasMainDeck(t *testing.T) {
	t.Parallel()

	repo := &mockRecordRepo{ListDeckIDsFunc: func(ctx context.Context, owner string) ([]string, error) {
		return nil, nil
	}}

	decks, err := newTestService(repo, nil).ListDecks(context.Background(), "new-user")
	require.NoError(t, err)
	assert.Equal(t, []domain.DeckID{{OwnerID: "new-user", Number: 1}}, decks)
}

func TestListDecks_Errors(t *testing.T) {
	t.Parallel()

	repoErr := errors.New("db down")
	repo := &mockRecordRepo{ListDeckIDsFunc: func(ctx context.Context, owner string) ([]string, error) {
		return nil, repoErr
	}}
	svc := newTestService(repo, nil)

	_, err := svc.ListDecks(context.Background(), " ")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = svc.ListDecks(context.Background(), "u1")
	assert.ErrorIs(t, err, repoErr)
}

func TestNextDeck(t *testing.T) {
	t.Parallel()

	repo := &mockRecordRepo{ListDeckIDsFunc: func(ctx context.Context, owner string) ([]string, error) {
		return []string{"u1", "u1-4"}, nil
	}}

	next, err := newTestService(repo, nil).NextDeck(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1-5", next.Encode())
}

// ---------------------------------------------------------------------------
// MigrateLegacyDecks
// ---------------------------------------------------------------------------

func TestMigrateLegacyDecks(t *testing.T) {
	t.Parallel()

	moves := map[string]string{}
	repo := &mockRecordRepo{
		ListLegacyDeckIDsFunc: func(ctx context.Context) ([]string, error) {
			return []string{"1", "3", "12"}, nil
		},
		MoveDeckFunc: func(ctx context.Context, from, to string) (int64, error) {
			moves[from] = to
			return 2, nil
		},
	}
	tx := &mockTxManager{}
	audit := &mockAuditLogger{}

	res, err := newAuditedService(repo, audit, tx).MigrateLegacyDecks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MigrationResult{Decks: 3, Records: 6}, res)
	assert.Equal(t, map[string]string{"1": "admin", "3": "admin-3", "12": "admin-12"}, moves)
	assert.Equal(t, 1, tx.calls)

	require.Len(t, audit.logged, 3)
	assert.Equal(t, domain.AuditActionMigrate, audit.logged[0].Action)
	assert.Equal(t, "admin", audit.logged[0].DeckID)
	assert.Equal(t, "1", audit.logged[0].Changes["from"])
	assert.Equal(t, "admin-12", audit.logged[2].DeckID)
}

func TestMigrateLegacyDecks_FailureRollsBack(t *testing.T) {
	t.Parallel()

	moveErr := errors.New("conflict")
	repo := &mockRecordRepo{
		ListLegacyDeckIDsFunc: func(ctx context.Context) ([]string, error) {
			return []string{"2"}, nil
		},
		MoveDeckFunc: func(ctx context.Context, from, to string) (int64, error) {
			return 0, moveErr
		},
	}

	res, err := newTestService(repo, nil).MigrateLegacyDecks(context.Background())
	assert.ErrorIs(t, err, moveErr)
	assert.Equal(t, MigrationResult{}, res)
}

// ---------------------------------------------------------------------------
// Records
// ---------------------------------------------------------------------------

func TestSaveRecord(t *testing.T) {
	t.Parallel()

	var savedDeck string
	var saved domain.VocabularyRecord
	repo := &mockRecordRepo{UpsertFunc: func(ctx context.Context, deckID string, rec domain.VocabularyRecord) error {
		savedDeck, saved = deckID, rec
		return nil
	}}

	audit := &mockAuditLogger{}
	tx := &mockTxManager{}

	err := newAuditedService(repo, audit, tx).SaveRecord(context.Background(), domain.NewDeckID("u1", 2), filledRecord(" 你好 "))
	require.NoError(t, err)
	assert.Equal(t, "u1-2", savedDeck)
	assert.Equal(t, "你好", saved.Term)
	assert.Equal(t, 1, tx.calls)

	require.Len(t, audit.logged, 1)
	assert.Equal(t, domain.AuditActionSave, audit.logged[0].Action)
	assert.Equal(t, "u1-2", audit.logged[0].DeckID)
	assert.Equal(t, "你好", audit.logged[0].Term)
	assert.Equal(t, "meaning", audit.logged[0].Changes["translation"])
}

func TestSaveRecord_AuditFailure(t *testing.T) {
	t.Parallel()

	auditErr := errors.New("audit down")
	repo := &mockRecordRepo{UpsertFunc: func(ctx context.Context, deckID string, rec domain.VocabularyRecord) error {
		return nil
	}}
	audit := &mockAuditLogger{LogFunc: func(ctx context.Context, record domain.AuditRecord) error {
		return auditErr
	}}

	err := newAuditedService(repo, audit, nil).SaveRecord(context.Background(), domain.NewDeckID("u1", 1), filledRecord("猫"))
	assert.ErrorIs(t, err, auditErr)
}

func TestSaveRecord_Validation(t *testing.T) {
	t.Parallel()

	repo := &mockRecordRepo{UpsertFunc: func(ctx context.Context, deckID string, rec domain.VocabularyRecord) error {
		t.Fatal("Upsert must not be called")
		return nil
	}}
	svc := newTestService(repo, nil)
	ctx := context.Background()

	empty := domain.NewVocabularyRecord()
	empty.Term = "你好"

	tests := []struct {
		name string
		deck domain.DeckID
		rec  domain.VocabularyRecord
	}{
		{name: "no owner", deck: domain.NewDeckID("", 1), rec: filledRecord("你好")},
		{name: "no term", deck: domain.NewDeckID("u1", 1), rec: filledRecord("  ")},
		{name: "empty record", deck: domain.NewDeckID("u1", 1), rec: empty},
	}
	for _, tt := range tests {
		err := svc.SaveRecord(ctx, tt.deck, tt.rec)
		assert.True(t, errors.Is(err, domain.ErrValidation), "%s: got %v", tt.name, err)
	}
}

func TestListRecords(t *testing.T) {
	t.Parallel()

	var gotDeck string
	var gotLimit int
	repo := &mockRecordRepo{ListFunc: func(ctx context.Context, deckID string, limit int) ([]domain.VocabularyRecord, error) {
		gotDeck, gotLimit = deckID, limit
		return []domain.VocabularyRecord{filledRecord("一")}, nil
	}}

	recs, err := newTestService(repo, nil).ListRecords(context.Background(), domain.NewDeckID("u1", 1), -5)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, "u1", gotDeck)
	assert.Equal(t, 0, gotLimit)
}

func TestDeleteRecord(t *testing.T) {
	t.Parallel()

	repo := &mockRecordRepo{DeleteFunc: func(ctx context.Context, deckID, term string) error {
		if term == "猫" {
			return nil
		}
		return domain.ErrNotFound
	}}
	audit := &mockAuditLogger{}
	svc := newAuditedService(repo, audit, nil)
	deck := domain.NewDeckID("u1", 3)

	require.NoError(t, svc.DeleteRecord(context.Background(), deck, "猫 "))
	assert.True(t, errors.Is(svc.DeleteRecord(context.Background(), deck, "狗"), domain.ErrNotFound))
	assert.True(t, errors.Is(svc.DeleteRecord(context.Background(), deck, ""), domain.ErrValidation))

	require.Len(t, audit.logged, 1, "only the successful delete is audited")
	assert.Equal(t, domain.AuditActionDelete, audit.logged[0].Action)
	assert.Equal(t, "猫", audit.logged[0].Term)
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

func TestHistory(t *testing.T) {
	t.Parallel()

	var gotDeck string
	var gotLimit int
	audit := &mockAuditLogger{ListByDeckFunc: func(ctx context.Context, deckID string, limit int) ([]domain.AuditRecord, error) {
		gotDeck, gotLimit = deckID, limit
		return []domain.AuditRecord{domain.NewAuditRecord(domain.NewDeckID("u1", 4), domain.AuditActionSave, "一", nil)}, nil
	}}
	svc := newAuditedService(&mockRecordRepo{}, audit, nil)

	recs, err := svc.History(context.Background(), domain.NewDeckID("u1", 4), -1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, "u1-4", gotDeck)
	assert.Equal(t, 0, gotLimit)

	_, err = svc.History(context.Background(), domain.NewDeckID("", 1), 10)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestHistory_Error(t *testing.T) {
	t.Parallel()

	listErr := errors.New("db down")
	audit := &mockAuditLogger{ListByDeckFunc: func(ctx context.Context, deckID string, limit int) ([]domain.AuditRecord, error) {
		return nil, listErr
	}}

	_, err := newAuditedService(&mockRecordRepo{}, audit, nil).History(context.Background(), domain.NewDeckID("u1", 1), 5)
	assert.ErrorIs(t, err, listErr)
}

func TestGetRecord(t *testing.T) {
	t.Parallel()

	repo := &mockRecordRepo{GetFunc: func(ctx context.Context, deckID, term string) (domain.VocabularyRecord, error) {
		assert.Equal(t, "u1-2", deckID)
		return filledRecord(term), nil
	}}

	rec, err := newTestService(repo, nil).GetRecord(context.Background(), domain.NewDeckID("u1", 2), " 猫")
	require.NoError(t, err)
	assert.Equal(t, "猫", rec.Term)
}
