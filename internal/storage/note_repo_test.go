package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"litnotes/internal/ai"
	"litnotes/internal/models"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noteCols = []string{"id", "title", "authors", "publication", "year", "keywords", "content", "created_at", "updated_at"}

func newMockDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })
	return &DB{Pool: mock}, mock
}

func intPtr(v int) *int { return &v }

func TestNoteRepoCreateScansReturnedRow(t *testing.T) {
	db, mock := newMockDB(t)
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO notes")).
		WithArgs(pgxmock.AnyArg(), "Attention", []string{"Vaswani"}, "NeurIPS", intPtr(2017), []string{}, "body").
		WillReturnRows(mock.NewRows(noteCols).AddRow(
			"n-1", "Attention", []string{"Vaswani"}, "NeurIPS", intPtr(2017), []string{}, "body", created, created,
		))

	n, err := NewNoteRepo(db).Create(context.Background(), models.NoteInput{
		Title: "Attention", Authors: []string{"Vaswani"}, Publication: "NeurIPS", Year: intPtr(2017), Content: "body",
	})
	require.NoError(t, err)
	assert.Equal(t, "n-1", n.ID)
	assert.Equal(t, []string{"Vaswani"}, n.Authors)
	require.NotNil(t, n.Year)
	assert.Equal(t, 2017, *n.Year)
	assert.Equal(t, created, n.CreatedAt)
}

func TestNoteRepoGetMissingIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM notes WHERE id=$1")).
		WithArgs("nope").
		WillReturnRows(mock.NewRows(noteCols))

	_, err := NewNoteRepo(db).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestNoteRepoGetWrapsQueryError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM notes WHERE id=$1")).
		WithArgs("n-1").
		WillReturnError(errors.New("conn reset"))

	_, err := NewNoteRepo(db).Get(context.Background(), "n-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoteNotFound)
	assert.Contains(t, err.Error(), "get note")
}

func TestNoteRepoUpdateMissingIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE notes")).
		WithArgs("n-9", "T", []string{}, "", (*int)(nil), []string{}, "c").
		WillReturnRows(mock.NewRows(noteCols))

	_, err := NewNoteRepo(db).Update(context.Background(), "n-9", models.NoteInput{Title: "T", Content: "c"})
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestNoteRepoDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNoteRepo(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notes WHERE id=$1")).
		WithArgs("n-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notes WHERE id=$1")).
		WithArgs("n-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.Delete(context.Background(), "n-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "n-1"), ErrNoteNotFound)
}

func TestNoteRepoListPassesLimitThenOffset(t *testing.T) {
	db, mock := newMockDB(t)
	t1 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	t0 := t1.Add(-time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $1 OFFSET $2")).
		WithArgs(5, 10).
		WillReturnRows(mock.NewRows(noteCols).
			AddRow("n-2", "Second", []string{}, "", nil, []string{"rl"}, "b", t1, t1).
			AddRow("n-1", "First", []string{}, "", nil, []string{}, "a", t0, t0))

	out, err := NewNoteRepo(db).List(context.Background(), 5, 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "n-2", out[0].ID)
	assert.Equal(t, []string{"rl"}, out[0].Keywords)
	assert.Nil(t, out[0].Year)
	assert.Equal(t, "n-1", out[1].ID)
}

func TestNoteRepoListDefaultsLimit(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $1 OFFSET $2")).
		WithArgs(50, 0).
		WillReturnRows(mock.NewRows(noteCols))

	out, err := NewNoteRepo(db).List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestNoteRepoListByIDsSkipsQueryWhenEmpty(t *testing.T) {
	db, _ := newMockDB(t)
	out, err := NewNoteRepo(db).ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNoteRepoListIDs(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id::text FROM notes ORDER BY created_at ASC")).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow("a").AddRow("b"))

	ids, err := NewNoteRepo(db).ListIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestEmbeddingRepoCountByNote(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM note_embeddings WHERE note_id=$1")).
		WithArgs("n-1").
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(3))

	n, err := NewEmbeddingRepo(db).CountByNote(context.Background(), "n-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestEmbeddingRepoInsertOrdersArgs(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO note_embeddings")).
		WithArgs("n-1", 2, "chunk", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := NewEmbeddingRepo(db).Insert(context.Background(), models.EmbeddingRecord{
		NoteID: "n-1", ChunkIndex: 2, Content: "chunk", Embedding: []float32{0.1, 0.2},
	})
	require.NoError(t, err)
}

func TestGenerationLogRepoRecent(t *testing.T) {
	db, mock := newMockDB(t)
	at := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM generation_calls")).
		WithArgs(2).
		WillReturnRows(mock.NewRows([]string{"call_id", "operation", "provider", "model", "status", "error_type", "attempts", "duration_ms", "created_at"}).
			AddRow("c-2", "text", "openai", "gpt-4o-mini", "failed", "rate_limit", 3, int64(1200), at).
			AddRow("c-1", "stream", "mock", "mock", "succeeded", "", 1, int64(5), at.Add(-time.Minute)))

	calls, err := NewGenerationLogRepo(db, nil).Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, "rate_limit", calls[0].ErrorType)
	assert.Equal(t, int64(1200), calls[0].DurationMS)
	assert.Equal(t, "c-1", calls[1].CallID)
}

func TestGenerationLogRepoRecordCallSwallowsInsertError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO generation_calls")).
		WithArgs("c-1", "text", "mock", "mock", "succeeded", "", 1, int64(20)).
		WillReturnError(errors.New("db down"))

	NewGenerationLogRepo(db, nil).RecordCall(context.Background(), ai.CallRecord{
		CallID: "c-1", Operation: "text", Provider: "mock", Model: "mock", Status: "succeeded", Attempts: 1, Duration: 20 * time.Millisecond,
	})
}
