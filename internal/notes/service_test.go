package notes

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"litnotes/internal/embedding"
	"litnotes/internal/models"
	"litnotes/internal/providers"
	"litnotes/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type memNotes struct {
	mu    sync.Mutex
	notes map[string]models.Note
	clock time.Time
}

func newMemNotes() *memNotes {
	return &memNotes{notes: map[string]models.Note{}, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memNotes) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memNotes) Create(_ context.Context, in models.NoteInput) (models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tick()
	n := models.Note{
		ID: uuid.NewString(), Title: in.Title, Authors: in.Authors, Publication: in.Publication,
		Year: in.Year, Keywords: in.Keywords, Content: in.Content, CreatedAt: now, UpdatedAt: now,
	}
	m.notes[n.ID] = n
	return n, nil
}

func (m *memNotes) Get(_ context.Context, id string) (models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return models.Note{}, storage.ErrNoteNotFound
	}
	return n, nil
}

func (m *memNotes) Update(_ context.Context, id string, in models.NoteInput) (models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return models.Note{}, storage.ErrNoteNotFound
	}
	n.Title, n.Authors, n.Publication, n.Year, n.Keywords, n.Content = in.Title, in.Authors, in.Publication, in.Year, in.Keywords, in.Content
	n.UpdatedAt = m.tick()
	m.notes[id] = n
	return n, nil
}

func (m *memNotes) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[id]; !ok {
		return storage.ErrNoteNotFound
	}
	delete(m.notes, id)
	return nil
}

func (m *memNotes) List(_ context.Context, limit, offset int) ([]models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Note, 0, len(m.notes))
	for _, n := range m.notes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []models.Note{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memNotes) ListByIDs(_ context.Context, ids []string) ([]models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Note, 0, len(ids))
	for _, id := range ids {
		if n, ok := m.notes[id]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

type stubIndexer struct {
	calls   []string
	warning string
	err     error
}

func (s *stubIndexer) Index(_ context.Context, noteID, _ string) (string, error) {
	s.calls = append(s.calls, noteID)
	return s.warning, s.err
}

type stubSearcher struct {
	matches []models.ChunkMatch
	gotVec  []float32
	gotArgs []any
}

func (s *stubSearcher) SearchChunks(_ context.Context, vec []float32, threshold float64, count int) ([]models.ChunkMatch, error) {
	s.gotVec = vec
	s.gotArgs = []any{threshold, count}
	return s.matches, nil
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateText(ctx context.Context, prompt string, opts *providers.GenerateOptions) (string, error) {
	args := m.Called(ctx, prompt, opts)
	return args.String(0), args.Error(1)
}

func TestCreateNormalizesAndIndexes(t *testing.T) {
	store := newMemNotes()
	idx := &stubIndexer{}
	svc := NewService(Deps{Notes: store, Indexer: idx}, SearchConfig{})

	res, err := svc.Create(context.Background(), models.NoteInput{
		Title:    "  Attention Is All You Need ",
		Authors:  []string{"Vaswani", " ", "Vaswani", "Shazeer"},
		Keywords: nil,
		Content:  "transformer\x00 body",
	})
	require.NoError(t, err)
	assert.Equal(t, "Attention Is All You Need", res.Note.Title)
	assert.Equal(t, []string{"Vaswani", "Shazeer"}, res.Note.Authors)
	assert.Equal(t, []string{}, res.Note.Keywords)
	assert.Equal(t, "transformer body", res.Note.Content)
	assert.Empty(t, res.IndexWarning)
	assert.Equal(t, []string{res.Note.ID}, idx.calls)
}

func TestCreateRequiresTitle(t *testing.T) {
	svc := NewService(Deps{Notes: newMemNotes()}, SearchConfig{})
	_, err := svc.Create(context.Background(), models.NoteInput{Title: "   "})
	assert.ErrorIs(t, err, ErrInvalidNote)
}

func TestSaveSurvivesIndexFailure(t *testing.T) {
	store := newMemNotes()
	idx := &stubIndexer{err: errors.New("embedding API error: 503")}
	svc := NewService(Deps{Notes: store, Indexer: idx}, SearchConfig{})

	res, err := svc.Create(context.Background(), models.NoteInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.IndexWarning)

	got, err := svc.Get(context.Background(), res.Note.ID)
	require.NoError(t, err)
	assert.Equal(t, "t", got.Title)
}

func TestUpdatePassesThroughDegradedWarning(t *testing.T) {
	store := newMemNotes()
	idx := &stubIndexer{}
	svc := NewService(Deps{Notes: store, Indexer: idx}, SearchConfig{})
	res, err := svc.Create(context.Background(), models.NoteInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	idx.warning = "note saved, but 1 of 2 chunks could not be indexed"
	upd, err := svc.Update(context.Background(), res.Note.ID, models.NoteInput{Title: "t2", Content: "c2"})
	require.NoError(t, err)
	assert.Equal(t, "t2", upd.Note.Title)
	assert.Equal(t, idx.warning, upd.IndexWarning)
	assert.Len(t, idx.calls, 2)
}

func TestUnknownAndMalformedIDsAreNotFound(t *testing.T) {
	svc := NewService(Deps{Notes: newMemNotes()}, SearchConfig{})
	_, err := svc.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, storage.ErrNoteNotFound)
	_, err = svc.Update(context.Background(), uuid.NewString(), models.NoteInput{Title: "x"})
	assert.ErrorIs(t, err, storage.ErrNoteNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), uuid.NewString()), storage.ErrNoteNotFound)
}

func TestListNewestFirst(t *testing.T) {
	svc := NewService(Deps{Notes: newMemNotes()}, SearchConfig{})
	for _, title := range []string{"first", "second", "third"} {
		_, err := svc.Create(context.Background(), models.NoteInput{Title: title})
		require.NoError(t, err)
	}
	list, err := svc.List(context.Background(), 2, -5)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "third", list[0].Title)
	assert.Equal(t, "second", list[1].Title)
}

func TestSearchGroupsByNote(t *testing.T) {
	store := newMemNotes()
	svc0 := NewService(Deps{Notes: store}, SearchConfig{})
	a, err := svc0.Create(context.Background(), models.NoteInput{Title: "A"})
	require.NoError(t, err)
	b, err := svc0.Create(context.Background(), models.NoteInput{Title: "B"})
	require.NoError(t, err)

	searcher := &stubSearcher{matches: []models.ChunkMatch{
		{NoteID: a.Note.ID, ChunkIndex: 0, Content: "weak match about graphs.", Similarity: 0.41},
		{NoteID: b.Note.ID, ChunkIndex: 3, Content: "Graph neural networks scale well.", Similarity: 0.62},
		{NoteID: a.Note.ID, ChunkIndex: 1, Content: "Graph attention improves accuracy.", Similarity: 0.77},
		{NoteID: uuid.NewString(), ChunkIndex: 0, Content: "orphan", Similarity: 0.99},
	}}
	pipeline := embedding.NewPipeline(nil, embedding.NewHashEmbedder(8), embedding.PipelineConfig{})
	svc := NewService(Deps{Notes: store, Embedder: pipeline, Searcher: searcher}, SearchConfig{Threshold: 0.3})

	results, err := svc.Search(context.Background(), "  graph attention ")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].Title)
	assert.InDelta(t, 0.77, results[0].Similarity, 1e-9)
	assert.Contains(t, results[0].Snippet, "Graph attention")
	assert.Equal(t, "B", results[1].Title)

	assert.Len(t, searcher.gotVec, 8)
	assert.Equal(t, []any{0.3, 20}, searcher.gotArgs)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	svc := NewService(Deps{Notes: newMemNotes()}, SearchConfig{})
	_, err := svc.Search(context.Background(), " \t")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearchNoMatches(t *testing.T) {
	pipeline := embedding.NewPipeline(nil, embedding.NewHashEmbedder(8), embedding.PipelineConfig{})
	svc := NewService(Deps{Notes: newMemNotes(), Embedder: pipeline, Searcher: &stubSearcher{}}, SearchConfig{})
	results, err := svc.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSummarizeBuildsPromptFromNotes(t *testing.T) {
	store := newMemNotes()
	gen := &mockGenerator{}
	svc := NewService(Deps{Notes: store, Generator: gen}, SearchConfig{})
	year := 2017
	n, err := svc.Create(context.Background(), models.NoteInput{
		Title: "Attention", Authors: []string{"Vaswani"}, Year: &year, Keywords: []string{"nlp"}, Content: "Self-attention only.",
	})
	require.NoError(t, err)

	gen.On("GenerateText", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.HasPrefix(p, "Question: why attention?") &&
			strings.Contains(p, "[1] Attention (Vaswani, 2017)") &&
			strings.Contains(p, "Keywords: nlp") &&
			strings.Contains(p, "Self-attention only.")
	}), mock.MatchedBy(func(o *providers.GenerateOptions) bool {
		return o != nil && o.SystemPrompt == summarizerPrompt && o.MaxTokensValue() == 300
	})).Return("summary text", nil).Once()

	sum, err := svc.Summarize(context.Background(), SummarizeRequest{
		Query:   "why attention?",
		NoteIDs: []string{n.Note.ID},
		Options: &providers.GenerateOptions{MaxTokens: providers.Int(300)},
	})
	require.NoError(t, err)
	assert.Equal(t, "summary text", sum.Text)
	assert.Equal(t, []string{n.Note.ID}, sum.Notes)
	gen.AssertExpectations(t)
}

func TestSummarizeValidatesSelection(t *testing.T) {
	gen := &mockGenerator{}
	svc := NewService(Deps{Notes: newMemNotes(), Generator: gen}, SearchConfig{})

	_, err := svc.Summarize(context.Background(), SummarizeRequest{})
	assert.ErrorIs(t, err, ErrNoNotes)

	_, err = svc.Summarize(context.Background(), SummarizeRequest{NoteIDs: []string{uuid.NewString()}})
	assert.ErrorIs(t, err, ErrNoNotes)

	_, err = svc.Summarize(context.Background(), SummarizeRequest{NoteIDs: []string{"bogus"}})
	assert.ErrorIs(t, err, storage.ErrNoteNotFound)
	gen.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything, mock.Anything)
}

func TestSummarizePropagatesGenerationError(t *testing.T) {
	store := newMemNotes()
	gen := &mockGenerator{}
	svc := NewService(Deps{Notes: store, Generator: gen}, SearchConfig{})
	n, err := svc.Create(context.Background(), models.NoteInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	boom := errors.New("Failed to generate text: openai API error: 401 Unauthorized")
	gen.On("GenerateText", mock.Anything, mock.Anything, mock.Anything).Return("", boom)

	_, err = svc.Summarize(context.Background(), SummarizeRequest{NoteIDs: []string{n.Note.ID}})
	assert.ErrorIs(t, err, boom)
}

func TestInlineIndexerReturnsReportWarning(t *testing.T) {
	store := &failingEmbedStore{}
	p := embedding.NewPipeline(store, embedding.NewHashEmbedder(4), embedding.PipelineConfig{ChunkSize: 4, ChunkOverlap: 0})
	warning, err := InlineIndexer{Pipeline: p}.Index(context.Background(), "n1", "abcdefgh")
	require.NoError(t, err)
	assert.Contains(t, warning, "2 of 2 chunks")
}

type failingEmbedStore struct{}

func (failingEmbedStore) DeleteByNote(context.Context, string) error { return nil }
func (failingEmbedStore) Insert(context.Context, models.EmbeddingRecord) error {
	return errors.New("insert failed")
}

type memEmbeddings struct {
	mu   sync.Mutex
	rows map[string]int
}

func (m *memEmbeddings) DeleteByNote(_ context.Context, noteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, noteID)
	return nil
}

func (m *memEmbeddings) Insert(_ context.Context, rec models.EmbeddingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[rec.NoteID]++
	return nil
}

func (m *memEmbeddings) CountByNote(_ context.Context, noteID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[noteID], nil
}

func TestIndexStatusCountsStoredChunks(t *testing.T) {
	emb := &memEmbeddings{rows: map[string]int{}}
	p := embedding.NewPipeline(emb, embedding.NewHashEmbedder(4), embedding.PipelineConfig{ChunkSize: 10, ChunkOverlap: 0})
	svc := NewService(Deps{Notes: newMemNotes(), Indexer: InlineIndexer{Pipeline: p}, Chunks: emb}, SearchConfig{})

	res, err := svc.Create(context.Background(), models.NoteInput{Title: "Chunks", Content: strings.Repeat("x", 25)})
	require.NoError(t, err)

	st, err := svc.IndexStatus(context.Background(), res.Note.ID)
	require.NoError(t, err)
	assert.Equal(t, IndexStatus{NoteID: res.Note.ID, Chunks: 3}, st)

	_, err = svc.IndexStatus(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, storage.ErrNoteNotFound)
}
