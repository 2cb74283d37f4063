package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"litnotes/internal/embedding"
	"litnotes/internal/metrics"
	"litnotes/internal/models"
	"litnotes/internal/providers"
	"litnotes/internal/storage"
	"litnotes/internal/util"
	"litnotes/internal/vector"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidNote = errors.New("invalid note")
	ErrEmptyQuery  = errors.New("search query is empty")
)

const snippetRunes = 320

type NoteStore interface {
	Create(ctx context.Context, in models.NoteInput) (models.Note, error)
	Get(ctx context.Context, id string) (models.Note, error)
	Update(ctx context.Context, id string, in models.NoteInput) (models.Note, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]models.Note, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Note, error)
}

// Indexer refreshes the embeddings of a saved note. The returned warning is
// non-empty when indexing completed only partially.
type Indexer interface {
	Index(ctx context.Context, noteID, content string) (warning string, err error)
}

type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

type ChunkSearcher interface {
	SearchChunks(ctx context.Context, queryVec []float32, threshold float64, matchCount int) ([]models.ChunkMatch, error)
}

// ChunkCounter reports how many embedding records a note has.
type ChunkCounter interface {
	CountByNote(ctx context.Context, noteID string) (int, error)
}

type Generator interface {
	GenerateText(ctx context.Context, prompt string, opts *providers.GenerateOptions) (string, error)
}

type Deps struct {
	Notes     NoteStore
	Indexer   Indexer
	Embedder  QueryEmbedder
	Searcher  ChunkSearcher
	Generator Generator
	Chunks    ChunkCounter
	Logger    *zap.Logger
}

type SearchConfig struct {
	Threshold  float64
	MatchCount int
	Limit      int
}

type Service struct {
	notes     NoteStore
	indexer   Indexer
	embedder  QueryEmbedder
	searcher  ChunkSearcher
	generator Generator
	chunks    ChunkCounter
	search    SearchConfig
	logger    *zap.Logger
}

func NewService(deps Deps, search SearchConfig) *Service {
	if search.MatchCount <= 0 {
		search.MatchCount = vector.DefaultMatchCount
	}
	if search.Limit <= 0 {
		search.Limit = vector.DefaultLimit
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		notes:     deps.Notes,
		indexer:   deps.Indexer,
		embedder:  deps.Embedder,
		searcher:  deps.Searcher,
		generator: deps.Generator,
		chunks:    deps.Chunks,
		search:    search,
		logger:    logger,
	}
}

// SaveResult is a stored note plus any indexing problem. A warning never
// means the note itself was lost.
type SaveResult struct {
	Note         models.Note `json:"note"`
	IndexWarning string      `json:"index_warning,omitempty"`
}

func normalizeInput(in models.NoteInput) (models.NoteInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, fmt.Errorf("%w: title is required", ErrInvalidNote)
	}
	if in.Year != nil && (*in.Year < 0 || *in.Year > 9999) {
		return in, fmt.Errorf("%w: year %d out of range", ErrInvalidNote, *in.Year)
	}
	in.Authors = cleanList(in.Authors)
	in.Keywords = cleanList(in.Keywords)
	in.Publication = strings.TrimSpace(in.Publication)
	in.Content = util.SanitizeText(in.Content)
	return in, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return storage.ErrNoteNotFound
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in models.NoteInput) (SaveResult, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return SaveResult{}, err
	}
	n, err := s.notes.Create(ctx, in)
	if err != nil {
		return SaveResult{}, err
	}
	return SaveResult{Note: n, IndexWarning: s.index(ctx, n)}, nil
}

func (s *Service) Update(ctx context.Context, id string, in models.NoteInput) (SaveResult, error) {
	if err := validID(id); err != nil {
		return SaveResult{}, err
	}
	in, err := normalizeInput(in)
	if err != nil {
		return SaveResult{}, err
	}
	n, err := s.notes.Update(ctx, id, in)
	if err != nil {
		return SaveResult{}, err
	}
	return SaveResult{Note: n, IndexWarning: s.index(ctx, n)}, nil
}

// index never fails the save; problems are degraded to a warning.
func (s *Service) index(ctx context.Context, n models.Note) string {
	if s.indexer == nil {
		return ""
	}
	warning, err := s.indexer.Index(ctx, n.ID, n.Content)
	if err != nil {
		s.logger.Error("note indexing failed", zap.String("note_id", n.ID), zap.Error(err))
		return "note saved, but indexing failed; search may miss this note"
	}
	if warning != "" {
		s.logger.Warn("note indexing degraded", zap.String("note_id", n.ID), zap.String("warning", warning))
	}
	return warning
}

func (s *Service) Get(ctx context.Context, id string) (models.Note, error) {
	if err := validID(id); err != nil {
		return models.Note{}, err
	}
	return s.notes.Get(ctx, id)
}

// IndexStatus is how much of a note is currently searchable.
type IndexStatus struct {
	NoteID string `json:"note_id"`
	Chunks int    `json:"chunks"`
}

// IndexStatus counts the stored embedding records of a note. Zero right after
// a save usually means re-indexing is still running in the worker.
func (s *Service) IndexStatus(ctx context.Context, id string) (IndexStatus, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return IndexStatus{}, err
	}
	if s.chunks == nil {
		return IndexStatus{}, errors.New("index status is not available")
	}
	count, err := s.chunks.CountByNote(ctx, n.ID)
	if err != nil {
		return IndexStatus{}, err
	}
	return IndexStatus{NoteID: n.ID, Chunks: count}, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	return s.notes.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]models.Note, error) {
	if offset < 0 {
		offset = 0
	}
	return s.notes.List(ctx, limit, offset)
}

// Search embeds query, finds matching chunks and returns the best chunk of
// each note, most similar first.
func (s *Service) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	out, err := s.runSearch(ctx, query)
	status := "ok"
	if err != nil {
		status = "failed"
	}
	metrics.SearchRequests.WithLabelValues(status).Inc()
	return out, err
}

func (s *Service) runSearch(ctx context.Context, query string) ([]models.SearchResult, error) {
	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	matches, err := s.searcher.SearchChunks(ctx, vec, s.search.Threshold, s.search.MatchCount)
	if err != nil {
		return nil, err
	}
	best := vector.BestPerNote(matches, s.search.Limit)
	if len(best) == 0 {
		return []models.SearchResult{}, nil
	}

	ids := make([]string, 0, len(best))
	for _, m := range best {
		ids = append(ids, m.NoteID)
	}
	found, err := s.notes.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Note, len(found))
	for _, n := range found {
		byID[n.ID] = n
	}

	out := make([]models.SearchResult, 0, len(best))
	for _, m := range best {
		n, ok := byID[m.NoteID]
		if !ok {
			// deleted between the similarity query and the lookup
			continue
		}
		out = append(out, models.SearchResult{
			NoteID:     n.ID,
			Title:      n.Title,
			Authors:    n.Authors,
			Year:       n.Year,
			Snippet:    util.Snippet(m.Content, query, snippetRunes),
			Similarity: m.Similarity,
			UpdatedAt:  n.UpdatedAt,
		})
	}
	return out, nil
}

// InlineIndexer runs the embedding pipeline in the request path.
type InlineIndexer struct {
	Pipeline *embedding.Pipeline
}

func (i InlineIndexer) Index(ctx context.Context, noteID, content string) (string, error) {
	report, err := i.Pipeline.Reindex(ctx, noteID, content)
	if err != nil {
		return "", err
	}
	return report.Warning(), nil
}
