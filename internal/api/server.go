package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"litnotes/internal/models"
	"litnotes/internal/notes"
	"litnotes/internal/providers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type NoteService interface {
	Create(ctx context.Context, in models.NoteInput) (notes.SaveResult, error)
	Get(ctx context.Context, id string) (models.Note, error)
	Update(ctx context.Context, id string, in models.NoteInput) (notes.SaveResult, error)
	Delete(ctx context.Context, id string) error
	IndexStatus(ctx context.Context, id string) (notes.IndexStatus, error)
	List(ctx context.Context, limit, offset int) ([]models.Note, error)
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
	Summarize(ctx context.Context, req notes.SummarizeRequest) (notes.Summary, error)
	ImportPDF(ctx context.Context, filename string, r io.ReaderAt, size int64, meta models.NoteInput) (notes.SaveResult, error)
}

type GenerationService interface {
	GenerateText(ctx context.Context, prompt string, opts *providers.GenerateOptions) (string, error)
	GenerateStream(ctx context.Context, prompt string, opts *providers.GenerateOptions) (providers.Stream, error)
	AvailableProviders() []string
	CurrentProvider() string
	SetProvider(name string) error
}

type Backfiller interface {
	StartBackfill(ctx context.Context) (workflowID, runID string, err error)
}

// CallLog lists recent generation calls.
type CallLog interface {
	Recent(ctx context.Context, limit int) ([]models.GenerationCall, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Notes      NoteService
	Generation GenerationService
	// Backfiller is nil when indexing runs inline.
	Backfiller Backfiller
	// CallLog is nil when generation calls are not persisted.
	CallLog CallLog
	DB      Pinger
	Logger  *zap.Logger
}

type Server struct {
	notes      NoteService
	gen        GenerationService
	backfiller Backfiller
	callLog    CallLog
	db         Pinger
	logger     *zap.Logger
}

func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		notes:      deps.Notes,
		gen:        deps.Generation,
		backfiller: deps.Backfiller,
		callLog:    deps.CallLog,
		db:         deps.DB,
		logger:     logger,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.Use(withCORS)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/notes", func(r chi.Router) {
			r.Get("/", s.handleListNotes)
			r.Post("/", s.handleCreateNote)
			r.Post("/import", s.handleImportPDF)
			r.Post("/backfill", s.handleBackfill)
			r.Get("/{id}", s.handleGetNote)
			r.Put("/{id}", s.handleUpdateNote)
			r.Delete("/{id}", s.handleDeleteNote)
			r.Get("/{id}/index", s.handleIndexStatus)
		})
		r.Get("/search", s.handleSearch)
		r.Route("/ai", func(r chi.Router) {
			r.Get("/providers", s.handleListProviders)
			r.Put("/provider", s.handleSetProvider)
			r.Post("/generate", s.handleGenerate)
			r.Post("/stream", s.handleStream)
			r.Post("/summarize", s.handleSummarize)
			r.Get("/calls", s.handleRecentCalls)
		})
	})
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			writeErr(w, http.StatusServiceUnavailable, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
