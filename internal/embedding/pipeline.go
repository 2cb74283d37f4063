package embedding

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"litnotes/internal/metrics"
	"litnotes/internal/models"
	"litnotes/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Store persists embedding records for a note.
type Store interface {
	// DeleteByNote removes every record of the note. Deleting nothing is not an error.
	DeleteByNote(ctx context.Context, noteID string) error
	Insert(ctx context.Context, rec models.EmbeddingRecord) error
}

type PipelineConfig struct {
	ChunkSize    int
	ChunkOverlap int
	// Concurrency above 1 embeds chunks in parallel with that many in flight.
	Concurrency int
	Logger      *zap.Logger
}

// Pipeline rebuilds the embedding records of a note from its content.
type Pipeline struct {
	store    Store
	embedder Embedder
	size     int
	overlap  int
	workers  int
	logger   *zap.Logger
	locks    *noteLocks
}

func NewPipeline(store Store, embedder Embedder, cfg PipelineConfig) *Pipeline {
	p := &Pipeline{
		store:    store,
		embedder: embedder,
		size:     cfg.ChunkSize,
		overlap:  cfg.ChunkOverlap,
		workers:  cfg.Concurrency,
		logger:   cfg.Logger,
		locks:    newNoteLocks(),
	}
	if p.size == 0 {
		p.size = util.DefaultChunkSize
		p.overlap = util.DefaultChunkOverlap
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// ChunkFailure attributes an embedding or persistence failure to one chunk.
type ChunkFailure struct {
	ChunkIndex int    `json:"chunk_index"`
	Start      int    `json:"start"`
	Error      string `json:"error"`
	err        error
}

// Cause is the underlying error; it is not serialised.
func (f ChunkFailure) Cause() error { return f.err }

type IndexReport struct {
	NoteID   string         `json:"note_id"`
	Chunks   int            `json:"chunks"`
	Stored   int            `json:"stored"`
	Failures []ChunkFailure `json:"failures,omitempty"`
	// Superseded is set when a newer re-index of the same note was queued
	// behind this one; nothing was written.
	Superseded bool `json:"superseded,omitempty"`
}

// Degraded reports whether any chunk failed. The note itself is still saved.
func (r IndexReport) Degraded() bool { return len(r.Failures) > 0 }

// Warning is the user-facing message for a degraded report, empty otherwise.
func (r IndexReport) Warning() string {
	if !r.Degraded() {
		return ""
	}
	return fmt.Sprintf("note saved, but %d of %d chunks could not be indexed; search may miss this note", len(r.Failures), r.Chunks)
}

// Chunks splits content with the pipeline's window settings. Blank content
// has no chunks.
func (p *Pipeline) Chunks(content string) ([]util.TextChunk, error) {
	if strings.TrimSpace(content) == "" {
		return []util.TextChunk{}, nil
	}
	return util.ChunkText(content, p.size, p.overlap)
}

// EmbedChunk embeds one chunk and validates the vector length.
func (p *Pipeline) EmbedChunk(ctx context.Context, noteID string, index int, chunk util.TextChunk) (models.EmbeddingRecord, error) {
	vec, err := p.embedder.Embed(ctx, chunk.Content)
	if err != nil {
		return models.EmbeddingRecord{}, err
	}
	if err := CheckDimension(vec, p.embedder.Dimension()); err != nil {
		return models.EmbeddingRecord{}, err
	}
	return models.EmbeddingRecord{
		NoteID:     noteID,
		ChunkIndex: index,
		Content:    chunk.Content,
		Embedding:  vec,
	}, nil
}

// EmbedQuery embeds a search query with the same embedder as the notes.
func (p *Pipeline) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vec, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if err := CheckDimension(vec, p.embedder.Dimension()); err != nil {
		return nil, err
	}
	return vec, nil
}

// Reindex deletes the note's records and stores a fresh one per chunk.
// Chunk failures are collected in the report and do not stop the run; only
// the initial delete, bad chunk settings or cancellation return an error.
//
// Runs for the same note never overlap. When several are queued only the
// most recent one writes; the others return a Superseded report.
func (p *Pipeline) Reindex(ctx context.Context, noteID, content string) (IndexReport, error) {
	report := IndexReport{NoteID: noteID}
	superseded, release := p.locks.acquire(noteID)
	defer release()
	if superseded {
		p.logger.Debug("reindex superseded by a newer save", zap.String("note_id", noteID))
		report.Superseded = true
		return report, nil
	}
	if err := p.store.DeleteByNote(ctx, noteID); err != nil {
		return report, fmt.Errorf("delete embeddings for note %s: %w", noteID, err)
	}
	chunks, err := p.Chunks(content)
	if err != nil {
		return report, err
	}
	report.Chunks = len(chunks)

	var mu sync.Mutex
	process := func(ctx context.Context, i int) {
		rec, err := p.EmbedChunk(ctx, noteID, i, chunks[i])
		if err == nil {
			err = p.store.Insert(ctx, rec)
		}
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			metrics.EmbeddingChunks.WithLabelValues("failed").Inc()
			p.logger.Warn("chunk indexing failed",
				zap.String("note_id", noteID),
				zap.Int("chunk", i),
				zap.Int("chunks", len(chunks)),
				zap.Error(err),
			)
			report.Failures = append(report.Failures, ChunkFailure{
				ChunkIndex: i,
				Start:      chunks[i].Start,
				Error:      err.Error(),
				err:        err,
			})
			return
		}
		metrics.EmbeddingChunks.WithLabelValues("stored").Inc()
		report.Stored++
	}

	if p.workers <= 1 {
		for i := range chunks {
			if ctx.Err() != nil {
				break
			}
			process(ctx, i)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.workers)
		for i := range chunks {
			i := i
			g.Go(func() error {
				process(gctx, i)
				return nil
			})
		}
		_ = g.Wait()
		sort.Slice(report.Failures, func(i, j int) bool {
			return report.Failures[i].ChunkIndex < report.Failures[j].ChunkIndex
		})
	}
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("reindex note %s: %w", noteID, err)
	}

	p.logger.Info("note indexed",
		zap.String("note_id", noteID),
		zap.Int("chunks", report.Chunks),
		zap.Int("stored", report.Stored),
		zap.Int("failed", len(report.Failures)),
	)
	return report, nil
}
