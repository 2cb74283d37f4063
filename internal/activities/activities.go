package activities

import (
	"context"
	"errors"
	"fmt"

	"litnotes/internal/embedding"
	"litnotes/internal/models"
	"litnotes/internal/storage"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"
)

const ErrTypeEmbeddingFormat = "EmbeddingFormatError"

type NoteReader interface {
	Get(ctx context.Context, id string) (models.Note, error)
	ListIDs(ctx context.Context) ([]string, error)
}

// Activities are the re-index steps run by the worker. Each one maps onto a
// single step of the embedding pipeline so that Temporal retries them
// independently.
type Activities struct {
	notes    NoteReader
	store    embedding.Store
	pipeline *embedding.Pipeline
	logger   *zap.Logger
}

func New(notes NoteReader, store embedding.Store, pipeline *embedding.Pipeline, logger *zap.Logger) *Activities {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Activities{notes: notes, store: store, pipeline: pipeline, logger: logger}
}

func (a *Activities) GetNoteActivity(ctx context.Context, in GetNoteInput) (GetNoteOutput, error) {
	n, err := a.notes.Get(ctx, in.NoteID)
	if errors.Is(err, storage.ErrNoteNotFound) {
		return GetNoteOutput{NoteID: in.NoteID}, nil
	}
	if err != nil {
		return GetNoteOutput{}, err
	}
	return GetNoteOutput{NoteID: n.ID, Content: n.Content, Found: true}, nil
}

func (a *Activities) DeleteEmbeddingsActivity(ctx context.Context, in DeleteEmbeddingsInput) error {
	return a.store.DeleteByNote(ctx, in.NoteID)
}

func (a *Activities) ChunkNoteActivity(_ context.Context, in ChunkNoteInput) (ChunkNoteOutput, error) {
	chunks, err := a.pipeline.Chunks(in.Content)
	if err != nil {
		return ChunkNoteOutput{}, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidChunkParams", err)
	}
	return ChunkNoteOutput{Chunks: chunks}, nil
}

// EmbedChunkActivity embeds and stores one chunk. Vectors never leave the
// worker so workflow history stays small.
func (a *Activities) EmbedChunkActivity(ctx context.Context, in EmbedChunkInput) error {
	rec, err := a.pipeline.EmbedChunk(ctx, in.NoteID, in.ChunkIndex, in.Chunk)
	if err != nil {
		var fErr *embedding.EmbeddingFormatError
		if errors.As(err, &fErr) {
			return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeEmbeddingFormat, err)
		}
		a.logger.Warn("embed chunk failed", zap.String("note_id", in.NoteID), zap.Int("chunk", in.ChunkIndex), zap.Error(err))
		return fmt.Errorf("embed chunk %d: %w", in.ChunkIndex, err)
	}
	return a.store.Insert(ctx, rec)
}

func (a *Activities) ListNoteIDsActivity(ctx context.Context) (ListNoteIDsOutput, error) {
	ids, err := a.notes.ListIDs(ctx)
	if err != nil {
		return ListNoteIDsOutput{}, err
	}
	a.logger.Info("backfill listing", zap.Int("notes", len(ids)))
	return ListNoteIDsOutput{NoteIDs: ids}, nil
}
