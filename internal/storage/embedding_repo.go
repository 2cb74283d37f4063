package storage

import (
	"context"
	"fmt"

	"litnotes/internal/models"

	"github.com/pgvector/pgvector-go"
)

type EmbeddingRepo struct {
	db *DB
}

func NewEmbeddingRepo(db *DB) *EmbeddingRepo {
	return &EmbeddingRepo{db: db}
}

func (r *EmbeddingRepo) DeleteByNote(ctx context.Context, noteID string) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM note_embeddings WHERE note_id=$1`, noteID); err != nil {
		return fmt.Errorf("delete note embeddings: %w", err)
	}
	return nil
}

func (r *EmbeddingRepo) Insert(ctx context.Context, rec models.EmbeddingRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO note_embeddings (note_id, chunk_index, content_chunk, embedding)
VALUES ($1, $2, $3, $4::vector)`,
		rec.NoteID, rec.ChunkIndex, rec.Content, pgvector.NewVector(rec.Embedding),
	)
	if err != nil {
		return fmt.Errorf("insert embedding chunk %d: %w", rec.ChunkIndex, err)
	}
	return nil
}

func (r *EmbeddingRepo) CountByNote(ctx context.Context, noteID string) (int, error) {
	var n int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM note_embeddings WHERE note_id=$1`, noteID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count note embeddings: %w", err)
	}
	return n, nil
}
