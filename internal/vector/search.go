package vector

import (
	"context"
	"fmt"
	"sort"

	"litnotes/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

const (
	DefaultThreshold  = 0.3
	DefaultMatchCount = 20
	DefaultLimit      = 10
)

type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Searcher struct {
	q Queryer
}

func NewSearcher(q Queryer) *Searcher {
	return &Searcher{q: q}
}

const matchChunksSQL = `
SELECT note_id::text,
       chunk_index,
       content_chunk,
       1 - (embedding <=> $1::vector) AS similarity
FROM note_embeddings
WHERE 1 - (embedding <=> $1::vector) > $2
ORDER BY embedding <=> $1::vector, note_id, chunk_index
LIMIT $3`

// SearchChunks returns up to matchCount chunks whose cosine similarity to
// queryVec exceeds threshold, most similar first.
func (s *Searcher) SearchChunks(ctx context.Context, queryVec []float32, threshold float64, matchCount int) ([]models.ChunkMatch, error) {
	if matchCount <= 0 {
		matchCount = DefaultMatchCount
	}
	rows, err := s.q.Query(ctx, matchChunksSQL, pgvector.NewVector(queryVec), threshold, matchCount)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w", err)
	}
	defer rows.Close()

	out := make([]models.ChunkMatch, 0, matchCount)
	for rows.Next() {
		var m models.ChunkMatch
		if err := rows.Scan(&m.NoteID, &m.ChunkIndex, &m.Content, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scan chunk match: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return out, nil
}

// BestPerNote keeps the most similar chunk of each note, orders notes by that
// similarity and returns at most limit of them. Among equal similarities the
// chunk seen first wins, and notes keep their input order.
func BestPerNote(matches []models.ChunkMatch, limit int) []models.ChunkMatch {
	best := make(map[string]int, len(matches))
	out := make([]models.ChunkMatch, 0, len(matches))
	for _, m := range matches {
		i, ok := best[m.NoteID]
		if !ok {
			best[m.NoteID] = len(out)
			out = append(out, m)
			continue
		}
		if m.Similarity > out[i].Similarity {
			out[i] = m
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
