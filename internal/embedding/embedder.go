package embedding

import (
	"context"
	"fmt"
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Dimension is the vector length every Embed call must return.
	Dimension() int
	Model() string
}

// EmbeddingFormatError reports a vector whose length differs from the
// embedder's declared dimension. It is fatal for the affected chunk only.
type EmbeddingFormatError struct {
	Expected int
	Got      int
}

func (e *EmbeddingFormatError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

// CheckDimension returns an *EmbeddingFormatError when len(vec) != want.
func CheckDimension(vec []float32, want int) error {
	if len(vec) != want {
		return &EmbeddingFormatError{Expected: want, Got: len(vec)}
	}
	return nil
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
