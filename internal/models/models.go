package models

import "time"

type Note struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Authors     []string  `json:"authors"`
	Publication string    `json:"publication,omitempty"`
	Year        *int      `json:"year,omitempty"`
	Keywords    []string  `json:"keywords"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NoteInput is the writable part of a note.
type NoteInput struct {
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Publication string   `json:"publication"`
	Year        *int     `json:"year"`
	Keywords    []string `json:"keywords"`
	Content     string   `json:"content"`
}

type EmbeddingRecord struct {
	NoteID     string    `json:"note_id"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content_chunk"`
	Embedding  []float32 `json:"-"`
}

// ChunkMatch is one row of the similarity query.
type ChunkMatch struct {
	NoteID     string  `json:"note_id"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content_chunk"`
	Similarity float64 `json:"similarity"`
}

type SearchResult struct {
	NoteID     string    `json:"note_id"`
	Title      string    `json:"title"`
	Authors    []string  `json:"authors"`
	Year       *int      `json:"year,omitempty"`
	Snippet    string    `json:"snippet"`
	Similarity float64   `json:"similarity"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type GenerationCall struct {
	CallID     string    `json:"call_id"`
	Operation  string    `json:"operation"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	Status     string    `json:"status"`
	ErrorType  string    `json:"error_type,omitempty"`
	Attempts   int       `json:"attempts"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
