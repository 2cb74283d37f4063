package activities

import "litnotes/internal/util"

type GetNoteInput struct {
	NoteID string `json:"note_id"`
}

type GetNoteOutput struct {
	NoteID  string `json:"note_id"`
	Content string `json:"content"`
	Found   bool   `json:"found"`
}

type DeleteEmbeddingsInput struct {
	NoteID string `json:"note_id"`
}

type ChunkNoteInput struct {
	Content string `json:"content"`
}

type ChunkNoteOutput struct {
	Chunks []util.TextChunk `json:"chunks"`
}

type EmbedChunkInput struct {
	NoteID     string         `json:"note_id"`
	ChunkIndex int            `json:"chunk_index"`
	Chunk      util.TextChunk `json:"chunk"`
}

type ListNoteIDsOutput struct {
	NoteIDs []string `json:"note_ids"`
}
