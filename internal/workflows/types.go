package workflows

type NoteReindexInput struct {
	NoteID string `json:"note_id"`
	// ChunkConcurrency caps parallel embed activities; 0 or 1 runs them in order.
	ChunkConcurrency int `json:"chunk_concurrency,omitempty"`
}

type ChunkFailure struct {
	ChunkIndex int    `json:"chunk_index"`
	Error      string `json:"error"`
}

const (
	StatusIndexing = "indexing"
	StatusIndexed  = "indexed"
	StatusDegraded = "degraded"
	StatusMissing  = "missing"
	StatusFailed   = "failed"
	// StatusSuperseded marks a backfill child replaced by a newer re-index.
	StatusSuperseded = "superseded"
)

type NoteReindexResult struct {
	NoteID   string         `json:"note_id"`
	Status   string         `json:"status"`
	Chunks   int            `json:"chunks"`
	Stored   int            `json:"stored"`
	Failures []ChunkFailure `json:"failures,omitempty"`
}

type BackfillInput struct {
	MaxConcurrentChildren int `json:"max_concurrent_children"`
	ChunkConcurrency      int `json:"chunk_concurrency,omitempty"`
}

type BackfillProgress struct {
	Total      int               `json:"total"`
	Done       int               `json:"done"`
	Degraded   int               `json:"degraded"`
	Failed     int               `json:"failed"`
	Superseded int               `json:"superseded"`
	PerNote    map[string]string `json:"per_note"`
}
