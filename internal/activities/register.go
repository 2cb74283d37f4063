package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.GetNoteActivity)
	w.RegisterActivity(a.DeleteEmbeddingsActivity)
	w.RegisterActivity(a.ChunkNoteActivity)
	w.RegisterActivity(a.EmbedChunkActivity)
	w.RegisterActivity(a.ListNoteIDsActivity)
}
