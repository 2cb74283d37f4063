package workflows

import (
	"time"

	"litnotes/internal/activities"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	QueryGetReindexStatus = "GetReindexStatus"
	QueryGetProgress      = "GetProgress"
)

// ReindexWorkflowID is shared by every start path so that at most one
// re-index per note runs at a time.
func ReindexWorkflowID(noteID string) string {
	return "reindex-" + noteID
}

func activityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
}

// NoteReindexWorkflow rebuilds the embeddings of one note. Chunk failures
// degrade the result instead of failing the workflow.
func NoteReindexWorkflow(ctx workflow.Context, input NoteReindexInput) (NoteReindexResult, error) {
	result := NoteReindexResult{NoteID: input.NoteID, Status: StatusIndexing}
	if err := workflow.SetQueryHandler(ctx, QueryGetReindexStatus, func() (NoteReindexResult, error) {
		return result, nil
	}); err != nil {
		return result, err
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions())

	var note activities.GetNoteOutput
	if err := workflow.ExecuteActivity(ctx, "GetNoteActivity", activities.GetNoteInput{NoteID: input.NoteID}).Get(ctx, &note); err != nil {
		result.Status = StatusFailed
		return result, err
	}
	if !note.Found {
		result.Status = StatusMissing
		return result, nil
	}
	if err := workflow.ExecuteActivity(ctx, "DeleteEmbeddingsActivity", activities.DeleteEmbeddingsInput{NoteID: input.NoteID}).Get(ctx, nil); err != nil {
		result.Status = StatusFailed
		return result, err
	}
	var chunked activities.ChunkNoteOutput
	if err := workflow.ExecuteActivity(ctx, "ChunkNoteActivity", activities.ChunkNoteInput{Content: note.Content}).Get(ctx, &chunked); err != nil {
		result.Status = StatusFailed
		return result, err
	}
	result.Chunks = len(chunked.Chunks)

	batch := input.ChunkConcurrency
	if batch <= 0 {
		batch = 1
	}
	for i := 0; i < len(chunked.Chunks); i += batch {
		end := i + batch
		if end > len(chunked.Chunks) {
			end = len(chunked.Chunks)
		}
		futures := make([]workflow.Future, 0, end-i)
		for idx := i; idx < end; idx++ {
			futures = append(futures, workflow.ExecuteActivity(ctx, "EmbedChunkActivity", activities.EmbedChunkInput{
				NoteID:     input.NoteID,
				ChunkIndex: idx,
				Chunk:      chunked.Chunks[idx],
			}))
		}
		for k, f := range futures {
			if err := f.Get(ctx, nil); err != nil {
				result.Failures = append(result.Failures, ChunkFailure{ChunkIndex: i + k, Error: err.Error()})
				continue
			}
			result.Stored++
		}
	}

	result.Status = StatusIndexed
	if len(result.Failures) > 0 {
		result.Status = StatusDegraded
	}
	return result, nil
}

// BackfillWorkflow re-indexes every note, a bounded batch of child workflows
// at a time.
func BackfillWorkflow(ctx workflow.Context, input BackfillInput) (BackfillProgress, error) {
	progress := BackfillProgress{PerNote: map[string]string{}}
	if err := workflow.SetQueryHandler(ctx, QueryGetProgress, func() (BackfillProgress, error) {
		return progress, nil
	}); err != nil {
		return progress, err
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions())

	var listed activities.ListNoteIDsOutput
	if err := workflow.ExecuteActivity(ctx, "ListNoteIDsActivity").Get(ctx, &listed); err != nil {
		return progress, err
	}
	ids := listed.NoteIDs
	progress.Total = len(ids)

	maxChildren := input.MaxConcurrentChildren
	if maxChildren <= 0 {
		maxChildren = 3
	}
	for i := 0; i < len(ids); i += maxChildren {
		end := i + maxChildren
		if end > len(ids) {
			end = len(ids)
		}
		futures := make([]workflow.ChildWorkflowFuture, 0, end-i)
		for _, id := range ids[i:end] {
			progress.PerNote[id] = StatusIndexing
			childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{WorkflowID: ReindexWorkflowID(id)})
			futures = append(futures, workflow.ExecuteChildWorkflow(childCtx, NoteReindexWorkflow, NoteReindexInput{
				NoteID:           id,
				ChunkConcurrency: input.ChunkConcurrency,
			}))
		}
		for k, f := range futures {
			id := ids[i+k]
			var child NoteReindexResult
			if err := f.Get(ctx, &child); err != nil {
				if childSuperseded(err) {
					progress.Superseded++
					progress.PerNote[id] = StatusSuperseded
					continue
				}
				progress.Failed++
				progress.PerNote[id] = StatusFailed
				continue
			}
			if child.Status == StatusDegraded {
				progress.Degraded++
			}
			progress.Done++
			progress.PerNote[id] = child.Status
		}
	}
	return progress, nil
}

// childSuperseded reports whether a backfill child lost its workflow id to a
// re-index started by a save. That save indexes the newer content, so the
// note is not counted as failed.
func childSuperseded(err error) bool {
	return temporal.IsTerminatedError(err) || temporal.IsWorkflowExecutionAlreadyStartedError(err)
}
