package workflows

import (
	"context"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
)

type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Scheduler hands note re-indexing to the worker. A newer save of the same
// note terminates a re-index that is still running.
type Scheduler struct {
	client           WorkflowStarter
	taskQueue        string
	chunkConcurrency int
	maxChildren      int
}

func NewScheduler(c WorkflowStarter, taskQueue string, chunkConcurrency, maxChildren int) *Scheduler {
	return &Scheduler{client: c, taskQueue: taskQueue, chunkConcurrency: chunkConcurrency, maxChildren: maxChildren}
}

// Index starts the re-index workflow and returns without waiting for it.
func (s *Scheduler) Index(ctx context.Context, noteID, _ string) (string, error) {
	_, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                       ReindexWorkflowID(noteID),
		TaskQueue:                s.taskQueue,
		WorkflowIDReusePolicy:    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowIDConflictPolicy: enumspb.WORKFLOW_ID_CONFLICT_POLICY_TERMINATE_EXISTING,
	}, NoteReindexWorkflow, NoteReindexInput{NoteID: noteID, ChunkConcurrency: s.chunkConcurrency})
	if err != nil {
		return "", fmt.Errorf("schedule reindex: %w", err)
	}
	return "", nil
}

// StartBackfill starts a backfill unless one is already running.
func (s *Scheduler) StartBackfill(ctx context.Context) (workflowID, runID string, err error) {
	we, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                                       "backfill-notes",
		TaskQueue:                                s.taskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, BackfillWorkflow, BackfillInput{MaxConcurrentChildren: s.maxChildren, ChunkConcurrency: s.chunkConcurrency})
	if err != nil {
		return "", "", err
	}
	return we.GetID(), we.GetRunID(), nil
}
