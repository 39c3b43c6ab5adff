package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/reslab/paperlens/internal/domain"
)

const (
	// PendingBatchSize bounds how many queued runs one poll picks up.
	PendingBatchSize = 5
)

// RunQueue lists queued analysis runs.
type RunQueue interface {
	ListPending(ctx context.Context, limit int) ([]*domain.AnalysisRun, error)
}

// RunExecutor drives one run through the analysis pipeline. The executor owns
// all run bookkeeping: status transitions, retry requeueing and stage result
// persistence.
type RunExecutor interface {
	Execute(ctx context.Context, run *domain.AnalysisRun) error
}

// AnalysisWorker processes queued analysis runs.
type AnalysisWorker struct {
	queue    RunQueue
	executor RunExecutor
}

// NewAnalysisWorker creates a new AnalysisWorker instance
func NewAnalysisWorker(queue RunQueue, executor RunExecutor) *AnalysisWorker {
	return &AnalysisWorker{
		queue:    queue,
		executor: executor,
	}
}

// ProcessJobs implements the JobProcessor interface. Runs are executed one at
// a time: stage order within a run is strict, and a paper has at most one
// active run, so there is nothing to gain from interleaving here. The
// summarize stage fans out internally.
func (w *AnalysisWorker) ProcessJobs(ctx context.Context) error {
	runs, err := w.queue.ListPending(ctx, PendingBatchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch pending runs: %w", err)
	}

	if len(runs) == 0 {
		return nil
	}

	log.Printf("Processing %d pending analysis runs", len(runs))

	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.executor.Execute(ctx, run); err != nil {
			log.Printf("Run %s finished with error: %v", run.ID, err)
		}
	}

	return nil
}
