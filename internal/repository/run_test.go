//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reslab/paperlens/internal/domain"
	"github.com/reslab/paperlens/internal/testutil"
)

func storedRun(ctx context.Context, t *testing.T, repo *RunRepository, paperID string, createdAt time.Time) *domain.AnalysisRun {
	t.Helper()
	run := domain.NewAnalysisRun(uuid.NewString(), paperID, domain.PromptTypeDefault, createdAt.UTC().Truncate(time.Microsecond))
	require.NoError(t, repo.Create(ctx, run))
	return run
}

func TestRunRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	paperRepo := NewPaperRepository(pool)
	runRepo := NewRunRepository(pool)

	p := storedPaper(ctx, t, paperRepo, "attention.pdf", time.Now())
	run := storedRun(ctx, t, runRepo, p.ID, time.Now())

	retrieved, err := runRepo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusPending, retrieved.Status)
	assert.Nil(t, retrieved.StartedAt)

	require.NoError(t, runRepo.MarkStarted(ctx, run.ID))
	retrieved, err = runRepo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusRunning, retrieved.Status)
	require.NotNil(t, retrieved.StartedAt)

	require.NoError(t, runRepo.UpdateProgress(ctx, run.ID, domain.StageSummarize))
	retrieved, err = runRepo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageSummarize, retrieved.LastStage)

	require.NoError(t, runRepo.MarkFinished(ctx, run.ID, domain.RunStatusPartiallyFailed, domain.StageSummarize, "reason stage failed"))
	retrieved, err = runRepo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusPartiallyFailed, retrieved.Status)
	assert.Equal(t, "reason stage failed", retrieved.Error)
	require.NotNil(t, retrieved.FinishedAt)
}

func TestRunRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	runRepo := NewRunRepository(pool)

	_, err := runRepo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestRunRepository_RetryRequeue(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	paperRepo := NewPaperRepository(pool)
	runRepo := NewRunRepository(pool)

	p := storedPaper(ctx, t, paperRepo, "attention.pdf", time.Now())
	run := storedRun(ctx, t, runRepo, p.ID, time.Now())

	require.NoError(t, runRepo.MarkStarted(ctx, run.ID))
	require.NoError(t, runRepo.IncrementRetries(ctx, run.ID))
	require.NoError(t, runRepo.RequeueForRetry(ctx, run.ID))

	retrieved, err := runRepo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusPending, retrieved.Status)
	assert.Equal(t, 1, retrieved.RetryCount)
}

func TestRunRepository_ListPending(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	paperRepo := NewPaperRepository(pool)
	runRepo := NewRunRepository(pool)

	p1 := storedPaper(ctx, t, paperRepo, "first.pdf", time.Now())
	p2 := storedPaper(ctx, t, paperRepo, "second.pdf", time.Now())

	older := storedRun(ctx, t, runRepo, p1.ID, time.Now().Add(-time.Minute))
	newer := storedRun(ctx, t, runRepo, p2.ID, time.Now())
	require.NoError(t, runRepo.MarkFinished(ctx, newer.ID, domain.RunStatusCompleted, domain.StageDirections, ""))

	pending, err := runRepo.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, older.ID, pending[0].ID)
}

func TestRunRepository_HasActiveRun(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	paperRepo := NewPaperRepository(pool)
	runRepo := NewRunRepository(pool)

	p := storedPaper(ctx, t, paperRepo, "attention.pdf", time.Now())

	active, err := runRepo.HasActiveRun(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, active)

	run := storedRun(ctx, t, runRepo, p.ID, time.Now())

	active, err = runRepo.HasActiveRun(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, runRepo.MarkFinished(ctx, run.ID, domain.RunStatusFailed, "", "stage 1 failed"))

	active, err = runRepo.HasActiveRun(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, active)
}
