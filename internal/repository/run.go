package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reslab/paperlens/internal/domain"
)

type RunRepository struct {
	db dbtx
}

func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{db: pool}
}

func NewRunRepositoryWithTx(tx pgx.Tx) *RunRepository {
	return &RunRepository{db: tx}
}

func (r *RunRepository) Create(ctx context.Context, run *domain.AnalysisRun) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO analysis_runs (id, paper_id, prompt_type, status, last_stage, error, retry_count, created_at, updated_at, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.ID, run.PaperID, run.PromptType, run.Status, nullableString(string(run.LastStage)),
		nullableString(run.Error), run.RetryCount, run.CreatedAt, run.UpdatedAt, run.StartedAt, run.FinishedAt,
	)
	return err
}

func (r *RunRepository) GetByID(ctx context.Context, id string) (*domain.AnalysisRun, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, paper_id, prompt_type, status, last_stage, error, retry_count, created_at, updated_at, started_at, finished_at
		 FROM analysis_runs WHERE id = $1`,
		id,
	)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, err
	}
	return run, nil
}

// MarkStarted moves a pending run to running and stamps started_at.
func (r *RunRepository) MarkStarted(ctx context.Context, id string) error {
	now := time.Now().UTC()
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE analysis_runs SET status = $1, started_at = $2, updated_at = $2 WHERE id = $3`,
		domain.RunStatusRunning, now, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

// MarkFinished records a terminal status together with the last completed
// stage and failure cause, if any.
func (r *RunRepository) MarkFinished(ctx context.Context, id string, status domain.RunStatus, lastStage domain.Stage, errMsg string) error {
	now := time.Now().UTC()
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE analysis_runs SET status = $1, last_stage = $2, error = $3, finished_at = $4, updated_at = $4 WHERE id = $5`,
		status, nullableString(string(lastStage)), nullableString(errMsg), now, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

// UpdateProgress records the latest completed stage on a running run.
func (r *RunRepository) UpdateProgress(ctx context.Context, id string, lastStage domain.Stage) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE analysis_runs SET last_stage = $1, updated_at = $2 WHERE id = $3`,
		string(lastStage), time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

func (r *RunRepository) IncrementRetries(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE analysis_runs SET retry_count = retry_count + 1, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

// RequeueForRetry puts a failed run back into pending for the worker.
func (r *RunRepository) RequeueForRetry(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE analysis_runs SET status = $1, updated_at = $2 WHERE id = $3`,
		domain.RunStatusPending, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

// ListPending returns the oldest pending runs, up to limit.
func (r *RunRepository) ListPending(ctx context.Context, limit int) ([]*domain.AnalysisRun, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, paper_id, prompt_type, status, last_stage, error, retry_count, created_at, updated_at, started_at, finished_at
		 FROM analysis_runs WHERE status = $1 ORDER BY created_at ASC LIMIT $2`,
		domain.RunStatusPending, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRunRows(rows)
}

func (r *RunRepository) ListByPaper(ctx context.Context, paperID string) ([]*domain.AnalysisRun, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, paper_id, prompt_type, status, last_stage, error, retry_count, created_at, updated_at, started_at, finished_at
		 FROM analysis_runs WHERE paper_id = $1 ORDER BY created_at DESC`,
		paperID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRunRows(rows)
}

// HasActiveRun reports whether the paper has a pending or running run.
func (r *RunRepository) HasActiveRun(ctx context.Context, paperID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM analysis_runs WHERE paper_id = $1 AND status IN ($2, $3))`,
		paperID, domain.RunStatusPending, domain.RunStatusRunning,
	).Scan(&exists)
	return exists, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.AnalysisRun, error) {
	var run domain.AnalysisRun
	var lastStage, errMsg *string
	if err := row.Scan(&run.ID, &run.PaperID, &run.PromptType, &run.Status, &lastStage, &errMsg,
		&run.RetryCount, &run.CreatedAt, &run.UpdatedAt, &run.StartedAt, &run.FinishedAt); err != nil {
		return nil, err
	}
	if lastStage != nil {
		run.LastStage = domain.Stage(*lastStage)
	}
	if errMsg != nil {
		run.Error = *errMsg
	}
	return &run, nil
}

func scanRunRows(rows pgx.Rows) ([]*domain.AnalysisRun, error) {
	var results []*domain.AnalysisRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, run)
	}
	return results, rows.Err()
}
