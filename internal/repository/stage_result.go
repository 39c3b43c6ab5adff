package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reslab/paperlens/internal/domain"
)

type StageResultRepository struct {
	db dbtx
}

func NewStageResultRepository(pool *pgxpool.Pool) *StageResultRepository {
	return &StageResultRepository{db: pool}
}

func NewStageResultRepositoryWithTx(tx pgx.Tx) *StageResultRepository {
	return &StageResultRepository{db: tx}
}

// Append stores a stage result as the next history entry for the paper and
// stage. Existing results are never overwritten: re-running a stage yields a
// new row with a higher seq. The assigned seq is written back to sr.
func (r *StageResultRepository) Append(ctx context.Context, sr *domain.StageResult) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO stage_results (id, run_id, paper_id, stage, seq, content, model, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4,
		         COALESCE((SELECT MAX(seq) + 1 FROM stage_results WHERE paper_id = $3 AND stage = $4), 0),
		         $5, $6, $7, $8)
		 RETURNING seq`,
		sr.ID, sr.RunID, sr.PaperID, sr.Stage, sr.Content, nullableString(sr.Model), sr.DurationMS, sr.CreatedAt,
	).Scan(&sr.Seq)
}

// ListByRun returns the run's stage results in pipeline order.
func (r *StageResultRepository) ListByRun(ctx context.Context, runID string) ([]*domain.StageResult, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, run_id, paper_id, stage, seq, content, model, duration_ms, created_at
		 FROM stage_results WHERE run_id = $1 ORDER BY created_at ASC`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStageResultRows(rows)
}

// ListByPaper returns the paper's full stage-result history, oldest first.
func (r *StageResultRepository) ListByPaper(ctx context.Context, paperID string) ([]*domain.StageResult, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, run_id, paper_id, stage, seq, content, model, duration_ms, created_at
		 FROM stage_results WHERE paper_id = $1 ORDER BY created_at ASC`,
		paperID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStageResultRows(rows)
}

// GetLatest returns the newest result for one stage of a paper.
func (r *StageResultRepository) GetLatest(ctx context.Context, paperID string, stage domain.Stage) (*domain.StageResult, error) {
	var sr domain.StageResult
	var model *string
	err := r.db.QueryRow(ctx,
		`SELECT id, run_id, paper_id, stage, seq, content, model, duration_ms, created_at
		 FROM stage_results WHERE paper_id = $1 AND stage = $2 ORDER BY seq DESC LIMIT 1`,
		paperID, stage,
	).Scan(&sr.ID, &sr.RunID, &sr.PaperID, &sr.Stage, &sr.Seq, &sr.Content, &model, &sr.DurationMS, &sr.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPaperNotAnalyzed
		}
		return nil, err
	}
	if model != nil {
		sr.Model = *model
	}
	return &sr, nil
}

func scanStageResultRows(rows pgx.Rows) ([]*domain.StageResult, error) {
	var results []*domain.StageResult
	for rows.Next() {
		var sr domain.StageResult
		var model *string
		if err := rows.Scan(&sr.ID, &sr.RunID, &sr.PaperID, &sr.Stage, &sr.Seq, &sr.Content, &model, &sr.DurationMS, &sr.CreatedAt); err != nil {
			return nil, err
		}
		if model != nil {
			sr.Model = *model
		}
		results = append(results, &sr)
	}
	return results, rows.Err()
}
