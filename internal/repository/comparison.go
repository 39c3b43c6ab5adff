package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reslab/paperlens/internal/domain"
)

type ComparisonRepository struct {
	db dbtx
}

func NewComparisonRepository(pool *pgxpool.Pool) *ComparisonRepository {
	return &ComparisonRepository{db: pool}
}

func NewComparisonRepositoryWithTx(tx pgx.Tx) *ComparisonRepository {
	return &ComparisonRepository{db: tx}
}

func (r *ComparisonRepository) Create(ctx context.Context, c *domain.Comparison) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO comparisons (id, paper_ids, content, created_at)
		 VALUES ($1, $2, $3, $4)`,
		c.ID, c.PaperIDs, c.Content, c.CreatedAt,
	)
	return err
}

func (r *ComparisonRepository) GetByID(ctx context.Context, id string) (*domain.Comparison, error) {
	var c domain.Comparison
	err := r.db.QueryRow(ctx,
		`SELECT id, paper_ids, content, created_at FROM comparisons WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.PaperIDs, &c.Content, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrComparisonNotFound
		}
		return nil, err
	}
	return &c, nil
}
