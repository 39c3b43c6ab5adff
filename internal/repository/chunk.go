package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reslab/paperlens/internal/domain"
)

type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx pgx.Tx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// CreateBatch stores a paper's chunks. Chunks are written once at ingest and
// never mutated.
func (r *ChunkRepository) CreateBatch(ctx context.Context, chunks []*domain.Chunk) error {
	for _, c := range chunks {
		_, err := r.db.Exec(ctx,
			`INSERT INTO chunks (id, paper_id, chunk_index, text, ends_mid_section, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			c.ID, c.PaperID, c.Index, c.Text, c.EndsMidSection, c.CreatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *ChunkRepository) ListByPaper(ctx context.Context, paperID string) ([]*domain.Chunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, paper_id, chunk_index, text, ends_mid_section, created_at
		 FROM chunks WHERE paper_id = $1 ORDER BY chunk_index ASC`,
		paperID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.ID, &c.PaperID, &c.Index, &c.Text, &c.EndsMidSection, &c.CreatedAt); err != nil {
			return nil, err
		}
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}
