package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reslab/paperlens/internal/domain"
	"github.com/reslab/paperlens/internal/pagination"
	"github.com/reslab/paperlens/internal/service"
)

type PaperRepository struct {
	db dbtx
}

func NewPaperRepository(pool *pgxpool.Pool) *PaperRepository {
	return &PaperRepository{db: pool}
}

func NewPaperRepositoryWithTx(tx pgx.Tx) *PaperRepository {
	return &PaperRepository{db: tx}
}

func (r *PaperRepository) Create(ctx context.Context, p *domain.Paper) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO papers (id, filename, title, abstract, sha256, page_count, char_count, text, state, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Filename, nullableString(p.Title), nullableString(p.Abstract), p.SHA256,
		p.PageCount, p.CharCount, p.Text, p.State, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *PaperRepository) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	var p domain.Paper
	var title, abstract *string
	err := r.db.QueryRow(ctx,
		`SELECT id, filename, title, abstract, sha256, page_count, char_count, text, state, created_at, updated_at
		 FROM papers WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Filename, &title, &abstract, &p.SHA256, &p.PageCount, &p.CharCount, &p.Text, &p.State, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaperNotFound
		}
		return nil, err
	}
	if title != nil {
		p.Title = *title
	}
	if abstract != nil {
		p.Abstract = *abstract
	}
	return &p, nil
}

// GetByHash returns the most recently stored paper with the given content
// hash. Duplicate content is allowed; this is a lookup convenience.
func (r *PaperRepository) GetByHash(ctx context.Context, sha256 string) (*domain.Paper, error) {
	var p domain.Paper
	var title, abstract *string
	err := r.db.QueryRow(ctx,
		`SELECT id, filename, title, abstract, sha256, page_count, char_count, text, state, created_at, updated_at
		 FROM papers WHERE sha256 = $1 ORDER BY created_at DESC LIMIT 1`,
		sha256,
	).Scan(&p.ID, &p.Filename, &title, &abstract, &p.SHA256, &p.PageCount, &p.CharCount, &p.Text, &p.State, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaperNotFound
		}
		return nil, err
	}
	if title != nil {
		p.Title = *title
	}
	if abstract != nil {
		p.Abstract = *abstract
	}
	return &p, nil
}

func (r *PaperRepository) UpdateState(ctx context.Context, id string, state domain.PaperState) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE papers SET state = $1, updated_at = $2 WHERE id = $3`,
		state, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrPaperNotFound
	}
	return nil
}

func (r *PaperRepository) ListWithCursor(ctx context.Context, filter service.PaperFilter, cursor *pagination.Cursor, limit int) (*service.PaperPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, filename, title, abstract, sha256, page_count, char_count, text, state, created_at, updated_at
	 FROM papers WHERE 1=1`
	args := []interface{}{}

	if filter.Filename != "" {
		args = append(args, "%"+filter.Filename+"%")
		query += ` AND filename ILIKE $` + itoa(len(args))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		query += ` AND created_at >= $` + itoa(len(args))
	}
	if cursor != nil {
		args = append(args, cursor.Timestamp, cursor.LastID)
		query += ` AND (created_at, id) < ($` + itoa(len(args)-1) + `, $` + itoa(len(args)) + `)`
	}

	args = append(args, limit+1)
	query += ` ORDER BY created_at DESC, id DESC LIMIT $` + itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanPaperRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		lastItem := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(lastItem.ID, lastItem.CreatedAt)
	}

	return &service.PaperPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func scanPaperRows(rows pgx.Rows) ([]*domain.Paper, error) {
	var results []*domain.Paper
	for rows.Next() {
		var p domain.Paper
		var title, abstract *string
		if err := rows.Scan(&p.ID, &p.Filename, &title, &abstract, &p.SHA256, &p.PageCount, &p.CharCount, &p.Text, &p.State, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if title != nil {
			p.Title = *title
		}
		if abstract != nil {
			p.Abstract = *abstract
		}
		results = append(results, &p)
	}
	return results, rows.Err()
}
