package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reslab/paperlens/internal/domain"
)

type CitationRepository struct {
	db dbtx
}

func NewCitationRepository(pool *pgxpool.Pool) *CitationRepository {
	return &CitationRepository{db: pool}
}

func NewCitationRepositoryWithTx(tx pgx.Tx) *CitationRepository {
	return &CitationRepository{db: tx}
}

// Upsert inserts a citation record or, when the (paper, identifier) pair
// already exists, fills in enrichment metadata in place. Metadata only ever
// accumulates: a bare re-extraction carries NULL metadata and must not wipe
// fields an earlier enrichment filled in.
func (r *CitationRepository) Upsert(ctx context.Context, c *domain.CitationRecord) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO citations (id, paper_id, type, identifier, position, title, authors, year, venue, abstract, citation_count, url, enriched, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (paper_id, identifier) DO UPDATE SET
		     title = COALESCE(EXCLUDED.title, citations.title),
		     authors = COALESCE(EXCLUDED.authors, citations.authors),
		     year = COALESCE(EXCLUDED.year, citations.year),
		     venue = COALESCE(EXCLUDED.venue, citations.venue),
		     abstract = COALESCE(EXCLUDED.abstract, citations.abstract),
		     citation_count = CASE WHEN EXCLUDED.enriched THEN EXCLUDED.citation_count ELSE citations.citation_count END,
		     url = COALESCE(EXCLUDED.url, citations.url),
		     enriched = citations.enriched OR EXCLUDED.enriched,
		     updated_at = EXCLUDED.updated_at`,
		c.ID, c.PaperID, c.Type, c.Identifier, c.Position, nullableString(c.Title), nullableString(c.Authors),
		nullableInt(c.Year), nullableString(c.Venue), nullableString(c.Abstract), c.CitationCount,
		nullableString(c.URL), c.Enriched, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// ListByPaper returns citations in first-seen order.
func (r *CitationRepository) ListByPaper(ctx context.Context, paperID string) ([]*domain.CitationRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, paper_id, type, identifier, position, title, authors, year, venue, abstract, citation_count, url, enriched, created_at, updated_at
		 FROM citations WHERE paper_id = $1 ORDER BY position ASC`,
		paperID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.CitationRecord
	for rows.Next() {
		var c domain.CitationRecord
		var title, authors, venue, abstract, url *string
		var year *int
		if err := rows.Scan(&c.ID, &c.PaperID, &c.Type, &c.Identifier, &c.Position, &title, &authors, &year,
			&venue, &abstract, &c.CitationCount, &url, &c.Enriched, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if title != nil {
			c.Title = *title
		}
		if authors != nil {
			c.Authors = *authors
		}
		if year != nil {
			c.Year = *year
		}
		if venue != nil {
			c.Venue = *venue
		}
		if abstract != nil {
			c.Abstract = *abstract
		}
		if url != nil {
			c.URL = *url
		}
		results = append(results, &c)
	}
	return results, rows.Err()
}

func nullableInt(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
