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

func TestCitationRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	paperRepo := NewPaperRepository(pool)
	citationRepo := NewCitationRepository(pool)

	p := storedPaper(ctx, t, paperRepo, "attention.pdf", time.Now())

	now := time.Now().UTC().Truncate(time.Microsecond)
	raw := &domain.CitationRecord{
		ID:         uuid.NewString(),
		PaperID:    p.ID,
		Type:       domain.IdentifierTypeDOI,
		Identifier: "doi:10.1234/example",
		Position:   0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, citationRepo.Upsert(ctx, raw))

	citations, err := citationRepo.ListByPaper(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, citations, 1)
	assert.False(t, citations[0].Enriched)
	assert.Empty(t, citations[0].Title)

	enriched := *raw
	enriched.ID = uuid.NewString()
	enriched.Title = "An Example Paper"
	enriched.Authors = "Doe, Roe"
	enriched.Year = 2017
	enriched.CitationCount = 120
	enriched.Enriched = true
	enriched.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, citationRepo.Upsert(ctx, &enriched))

	citations, err = citationRepo.ListByPaper(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, citations, 1)
	assert.Equal(t, raw.ID, citations[0].ID)
	assert.Equal(t, "An Example Paper", citations[0].Title)
	assert.Equal(t, 2017, citations[0].Year)
	assert.Equal(t, 120, citations[0].CitationCount)
	assert.True(t, citations[0].Enriched)
}

func TestCitationRepository_Upsert_EnrichedSticks(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	paperRepo := NewPaperRepository(pool)
	citationRepo := NewCitationRepository(pool)

	p := storedPaper(ctx, t, paperRepo, "attention.pdf", time.Now())

	now := time.Now().UTC().Truncate(time.Microsecond)
	c := &domain.CitationRecord{
		ID:         uuid.NewString(),
		PaperID:    p.ID,
		Type:       domain.IdentifierTypeArXiv,
		Identifier: "arxiv:1706.03762",
		Title:      "Attention Is All You Need",
		Enriched:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, citationRepo.Upsert(ctx, c))

	// a later raw re-extraction must not clear the enriched flag
	rerun := &domain.CitationRecord{
		ID:         uuid.NewString(),
		PaperID:    p.ID,
		Type:       domain.IdentifierTypeArXiv,
		Identifier: "arxiv:1706.03762",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, citationRepo.Upsert(ctx, rerun))

	citations, err := citationRepo.ListByPaper(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, citations, 1)
	assert.True(t, citations[0].Enriched)
}

func TestCitationRepository_Upsert_ReextractionKeepsMetadata(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	paperRepo := NewPaperRepository(pool)
	citationRepo := NewCitationRepository(pool)

	p := storedPaper(ctx, t, paperRepo, "attention.pdf", time.Now())

	now := time.Now().UTC().Truncate(time.Microsecond)
	enriched := &domain.CitationRecord{
		ID:            uuid.NewString(),
		PaperID:       p.ID,
		Type:          domain.IdentifierTypeArXiv,
		Identifier:    "arxiv:1706.03762",
		Title:         "Attention Is All You Need",
		Authors:       "Vaswani et al.",
		Year:          2017,
		Venue:         "NeurIPS",
		Abstract:      "The dominant sequence transduction models...",
		CitationCount: 90000,
		URL:           "https://arxiv.org/abs/1706.03762",
		Enriched:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, citationRepo.Upsert(ctx, enriched))

	// Re-analysis extracts the same identifier with empty metadata. The
	// bare record must not wipe what enrichment already filled in.
	rerun := &domain.CitationRecord{
		ID:         uuid.NewString(),
		PaperID:    p.ID,
		Type:       domain.IdentifierTypeArXiv,
		Identifier: "arxiv:1706.03762",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, citationRepo.Upsert(ctx, rerun))

	citations, err := citationRepo.ListByPaper(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, citations, 1)
	got := citations[0]
	assert.True(t, got.Enriched)
	assert.Equal(t, "Attention Is All You Need", got.Title)
	assert.Equal(t, "Vaswani et al.", got.Authors)
	assert.Equal(t, 2017, got.Year)
	assert.Equal(t, "NeurIPS", got.Venue)
	assert.Equal(t, "The dominant sequence transduction models...", got.Abstract)
	assert.Equal(t, 90000, got.CitationCount)
	assert.Equal(t, "https://arxiv.org/abs/1706.03762", got.URL)
}

func TestCitationRepository_ListByPaper_PositionOrder(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	paperRepo := NewPaperRepository(pool)
	citationRepo := NewCitationRepository(pool)

	p := storedPaper(ctx, t, paperRepo, "attention.pdf", time.Now())

	now := time.Now().UTC().Truncate(time.Microsecond)
	for i, id := range []string{"doi:10.1/a", "pmid:12345", "arxiv:2106.01345"} {
		c := &domain.CitationRecord{
			ID:         uuid.NewString(),
			PaperID:    p.ID,
			Type:       domain.IdentifierTypeDOI,
			Identifier: id,
			Position:   i,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		require.NoError(t, citationRepo.Upsert(ctx, c))
	}

	citations, err := citationRepo.ListByPaper(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, citations, 3)
	assert.Equal(t, "doi:10.1/a", citations[0].Identifier)
	assert.Equal(t, "pmid:12345", citations[1].Identifier)
	assert.Equal(t, "arxiv:2106.01345", citations[2].Identifier)
}

func TestComparisonRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	paperRepo := NewPaperRepository(pool)
	comparisonRepo := NewComparisonRepository(pool)

	p1 := storedPaper(ctx, t, paperRepo, "first.pdf", time.Now())
	p2 := storedPaper(ctx, t, paperRepo, "second.pdf", time.Now())

	c := &domain.Comparison{
		ID:        uuid.NewString(),
		PaperIDs:  []string{p1.ID, p2.ID},
		Content:   "both papers build on the transformer architecture",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, comparisonRepo.Create(ctx, c))

	retrieved, err := comparisonRepo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.PaperIDs, retrieved.PaperIDs)
	assert.Equal(t, c.Content, retrieved.Content)

	_, err = comparisonRepo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrComparisonNotFound)
}
