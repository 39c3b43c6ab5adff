package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/reslab/paperlens/internal/chunker"
	"github.com/reslab/paperlens/internal/domain"
	"github.com/reslab/paperlens/internal/extract"
	"github.com/reslab/paperlens/internal/pagination"
	"github.com/reslab/paperlens/internal/telemetry"
)

// PaperRepositoryInterface defines the repository interface for paper persistence
type PaperRepositoryInterface interface {
	Create(ctx context.Context, p *domain.Paper) error
	GetByID(ctx context.Context, id string) (*domain.Paper, error)
	GetByHash(ctx context.Context, sha256 string) (*domain.Paper, error)
	UpdateState(ctx context.Context, id string, state domain.PaperState) error
	ListWithCursor(ctx context.Context, filter PaperFilter, cursor *pagination.Cursor, limit int) (*PaperPageResult, error)
}

// ChunkRepositoryInterface defines the repository interface for chunk persistence
type ChunkRepositoryInterface interface {
	CreateBatch(ctx context.Context, chunks []*domain.Chunk) error
	ListByPaper(ctx context.Context, paperID string) ([]*domain.Chunk, error)
}

// PaperFilter narrows paper listings.
type PaperFilter struct {
	Filename string
	Since    *time.Time
}

type PaperPageResult struct {
	Items      []*domain.Paper
	NextCursor string
	HasMore    bool
}

// BlobStore archives uploaded PDF bytes. Optional; a nil store disables
// archival.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

// Extractor turns PDF bytes into extracted paper content.
type Extractor interface {
	Extract(data []byte, filename string) (*extract.Paper, error)
}

// DefaultExtractor is the ledongthuc/pdf based extractor.
type DefaultExtractor struct{}

// Extract extracts text and metadata from PDF bytes.
func (DefaultExtractor) Extract(data []byte, filename string) (*extract.Paper, error) {
	return extract.Extract(data, filename)
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// PaperService handles ingestion and retrieval of papers.
type PaperService struct {
	paperRepo PaperRepositoryInterface
	chunkRepo ChunkRepositoryInterface
	txRunner  TxRunner
	splitter  *chunker.Splitter
	extractor Extractor
	blobs     BlobStore
	uuidGen   UUIDGenerator
}

// NewPaperService creates a new PaperService instance. blobs may be nil.
func NewPaperService(
	paperRepo PaperRepositoryInterface,
	chunkRepo ChunkRepositoryInterface,
	txRunner TxRunner,
	splitter *chunker.Splitter,
	blobs BlobStore,
) *PaperService {
	return &PaperService{
		paperRepo: paperRepo,
		chunkRepo: chunkRepo,
		txRunner:  txRunner,
		splitter:  splitter,
		extractor: DefaultExtractor{},
		blobs:     blobs,
		uuidGen:   &DefaultUUIDGenerator{},
	}
}

// NewPaperServiceWithDeps creates a new PaperService with a custom extractor
// and UUID generator (for testing)
func NewPaperServiceWithDeps(
	paperRepo PaperRepositoryInterface,
	chunkRepo ChunkRepositoryInterface,
	txRunner TxRunner,
	splitter *chunker.Splitter,
	blobs BlobStore,
	extractor Extractor,
	uuidGen UUIDGenerator,
) *PaperService {
	s := NewPaperService(paperRepo, chunkRepo, txRunner, splitter, blobs)
	s.extractor = extractor
	s.uuidGen = uuidGen
	return s
}

// IngestInput represents the input for ingesting a paper
type IngestInput struct {
	Filename string
	Data     []byte
}

type ListPapersInput struct {
	Filename string
	Since    *time.Time
	Cursor   string
	Limit    int
}

type ListPapersOutput struct {
	Items   []*domain.Paper
	Cursor  string
	HasMore bool
}

// Ingest extracts text from a PDF, stores the paper and its chunks in one
// transaction, and archives the original bytes when a blob store is
// configured. Ingest always creates a new paper; same-content re-uploads are
// allowed.
func (s *PaperService) Ingest(ctx context.Context, input IngestInput) (*domain.Paper, error) {
	ctx, span := telemetry.StartSpan(ctx, "PaperService.Ingest", telemetry.SpanAttributes{
		Operation: "ingest",
	})
	defer span.End()

	extracted, err := s.extractor.Extract(input.Data, input.Filename)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	paper := domain.NewPaper(
		s.uuidGen.NewString(),
		input.Filename,
		extracted.Title,
		extracted.Abstract,
		extracted.SHA256,
		extracted.PageCount,
		extracted.Text,
		now,
	)

	if err := domain.ValidatePaper(paper); err != nil {
		return nil, err
	}

	pieces := s.splitter.Split(paper.Text)
	chunks := make([]*domain.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		chunks = append(chunks, &domain.Chunk{
			ID:             s.uuidGen.NewString(),
			PaperID:        paper.ID,
			Index:          piece.Index,
			Text:           piece.Text,
			EndsMidSection: piece.EndsMidSection,
			CreatedAt:      now,
		})
	}

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Papers().Create(ctx, paper); err != nil {
			return err
		}
		return repos.Chunks().CreateBatch(ctx, chunks)
	})
	if err != nil {
		return nil, err
	}

	if s.blobs != nil {
		// Archival is best effort; the paper is already persisted.
		if err := s.blobs.Upload(ctx, paper.ID+".pdf", input.Data, "application/pdf"); err != nil {
			log.Printf("paper %s: archiving pdf failed: %v", paper.ID, err)
		}
	}

	return paper, nil
}

// GetByID retrieves a paper by ID
func (s *PaperService) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	ctx, span := telemetry.StartSpan(ctx, "PaperService.GetByID", telemetry.SpanAttributes{
		PaperID:   id,
		Operation: "get",
	})
	defer span.End()

	return s.paperRepo.GetByID(ctx, id)
}

// GetByHash retrieves the most recent paper with the given content hash.
func (s *PaperService) GetByHash(ctx context.Context, sha256 string) (*domain.Paper, error) {
	return s.paperRepo.GetByHash(ctx, sha256)
}

// ListChunks retrieves a paper's chunks in index order.
func (s *PaperService) ListChunks(ctx context.Context, paperID string) ([]*domain.Chunk, error) {
	return s.chunkRepo.ListByPaper(ctx, paperID)
}

func (s *PaperService) ListPapers(ctx context.Context, input ListPapersInput) (*ListPapersOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "PaperService.ListPapers", telemetry.SpanAttributes{
		Operation: "list",
	})
	defer span.End()

	cursor, _ := pagination.DecodeCursor(input.Cursor)
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	result, err := s.paperRepo.ListWithCursor(ctx, PaperFilter{
		Filename: input.Filename,
		Since:    input.Since,
	}, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &ListPapersOutput{
		Items:   result.Items,
		Cursor:  result.NextCursor,
		HasMore: result.HasMore,
	}, nil
}
