package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reslab/paperlens/internal/chunker"
	"github.com/reslab/paperlens/internal/domain"
	"github.com/reslab/paperlens/internal/extract"
	"github.com/reslab/paperlens/internal/pagination"
)

// MockBlobStore is a mock implementation of BlobStore
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func newTestPaperService(
	paperRepo *MockPaperRepository,
	chunkRepo *MockChunkRepository,
	blobs BlobStore,
	extractor Extractor,
	uuids ...string,
) *PaperService {
	tx := &stubTxRunner{repos: stubTxRepos{papers: paperRepo, chunks: chunkRepo}}
	splitter := chunker.New(chunker.Config{MaxSize: 20, Lookback: 8})
	return NewPaperServiceWithDeps(paperRepo, chunkRepo, tx, splitter, blobs, extractor, NewMockUUIDGenerator(uuids...))
}

func TestPaperService_Ingest(t *testing.T) {
	ctx := context.Background()

	t.Run("stores paper and chunks", func(t *testing.T) {
		mockPaperRepo := new(MockPaperRepository)
		mockChunkRepo := new(MockChunkRepository)

		text := "first paragraph.\n\nsecond paragraph here."
		extractor := &stubExtractor{paper: &extract.Paper{
			Filename:  "attention.pdf",
			SHA256:    "abc123",
			Text:      text,
			Title:     "Attention Is All You Need",
			Abstract:  "The dominant sequence transduction models...",
			PageCount: 11,
		}}

		svc := newTestPaperService(mockPaperRepo, mockChunkRepo, nil, extractor, "paper-1", "chunk-1", "chunk-2")

		mockPaperRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Paper) bool {
			return p.ID == "paper-1" &&
				p.Filename == "attention.pdf" &&
				p.Title == "Attention Is All You Need" &&
				p.SHA256 == "abc123" &&
				p.PageCount == 11 &&
				p.CharCount == len(text) &&
				p.State == domain.PaperStateExtracted
		})).Return(nil)
		mockChunkRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(chunks []*domain.Chunk) bool {
			if len(chunks) < 2 {
				return false
			}
			var joined strings.Builder
			for i, c := range chunks {
				if c.Index != i || c.PaperID != "paper-1" {
					return false
				}
				joined.WriteString(c.Text)
			}
			return joined.String() == text
		})).Return(nil)

		paper, err := svc.Ingest(ctx, IngestInput{Filename: "attention.pdf", Data: []byte("%PDF-")})
		require.NoError(t, err)
		assert.Equal(t, "paper-1", paper.ID)
		assert.Equal(t, domain.PaperStateExtracted, paper.State)

		mockPaperRepo.AssertExpectations(t)
		mockChunkRepo.AssertExpectations(t)
	})

	t.Run("propagates extraction failure", func(t *testing.T) {
		mockPaperRepo := new(MockPaperRepository)
		mockChunkRepo := new(MockChunkRepository)
		extractor := &stubExtractor{err: domain.ErrExtractionFailed}

		svc := newTestPaperService(mockPaperRepo, mockChunkRepo, nil, extractor)

		_, err := svc.Ingest(ctx, IngestInput{Filename: "broken.pdf", Data: []byte("junk")})
		assert.ErrorIs(t, err, domain.ErrExtractionFailed)
		mockPaperRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("archival failure does not fail the ingest", func(t *testing.T) {
		mockPaperRepo := new(MockPaperRepository)
		mockChunkRepo := new(MockChunkRepository)
		mockBlobs := new(MockBlobStore)
		extractor := &stubExtractor{paper: &extract.Paper{
			Filename:  "short.pdf",
			SHA256:    "def456",
			Text:      "tiny",
			PageCount: 1,
		}}

		svc := newTestPaperService(mockPaperRepo, mockChunkRepo, mockBlobs, extractor, "paper-2", "chunk-1")

		mockPaperRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		mockChunkRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
		mockBlobs.On("Upload", mock.Anything, "paper-2.pdf", mock.Anything, "application/pdf").
			Return(errors.New("bucket unavailable"))

		paper, err := svc.Ingest(ctx, IngestInput{Filename: "short.pdf", Data: []byte("%PDF-")})
		require.NoError(t, err)
		assert.Equal(t, "paper-2", paper.ID)
		mockBlobs.AssertExpectations(t)
	})

	t.Run("rolls back when chunk storage fails", func(t *testing.T) {
		mockPaperRepo := new(MockPaperRepository)
		mockChunkRepo := new(MockChunkRepository)
		extractor := &stubExtractor{paper: &extract.Paper{
			Filename:  "short.pdf",
			SHA256:    "def456",
			Text:      "tiny",
			PageCount: 1,
		}}

		svc := newTestPaperService(mockPaperRepo, mockChunkRepo, nil, extractor, "paper-3", "chunk-1")

		mockPaperRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		mockChunkRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(errors.New("insert failed"))

		_, err := svc.Ingest(ctx, IngestInput{Filename: "short.pdf", Data: []byte("%PDF-")})
		assert.Error(t, err)
	})
}

func TestPaperService_ListPapers(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults the page size", func(t *testing.T) {
		mockPaperRepo := new(MockPaperRepository)
		svc := newTestPaperService(mockPaperRepo, new(MockChunkRepository), nil, &stubExtractor{})

		now := time.Now().UTC()
		mockPaperRepo.On("ListWithCursor", mock.Anything, PaperFilter{}, (*pagination.Cursor)(nil), 20).
			Return(&PaperPageResult{
				Items:      []*domain.Paper{{ID: "paper-1", CreatedAt: now}},
				NextCursor: "",
				HasMore:    false,
			}, nil)

		out, err := svc.ListPapers(ctx, ListPapersInput{})
		require.NoError(t, err)
		assert.Len(t, out.Items, 1)
		assert.False(t, out.HasMore)
		mockPaperRepo.AssertExpectations(t)
	})

	t.Run("passes filename filter through", func(t *testing.T) {
		mockPaperRepo := new(MockPaperRepository)
		svc := newTestPaperService(mockPaperRepo, new(MockChunkRepository), nil, &stubExtractor{})

		mockPaperRepo.On("ListWithCursor", mock.Anything, PaperFilter{Filename: "attention"}, (*pagination.Cursor)(nil), 5).
			Return(&PaperPageResult{HasMore: false}, nil)

		_, err := svc.ListPapers(ctx, ListPapersInput{Filename: "attention", Limit: 5})
		require.NoError(t, err)
		mockPaperRepo.AssertExpectations(t)
	})
}

func TestPaperService_GetByID(t *testing.T) {
	ctx := context.Background()

	mockPaperRepo := new(MockPaperRepository)
	svc := newTestPaperService(mockPaperRepo, new(MockChunkRepository), nil, &stubExtractor{})

	mockPaperRepo.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrPaperNotFound)

	_, err := svc.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrPaperNotFound)
}
