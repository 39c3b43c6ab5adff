package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/reslab/paperlens/internal/domain"
	"github.com/reslab/paperlens/internal/extract"
	"github.com/reslab/paperlens/internal/pagination"
)

// MockPaperRepository is a mock implementation of PaperRepositoryInterface
type MockPaperRepository struct {
	mock.Mock
}

func (m *MockPaperRepository) Create(ctx context.Context, p *domain.Paper) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaperRepository) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Paper), args.Error(1)
}

func (m *MockPaperRepository) GetByHash(ctx context.Context, sha256 string) (*domain.Paper, error) {
	args := m.Called(ctx, sha256)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Paper), args.Error(1)
}

func (m *MockPaperRepository) UpdateState(ctx context.Context, id string, state domain.PaperState) error {
	args := m.Called(ctx, id, state)
	return args.Error(0)
}

func (m *MockPaperRepository) ListWithCursor(ctx context.Context, filter PaperFilter, cursor *pagination.Cursor, limit int) (*PaperPageResult, error) {
	args := m.Called(ctx, filter, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PaperPageResult), args.Error(1)
}

// MockChunkRepository is a mock implementation of ChunkRepositoryInterface
type MockChunkRepository struct {
	mock.Mock
}

func (m *MockChunkRepository) CreateBatch(ctx context.Context, chunks []*domain.Chunk) error {
	args := m.Called(ctx, chunks)
	return args.Error(0)
}

func (m *MockChunkRepository) ListByPaper(ctx context.Context, paperID string) ([]*domain.Chunk, error) {
	args := m.Called(ctx, paperID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Chunk), args.Error(1)
}

// MockRunRepository is a mock implementation of RunRepositoryInterface
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) Create(ctx context.Context, run *domain.AnalysisRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) GetByID(ctx context.Context, id string) (*domain.AnalysisRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisRun), args.Error(1)
}

func (m *MockRunRepository) MarkStarted(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRunRepository) MarkFinished(ctx context.Context, id string, status domain.RunStatus, lastStage domain.Stage, errMsg string) error {
	args := m.Called(ctx, id, status, lastStage, errMsg)
	return args.Error(0)
}

func (m *MockRunRepository) UpdateProgress(ctx context.Context, id string, lastStage domain.Stage) error {
	args := m.Called(ctx, id, lastStage)
	return args.Error(0)
}

func (m *MockRunRepository) IncrementRetries(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRunRepository) RequeueForRetry(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRunRepository) ListPending(ctx context.Context, limit int) ([]*domain.AnalysisRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AnalysisRun), args.Error(1)
}

func (m *MockRunRepository) ListByPaper(ctx context.Context, paperID string) ([]*domain.AnalysisRun, error) {
	args := m.Called(ctx, paperID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AnalysisRun), args.Error(1)
}

func (m *MockRunRepository) HasActiveRun(ctx context.Context, paperID string) (bool, error) {
	args := m.Called(ctx, paperID)
	return args.Bool(0), args.Error(1)
}

// MockStageResultRepository is a mock implementation of StageResultRepositoryInterface
type MockStageResultRepository struct {
	mock.Mock
}

func (m *MockStageResultRepository) Append(ctx context.Context, sr *domain.StageResult) error {
	args := m.Called(ctx, sr)
	return args.Error(0)
}

func (m *MockStageResultRepository) ListByRun(ctx context.Context, runID string) ([]*domain.StageResult, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.StageResult), args.Error(1)
}

func (m *MockStageResultRepository) ListByPaper(ctx context.Context, paperID string) ([]*domain.StageResult, error) {
	args := m.Called(ctx, paperID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.StageResult), args.Error(1)
}

func (m *MockStageResultRepository) GetLatest(ctx context.Context, paperID string, stage domain.Stage) (*domain.StageResult, error) {
	args := m.Called(ctx, paperID, stage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StageResult), args.Error(1)
}

// MockCitationRepository is a mock implementation of CitationRepositoryInterface
type MockCitationRepository struct {
	mock.Mock
}

func (m *MockCitationRepository) Upsert(ctx context.Context, c *domain.CitationRecord) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCitationRepository) ListByPaper(ctx context.Context, paperID string) ([]*domain.CitationRecord, error) {
	args := m.Called(ctx, paperID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CitationRecord), args.Error(1)
}

// MockComparisonRepository is a mock implementation of ComparisonRepositoryInterface
type MockComparisonRepository struct {
	mock.Mock
}

func (m *MockComparisonRepository) Create(ctx context.Context, c *domain.Comparison) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockComparisonRepository) GetByID(ctx context.Context, id string) (*domain.Comparison, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comparison), args.Error(1)
}

// MockUUIDGenerator returns a fixed sequence of IDs
type MockUUIDGenerator struct {
	callCount int
	uuids     []string
}

func NewMockUUIDGenerator(uuids ...string) *MockUUIDGenerator {
	return &MockUUIDGenerator{uuids: uuids}
}

func (m *MockUUIDGenerator) NewString() string {
	if m.callCount < len(m.uuids) {
		id := m.uuids[m.callCount]
		m.callCount++
		return id
	}
	return "default-uuid"
}

// stubTxRunner runs the callback directly against the given repositories,
// without a real transaction.
type stubTxRunner struct {
	repos stubTxRepos
}

func (r *stubTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	return fn(&r.repos)
}

type stubTxRepos struct {
	papers       PaperRepositoryInterface
	chunks       ChunkRepositoryInterface
	runs         RunRepositoryInterface
	stageResults StageResultRepositoryInterface
	citations    CitationRepositoryInterface
}

func (r *stubTxRepos) Papers() PaperRepositoryInterface             { return r.papers }
func (r *stubTxRepos) Chunks() ChunkRepositoryInterface             { return r.chunks }
func (r *stubTxRepos) Runs() RunRepositoryInterface                 { return r.runs }
func (r *stubTxRepos) StageResults() StageResultRepositoryInterface { return r.stageResults }
func (r *stubTxRepos) Citations() CitationRepositoryInterface       { return r.citations }

// stubExtractor returns canned extraction output.
type stubExtractor struct {
	paper *extract.Paper
	err   error
}

func (e *stubExtractor) Extract(data []byte, filename string) (*extract.Paper, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.paper, nil
}
