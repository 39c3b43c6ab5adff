package service

import (
	"context"
	"time"

	"github.com/reslab/paperlens/internal/domain"
	"github.com/reslab/paperlens/internal/prompts"
	"github.com/reslab/paperlens/internal/telemetry"
)

// ComparisonRepositoryInterface defines the repository interface for comparison persistence
type ComparisonRepositoryInterface interface {
	Create(ctx context.Context, c *domain.Comparison) error
	GetByID(ctx context.Context, id string) (*domain.Comparison, error)
}

// Collaborator is the LLM client used for single-call features.
type Collaborator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// CompareService analyzes stored papers against each other.
type CompareService struct {
	paperRepo       PaperRepositoryInterface
	stageResultRepo StageResultRepositoryInterface
	comparisonRepo  ComparisonRepositoryInterface
	llm             Collaborator
	uuidGen         UUIDGenerator
}

// NewCompareService creates a new CompareService instance.
func NewCompareService(
	paperRepo PaperRepositoryInterface,
	stageResultRepo StageResultRepositoryInterface,
	comparisonRepo ComparisonRepositoryInterface,
	llm Collaborator,
) *CompareService {
	return &CompareService{
		paperRepo:       paperRepo,
		stageResultRepo: stageResultRepo,
		comparisonRepo:  comparisonRepo,
		llm:             llm,
		uuidGen:         &DefaultUUIDGenerator{},
	}
}

// NewCompareServiceWithUUIDGen creates a new CompareService with custom UUID generator (for testing)
func NewCompareServiceWithUUIDGen(
	paperRepo PaperRepositoryInterface,
	stageResultRepo StageResultRepositoryInterface,
	comparisonRepo ComparisonRepositoryInterface,
	llm Collaborator,
	uuidGen UUIDGenerator,
) *CompareService {
	s := NewCompareService(paperRepo, stageResultRepo, comparisonRepo, llm)
	s.uuidGen = uuidGen
	return s
}

// Compare runs the comparison template over the latest summaries of two or
// more papers. Every paper must have been analyzed at least once.
func (s *CompareService) Compare(ctx context.Context, paperIDs []string) (*domain.Comparison, error) {
	ctx, span := telemetry.StartSpan(ctx, "CompareService.Compare", telemetry.SpanAttributes{
		Operation: "compare",
	})
	defer span.End()

	if len(paperIDs) < 2 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "comparison requires at least two papers")
	}

	titles := make([]string, 0, len(paperIDs))
	summaries := make([]string, 0, len(paperIDs))
	for _, id := range paperIDs {
		paper, err := s.paperRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		latest, err := s.stageResultRepo.GetLatest(ctx, id, domain.StageSummarize)
		if err != nil {
			return nil, err
		}
		title := paper.Title
		if title == "" {
			title = paper.Filename
		}
		titles = append(titles, title)
		summaries = append(summaries, latest.Content)
	}

	content, err := s.llm.Complete(ctx, prompts.ComparisonPrompt(titles, summaries))
	if err != nil {
		return nil, err
	}

	comparison := &domain.Comparison{
		ID:        s.uuidGen.NewString(),
		PaperIDs:  paperIDs,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := domain.ValidateComparison(comparison); err != nil {
		return nil, err
	}
	if err := s.comparisonRepo.Create(ctx, comparison); err != nil {
		return nil, err
	}
	return comparison, nil
}

// GetByID retrieves a stored comparison.
func (s *CompareService) GetByID(ctx context.Context, id string) (*domain.Comparison, error) {
	return s.comparisonRepo.GetByID(ctx, id)
}
