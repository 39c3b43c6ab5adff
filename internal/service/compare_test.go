package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reslab/paperlens/internal/domain"
)

func TestCompareService_Compare(t *testing.T) {
	ctx := context.Background()

	t.Run("compares the latest summaries of each paper", func(t *testing.T) {
		mockPaperRepo := new(MockPaperRepository)
		mockStageResultRepo := new(MockStageResultRepository)
		mockComparisonRepo := new(MockComparisonRepository)
		llm := &fakeLLM{}

		svc := NewCompareServiceWithUUIDGen(mockPaperRepo, mockStageResultRepo, mockComparisonRepo, llm,
			NewMockUUIDGenerator("comparison-1"))

		mockPaperRepo.On("GetByID", mock.Anything, "paper-1").
			Return(&domain.Paper{ID: "paper-1", Title: "Paper One"}, nil)
		mockPaperRepo.On("GetByID", mock.Anything, "paper-2").
			Return(&domain.Paper{ID: "paper-2", Filename: "two.pdf"}, nil)
		mockStageResultRepo.On("GetLatest", mock.Anything, "paper-1", domain.StageSummarize).
			Return(&domain.StageResult{Content: "summary one"}, nil)
		mockStageResultRepo.On("GetLatest", mock.Anything, "paper-2", domain.StageSummarize).
			Return(&domain.StageResult{Content: "summary two"}, nil)
		mockComparisonRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Comparison) bool {
			return c.ID == "comparison-1" &&
				len(c.PaperIDs) == 2 &&
				c.Content == "analysis output"
		})).Return(nil)

		comparison, err := svc.Compare(ctx, []string{"paper-1", "paper-2"})
		require.NoError(t, err)
		assert.Equal(t, "comparison-1", comparison.ID)
		mockComparisonRepo.AssertExpectations(t)
	})

	t.Run("requires at least two papers", func(t *testing.T) {
		svc := NewCompareService(new(MockPaperRepository), new(MockStageResultRepository),
			new(MockComparisonRepository), &fakeLLM{})

		_, err := svc.Compare(ctx, []string{"paper-1"})
		require.Error(t, err)
		var derr *domain.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, domain.ErrCodeValidation, derr.Code)
	})

	t.Run("requires every paper to have been analyzed", func(t *testing.T) {
		mockPaperRepo := new(MockPaperRepository)
		mockStageResultRepo := new(MockStageResultRepository)

		svc := NewCompareService(mockPaperRepo, mockStageResultRepo, new(MockComparisonRepository), &fakeLLM{})

		mockPaperRepo.On("GetByID", mock.Anything, "paper-1").
			Return(&domain.Paper{ID: "paper-1", Title: "Paper One"}, nil)
		mockStageResultRepo.On("GetLatest", mock.Anything, "paper-1", domain.StageSummarize).
			Return(nil, domain.ErrPaperNotAnalyzed)

		_, err := svc.Compare(ctx, []string{"paper-1", "paper-2"})
		assert.ErrorIs(t, err, domain.ErrPaperNotAnalyzed)
	})
}
