package service

import (
	"context"
	"errors"
	"strings"

	"github.com/reslab/paperlens/internal/domain"
	"github.com/reslab/paperlens/internal/prompts"
	"github.com/reslab/paperlens/internal/telemetry"
)

const defaultChatContextLimit = 100000

// ChatService answers follow-up questions about an analyzed paper.
type ChatService struct {
	paperRepo       PaperRepositoryInterface
	stageResultRepo StageResultRepositoryInterface
	llm             Collaborator
	contextLimit    int
}

// NewChatService creates a new ChatService instance.
func NewChatService(
	paperRepo PaperRepositoryInterface,
	stageResultRepo StageResultRepositoryInterface,
	llm Collaborator,
	contextLimit int,
) *ChatService {
	if contextLimit <= 0 {
		contextLimit = defaultChatContextLimit
	}
	return &ChatService{
		paperRepo:       paperRepo,
		stageResultRepo: stageResultRepo,
		llm:             llm,
		contextLimit:    contextLimit,
	}
}

// Ask answers a question about a paper using its latest stage results as
// context. The paper must have at least a completed summarize stage.
func (s *ChatService) Ask(ctx context.Context, paperID, question string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "ChatService.Ask", telemetry.SpanAttributes{
		PaperID:   paperID,
		Operation: "chat",
	})
	defer span.End()

	question = strings.TrimSpace(question)
	if question == "" {
		return "", domain.NewDomainError(domain.ErrCodeValidation, "question is required")
	}

	paper, err := s.paperRepo.GetByID(ctx, paperID)
	if err != nil {
		return "", err
	}

	analysis, err := s.latestAnalysis(ctx, paperID)
	if err != nil {
		return "", err
	}

	title := paper.Title
	if title == "" {
		title = paper.Filename
	}
	return s.llm.Complete(ctx, prompts.ChatPrompt(title, analysis, question))
}

// latestAnalysis joins the newest result of each completed stage, bounded to
// the context limit. At minimum the summarize stage must exist.
func (s *ChatService) latestAnalysis(ctx context.Context, paperID string) (string, error) {
	var parts []string
	for _, stage := range domain.Stages() {
		latest, err := s.stageResultRepo.GetLatest(ctx, paperID, stage)
		if errors.Is(err, domain.ErrPaperNotAnalyzed) {
			if stage == domain.StageSummarize {
				return "", err
			}
			break
		}
		if err != nil {
			return "", err
		}
		parts = append(parts, latest.Content)
	}

	analysis := strings.Join(parts, "\n\n")
	runes := []rune(analysis)
	if len(runes) > s.contextLimit {
		analysis = string(runes[:s.contextLimit])
	}
	return analysis, nil
}
