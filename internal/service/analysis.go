package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/reslab/paperlens/internal/chunker"
	"github.com/reslab/paperlens/internal/citations"
	"github.com/reslab/paperlens/internal/domain"
	"github.com/reslab/paperlens/internal/pipeline"
	"github.com/reslab/paperlens/internal/telemetry"
)

// RunRepositoryInterface defines the repository interface for analysis run persistence
type RunRepositoryInterface interface {
	Create(ctx context.Context, run *domain.AnalysisRun) error
	GetByID(ctx context.Context, id string) (*domain.AnalysisRun, error)
	MarkStarted(ctx context.Context, id string) error
	MarkFinished(ctx context.Context, id string, status domain.RunStatus, lastStage domain.Stage, errMsg string) error
	UpdateProgress(ctx context.Context, id string, lastStage domain.Stage) error
	IncrementRetries(ctx context.Context, id string) error
	RequeueForRetry(ctx context.Context, id string) error
	ListPending(ctx context.Context, limit int) ([]*domain.AnalysisRun, error)
	ListByPaper(ctx context.Context, paperID string) ([]*domain.AnalysisRun, error)
	HasActiveRun(ctx context.Context, paperID string) (bool, error)
}

// StageResultRepositoryInterface defines the repository interface for stage result persistence
type StageResultRepositoryInterface interface {
	Append(ctx context.Context, sr *domain.StageResult) error
	ListByRun(ctx context.Context, runID string) ([]*domain.StageResult, error)
	ListByPaper(ctx context.Context, paperID string) ([]*domain.StageResult, error)
	GetLatest(ctx context.Context, paperID string, stage domain.Stage) (*domain.StageResult, error)
}

// CitationRepositoryInterface defines the repository interface for citation persistence
type CitationRepositoryInterface interface {
	Upsert(ctx context.Context, c *domain.CitationRecord) error
	ListByPaper(ctx context.Context, paperID string) ([]*domain.CitationRecord, error)
}

// Enricher looks up citation metadata from an external catalog. Enrichment is
// best effort and never blocks a run's success.
type Enricher interface {
	EnrichCitations(ctx context.Context, records []*domain.CitationRecord, maxEnrichments int)
}

// AnalysisConfig controls run execution bookkeeping.
type AnalysisConfig struct {
	// MaxRetries bounds how often a run is requeued after a transient
	// collaborator failure.
	MaxRetries int
	// ReportDir is where exported markdown reports land.
	ReportDir string
	// MaxEnrichments caps external catalog lookups per run.
	MaxEnrichments int
}

// DefaultAnalysisConfig provides sane defaults for run execution.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		MaxRetries:     3,
		ReportDir:      "reports",
		MaxEnrichments: 10,
	}
}

// liveRun mirrors what an in-flight run has produced so far, for polling.
type liveRun struct {
	mu      sync.Mutex
	stage   domain.Stage
	partial strings.Builder
}

// AnalysisService owns the run lifecycle: queueing, pipeline execution,
// persistence of stage results and citations, and report export.
type AnalysisService struct {
	runRepo         RunRepositoryInterface
	stageResultRepo StageResultRepositoryInterface
	citationRepo    CitationRepositoryInterface
	paperRepo       PaperRepositoryInterface
	chunkRepo       ChunkRepositoryInterface
	runner          *pipeline.Runner
	enricher        Enricher
	cfg             AnalysisConfig
	uuidGen         UUIDGenerator

	mu   sync.RWMutex
	live map[string]*liveRun
}

// NewAnalysisService creates a new AnalysisService instance. enricher may be
// nil to disable citation enrichment.
func NewAnalysisService(
	runRepo RunRepositoryInterface,
	stageResultRepo StageResultRepositoryInterface,
	citationRepo CitationRepositoryInterface,
	paperRepo PaperRepositoryInterface,
	chunkRepo ChunkRepositoryInterface,
	runner *pipeline.Runner,
	enricher Enricher,
	cfg AnalysisConfig,
) *AnalysisService {
	def := DefaultAnalysisConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.ReportDir == "" {
		cfg.ReportDir = def.ReportDir
	}
	if cfg.MaxEnrichments <= 0 {
		cfg.MaxEnrichments = def.MaxEnrichments
	}
	return &AnalysisService{
		runRepo:         runRepo,
		stageResultRepo: stageResultRepo,
		citationRepo:    citationRepo,
		paperRepo:       paperRepo,
		chunkRepo:       chunkRepo,
		runner:          runner,
		enricher:        enricher,
		cfg:             cfg,
		uuidGen:         &DefaultUUIDGenerator{},
		live:            make(map[string]*liveRun),
	}
}

// NewAnalysisServiceWithUUIDGen creates a new AnalysisService with custom UUID generator (for testing)
func NewAnalysisServiceWithUUIDGen(
	runRepo RunRepositoryInterface,
	stageResultRepo StageResultRepositoryInterface,
	citationRepo CitationRepositoryInterface,
	paperRepo PaperRepositoryInterface,
	chunkRepo ChunkRepositoryInterface,
	runner *pipeline.Runner,
	enricher Enricher,
	cfg AnalysisConfig,
	uuidGen UUIDGenerator,
) *AnalysisService {
	s := NewAnalysisService(runRepo, stageResultRepo, citationRepo, paperRepo, chunkRepo, runner, enricher, cfg)
	s.uuidGen = uuidGen
	return s
}

// StartInput represents the input for starting an analysis run
type StartInput struct {
	PaperID    string
	PromptType domain.PromptType
}

// Start queues a new analysis run for a paper. A paper can have only one
// pending or running run at a time.
func (s *AnalysisService) Start(ctx context.Context, input StartInput) (*domain.AnalysisRun, error) {
	ctx, span := telemetry.StartSpan(ctx, "AnalysisService.Start", telemetry.SpanAttributes{
		PaperID:   input.PaperID,
		Operation: "start",
	})
	defer span.End()

	promptType := input.PromptType
	if promptType == "" {
		promptType = domain.PromptTypeDefault
	}
	if err := domain.ValidatePromptType(promptType); err != nil {
		return nil, err
	}

	if _, err := s.paperRepo.GetByID(ctx, input.PaperID); err != nil {
		return nil, err
	}

	active, err := s.runRepo.HasActiveRun(ctx, input.PaperID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, domain.ErrRunAlreadyActive
	}

	run := domain.NewAnalysisRun(s.uuidGen.NewString(), input.PaperID, promptType, time.Now().UTC())
	if err := domain.ValidateAnalysisRun(run); err != nil {
		return nil, err
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// Execute drives one queued run through the pipeline, persisting stage
// results as they complete. Transient collaborator failures requeue the run
// until the retry budget is spent; everything else finishes it.
func (s *AnalysisService) Execute(ctx context.Context, run *domain.AnalysisRun) error {
	ctx, span := telemetry.StartSpan(ctx, "AnalysisService.Execute", telemetry.SpanAttributes{
		PaperID:   run.PaperID,
		RunID:     run.ID,
		Operation: "execute",
	})
	defer span.End()

	if err := s.runRepo.MarkStarted(ctx, run.ID); err != nil {
		return err
	}

	paper, err := s.paperRepo.GetByID(ctx, run.PaperID)
	if err != nil {
		return s.finish(ctx, run, pipeline.Result{Status: domain.RunStatusFailed, Err: err}, nil)
	}

	stored, err := s.chunkRepo.ListByPaper(ctx, run.PaperID)
	if err != nil {
		return s.finish(ctx, run, pipeline.Result{Status: domain.RunStatusFailed, Err: err}, nil)
	}
	chunks := make([]chunker.Chunk, 0, len(stored))
	for _, c := range stored {
		chunks = append(chunks, chunker.Chunk{Index: c.Index, Text: c.Text, EndsMidSection: c.EndsMidSection})
	}

	// Identifiers come from the full text, not from stage output; the
	// collaborator only organizes what the patterns found.
	found := citations.Extract(paper.Text)
	identifiers := make([]string, 0, len(found))
	for _, id := range found {
		identifiers = append(identifiers, fmt.Sprintf("%s:%s", id.Type, id.Value))
	}

	lr := s.register(run.ID)
	defer s.unregister(run.ID)

	onStage := func(out pipeline.StageOutput) error {
		sr := &domain.StageResult{
			ID:         s.uuidGen.NewString(),
			RunID:      run.ID,
			PaperID:    run.PaperID,
			Stage:      out.Stage,
			Content:    out.Content,
			Model:      s.runner.Model(),
			DurationMS: out.DurationMS,
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.stageResultRepo.Append(ctx, sr); err != nil {
			return err
		}
		if err := s.runRepo.UpdateProgress(ctx, run.ID, out.Stage); err != nil {
			return err
		}
		if err := s.paperRepo.UpdateState(ctx, run.PaperID, out.Stage.CompletedState()); err != nil {
			return err
		}
		if out.Stage == domain.StageCitations {
			s.persistCitations(ctx, run.PaperID, found)
		}
		return nil
	}

	onEvent := func(e pipeline.Event) {
		lr.mu.Lock()
		defer lr.mu.Unlock()
		switch e.Kind {
		case pipeline.EventStageStarted:
			lr.stage = e.Stage
			lr.partial.Reset()
		case pipeline.EventDelta:
			lr.partial.WriteString(e.Delta)
		}
	}

	result := s.runner.Run(ctx, pipeline.Input{
		PromptType:  run.PromptType,
		Chunks:      chunks,
		Identifiers: identifiers,
	}, onStage, onEvent)

	if result.Err != nil && domain.IsTransientCollaboratorError(result.Err) && run.RetryCount < s.cfg.MaxRetries {
		log.Printf("run %s: transient failure, requeueing (retry %d/%d): %v",
			run.ID, run.RetryCount+1, s.cfg.MaxRetries, result.Err)
		if err := s.runRepo.IncrementRetries(ctx, run.ID); err != nil {
			return err
		}
		return s.runRepo.RequeueForRetry(ctx, run.ID)
	}

	return s.finish(ctx, run, result, paper)
}

func (s *AnalysisService) finish(ctx context.Context, run *domain.AnalysisRun, result pipeline.Result, paper *domain.Paper) error {
	errMsg := ""
	if result.Err != nil {
		errMsg = result.Err.Error()
	}
	if err := s.runRepo.MarkFinished(ctx, run.ID, result.Status, result.LastStage, errMsg); err != nil {
		return err
	}

	if paper != nil && result.LastStage != "" {
		// Reports are best effort; the stage results are the source of truth.
		if _, err := s.writeReport(ctx, run.ID, paper); err != nil {
			log.Printf("run %s: writing report failed: %v", run.ID, err)
		}
	}
	return result.Err
}

// persistCitations stores extracted identifiers and enriches them from the
// external catalog when one is configured. Failures are logged, never fatal.
func (s *AnalysisService) persistCitations(ctx context.Context, paperID string, found []citations.Identifier) {
	if len(found) == 0 {
		return
	}

	now := time.Now().UTC()
	records := make([]*domain.CitationRecord, 0, len(found))
	for i, id := range found {
		records = append(records, &domain.CitationRecord{
			ID:         s.uuidGen.NewString(),
			PaperID:    paperID,
			Type:       id.Type,
			Identifier: id.Value,
			Position:   i,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	for _, rec := range records {
		if err := s.citationRepo.Upsert(ctx, rec); err != nil {
			log.Printf("paper %s: storing citation %s failed: %v", paperID, rec.Identifier, err)
		}
	}

	if s.enricher == nil {
		return
	}
	s.enricher.EnrichCitations(ctx, records, s.cfg.MaxEnrichments)
	for _, rec := range records {
		if !rec.Enriched {
			continue
		}
		rec.UpdatedAt = time.Now().UTC()
		if err := s.citationRepo.Upsert(ctx, rec); err != nil {
			log.Printf("paper %s: updating enriched citation %s failed: %v", paperID, rec.Identifier, err)
		}
	}
}

func (s *AnalysisService) register(runID string) *liveRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	lr := &liveRun{}
	s.live[runID] = lr
	return lr
}

func (s *AnalysisService) unregister(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, runID)
}

// StatusOutput is a snapshot of a run, including partial in-flight content
// for active runs.
type StatusOutput struct {
	Run            *domain.AnalysisRun
	CurrentStage   domain.Stage
	PartialContent string
}

// Status returns the run together with live progress when it is executing.
func (s *AnalysisService) Status(ctx context.Context, runID string) (*StatusOutput, error) {
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	out := &StatusOutput{Run: run}
	s.mu.RLock()
	lr := s.live[runID]
	s.mu.RUnlock()
	if lr != nil {
		lr.mu.Lock()
		out.CurrentStage = lr.stage
		out.PartialContent = lr.partial.String()
		lr.mu.Unlock()
	}
	return out, nil
}

// GetRun retrieves a run with its stage results.
func (s *AnalysisService) GetRun(ctx context.Context, runID string) (*domain.AnalysisRun, []*domain.StageResult, error) {
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	results, err := s.stageResultRepo.ListByRun(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	return run, results, nil
}

// History retrieves a paper's full stage-result history, oldest first.
func (s *AnalysisService) History(ctx context.Context, paperID string) ([]*domain.StageResult, error) {
	return s.stageResultRepo.ListByPaper(ctx, paperID)
}

// ListRuns retrieves a paper's runs, newest first.
func (s *AnalysisService) ListRuns(ctx context.Context, paperID string) ([]*domain.AnalysisRun, error) {
	return s.runRepo.ListByPaper(ctx, paperID)
}

// Citations retrieves a paper's citation records in first-seen order.
func (s *AnalysisService) Citations(ctx context.Context, paperID string) ([]*domain.CitationRecord, error) {
	return s.citationRepo.ListByPaper(ctx, paperID)
}

// ReportPath returns where a run's exported report lives on disk.
func (s *AnalysisService) ReportPath(runID string) string {
	return filepath.Join(s.cfg.ReportDir, runID+".md")
}

// ExportReport writes the markdown report for a finished run, returning its
// path. The report is regenerated if already present.
func (s *AnalysisService) ExportReport(ctx context.Context, runID string) (string, error) {
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return "", err
	}
	if !run.Status.IsTerminal() {
		return "", domain.ErrReportNotFound
	}
	paper, err := s.paperRepo.GetByID(ctx, run.PaperID)
	if err != nil {
		return "", err
	}
	return s.writeReport(ctx, runID, paper)
}

func (s *AnalysisService) writeReport(ctx context.Context, runID string, paper *domain.Paper) (string, error) {
	results, err := s.stageResultRepo.ListByRun(ctx, runID)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", domain.ErrReportNotFound
	}

	title := paper.Title
	if title == "" {
		title = paper.Filename
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Analysis Report: %s\n\n", title)
	fmt.Fprintf(&sb, "Generated: %s\n\n", time.Now().UTC().Format(time.RFC3339))
	for _, sr := range results {
		fmt.Fprintf(&sb, "## Stage %d: %s\n\n%s\n\n", sr.Stage.Number(), sr.Stage, sr.Content)
	}

	if err := os.MkdirAll(s.cfg.ReportDir, 0o755); err != nil {
		return "", err
	}
	path := s.ReportPath(runID)
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
