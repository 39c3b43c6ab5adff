package domain

import (
	"fmt"
	"time"
)

// Stage identifies one step of the four-stage analysis pipeline.
type Stage string

const (
	StageSummarize  Stage = "summarize"
	StageReason     Stage = "reason"
	StageCitations  Stage = "citations"
	StageDirections Stage = "directions"
)

// Stages returns the pipeline stages in execution order.
func Stages() []Stage {
	return []Stage{StageSummarize, StageReason, StageCitations, StageDirections}
}

// Number returns the 1-based position of the stage in the pipeline, 0 for an
// unknown stage.
func (s Stage) Number() int {
	switch s {
	case StageSummarize:
		return 1
	case StageReason:
		return 2
	case StageCitations:
		return 3
	case StageDirections:
		return 4
	}
	return 0
}

// CompletedState returns the paper state reached when the stage finishes.
func (s Stage) CompletedState() PaperState {
	switch s {
	case StageSummarize:
		return PaperStateSummarized
	case StageReason:
		return PaperStateReasoned
	case StageCitations:
		return PaperStateCitationsFound
	case StageDirections:
		return PaperStateDirectionsProposed
	}
	return PaperStateExtracted
}

// RunStatus represents the lifecycle status of an analysis run.
type RunStatus string

const (
	RunStatusPending         RunStatus = "pending"
	RunStatusRunning         RunStatus = "running"
	RunStatusCompleted       RunStatus = "completed"
	RunStatusPartiallyFailed RunStatus = "partially_failed"
	RunStatusFailed          RunStatus = "failed"
)

// IsTerminal reports whether the status is a final one.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusPartiallyFailed, RunStatusFailed:
		return true
	}
	return false
}

// AnalysisRun represents one execution of the pipeline against a paper.
type AnalysisRun struct {
	ID         string
	PaperID    string
	PromptType PromptType
	Status     RunStatus
	LastStage  Stage // last successfully completed stage, empty if none
	Error      string
	RetryCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// StageResult is one persisted stage output. Results are append-only:
// re-running a stage adds a new entry with a higher Seq, it never overwrites.
type StageResult struct {
	ID         string
	RunID      string
	PaperID    string
	Stage      Stage
	Seq        int
	Content    string
	Model      string
	DurationMS int64
	CreatedAt  time.Time
}

// Comparison is the stored output of a multi-paper comparison.
type Comparison struct {
	ID        string
	PaperIDs  []string
	Content   string
	CreatedAt time.Time
}

// NewAnalysisRun creates a pending AnalysisRun.
func NewAnalysisRun(id, paperID string, promptType PromptType, createdAt time.Time) *AnalysisRun {
	return &AnalysisRun{
		ID:         id,
		PaperID:    paperID,
		PromptType: promptType,
		Status:     RunStatusPending,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

// ValidateAnalysisRun validates an AnalysisRun instance.
func ValidateAnalysisRun(r *AnalysisRun) error {
	if r == nil {
		return fmt.Errorf("analysis run cannot be nil")
	}

	if r.ID == "" {
		return fmt.Errorf("analysis run ID is required")
	}

	if r.PaperID == "" {
		return fmt.Errorf("analysis run PaperID is required")
	}

	if !isValidRunStatus(r.Status) {
		return fmt.Errorf("analysis run Status is invalid: %s", r.Status)
	}

	if !isValidPromptType(r.PromptType) {
		return fmt.Errorf("analysis run PromptType is invalid: %s", r.PromptType)
	}

	if r.LastStage != "" && !isValidStage(r.LastStage) {
		return fmt.Errorf("analysis run LastStage is invalid: %s", r.LastStage)
	}

	return nil
}

// ValidateStageResult validates a StageResult instance.
func ValidateStageResult(sr *StageResult) error {
	if sr == nil {
		return fmt.Errorf("stage result cannot be nil")
	}

	if sr.ID == "" {
		return fmt.Errorf("stage result ID is required")
	}

	if sr.RunID == "" {
		return fmt.Errorf("stage result RunID is required")
	}

	if sr.PaperID == "" {
		return fmt.Errorf("stage result PaperID is required")
	}

	if !isValidStage(sr.Stage) {
		return fmt.Errorf("stage result Stage is invalid: %s", sr.Stage)
	}

	if sr.Seq < 0 {
		return fmt.Errorf("stage result Seq must not be negative")
	}

	return nil
}

// ValidateComparison validates a Comparison instance.
func ValidateComparison(c *Comparison) error {
	if c == nil {
		return fmt.Errorf("comparison cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("comparison ID is required")
	}

	if len(c.PaperIDs) < 2 {
		return fmt.Errorf("comparison requires at least two papers")
	}

	return nil
}

// isValidStage checks if a Stage is valid.
func isValidStage(s Stage) bool {
	switch s {
	case StageSummarize, StageReason, StageCitations, StageDirections:
		return true
	}
	return false
}

// isValidRunStatus checks if a RunStatus is valid.
func isValidRunStatus(s RunStatus) bool {
	switch s {
	case RunStatusPending, RunStatusRunning, RunStatusCompleted,
		RunStatusPartiallyFailed, RunStatusFailed:
		return true
	}
	return false
}
