// Package pipeline runs the four-stage analysis over a chunked paper:
// summarize, reason, citations, directions. Each stage consumes the previous
// stage's output; a stage failure keeps completed results and skips the rest.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reslab/paperlens/internal/chunker"
	"github.com/reslab/paperlens/internal/domain"
	"github.com/reslab/paperlens/internal/prompts"
)

const (
	minWorkers = 1
	maxWorkers = 8

	elisionMarker = "\n\n[... middle truncated ...]\n\n"
)

// Collaborator is the LLM client the pipeline calls once per stage
// transition (once per chunk for the summarize stage).
type Collaborator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteStreaming(ctx context.Context, prompt string, onDelta func(string)) (string, error)
	Model() string
}

// Config controls pipeline execution.
type Config struct {
	// Workers bounds the summarize-stage fan-out, clamped to [1, 8].
	Workers int
	// MaxStageInput is the per-stage input budget in characters. Larger
	// inputs are middle-truncated keeping head and tail.
	MaxStageInput int
}

// DefaultConfig provides sane defaults for pipeline execution.
func DefaultConfig() Config {
	return Config{
		Workers:       4,
		MaxStageInput: 100000,
	}
}

// EventKind identifies a streamed pipeline event.
type EventKind string

const (
	EventStageStarted   EventKind = "stage_started"
	EventDelta          EventKind = "delta"
	EventStageCompleted EventKind = "stage_completed"
)

// Event is one streamed pipeline notification.
type Event struct {
	Kind  EventKind
	Stage domain.Stage
	Delta string
}

// StageOutput is the outcome of one completed stage.
type StageOutput struct {
	Stage      domain.Stage
	Content    string
	DurationMS int64
}

// Result is the terminal outcome of a pipeline run.
type Result struct {
	Status    domain.RunStatus
	LastStage domain.Stage // last successfully completed stage, empty if none
	Err       error        // cause of a non-completed status
}

// Input is everything a run needs up front.
type Input struct {
	PromptType  domain.PromptType
	Chunks      []chunker.Chunk
	Identifiers []string // citation identifiers found in the full text
}

// Runner executes analysis runs.
type Runner struct {
	llm Collaborator
	cfg Config
}

// New creates a Runner. Config values outside their valid ranges are clamped
// to defaults.
func New(llm Collaborator, cfg Config) *Runner {
	def := DefaultConfig()
	if cfg.Workers < minWorkers {
		cfg.Workers = def.Workers
	}
	if cfg.Workers > maxWorkers {
		cfg.Workers = maxWorkers
	}
	if cfg.MaxStageInput <= 0 {
		cfg.MaxStageInput = def.MaxStageInput
	}
	return &Runner{llm: llm, cfg: cfg}
}

// Model reports the collaborator model name used for stage calls.
func (r *Runner) Model() string {
	return r.llm.Model()
}

// Run drives all four stages in order. onStage is invoked once per completed
// stage with its output; if it returns an error the run stops there, since an
// unpersisted result must not unlock the next stage. onEvent, when non-nil,
// receives progress events including streamed text deltas.
func (r *Runner) Run(ctx context.Context, in Input, onStage func(StageOutput) error, onEvent func(Event)) Result {
	emit := func(e Event) {
		if onEvent != nil {
			onEvent(e)
		}
	}

	var lastStage domain.Stage
	var prevOutput string

	finish := func(err error) Result {
		status := domain.RunStatusCompleted
		if err != nil {
			if lastStage == "" {
				status = domain.RunStatusFailed
			} else {
				status = domain.RunStatusPartiallyFailed
			}
		}
		return Result{Status: status, LastStage: lastStage, Err: err}
	}

	for _, stage := range domain.Stages() {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		emit(Event{Kind: EventStageStarted, Stage: stage})
		started := time.Now()

		var content string
		var err error
		if stage == domain.StageSummarize {
			content, err = r.summarize(ctx, in, emit)
		} else {
			input := truncateMiddle(r.stageInput(stage, prevOutput, in), r.cfg.MaxStageInput)
			var prompt string
			prompt, err = prompts.StagePrompt(in.PromptType, stage, input)
			if err == nil {
				content, err = r.llm.CompleteStreaming(ctx, prompt, func(delta string) {
					emit(Event{Kind: EventDelta, Stage: stage, Delta: delta})
				})
			}
		}
		if err != nil {
			return finish(fmt.Errorf("stage %s: %w", stage, err))
		}

		out := StageOutput{
			Stage:      stage,
			Content:    content,
			DurationMS: time.Since(started).Milliseconds(),
		}
		if err := onStage(out); err != nil {
			return finish(fmt.Errorf("persisting stage %s: %w", stage, err))
		}

		lastStage = stage
		prevOutput = content
		emit(Event{Kind: EventStageCompleted, Stage: stage})
	}

	return finish(nil)
}

// stageInput builds the raw input for stages after summarize.
func (r *Runner) stageInput(stage domain.Stage, prevOutput string, in Input) string {
	if stage == domain.StageCitations {
		return prompts.CitationsInput(prevOutput, in.Identifiers)
	}
	return prevOutput
}

// summarize fans out one collaborator call per chunk through a bounded
// worker pool, then merges the per-chunk summaries in chunk order. The merge
// is a barrier: every chunk call finishes or fails before the next stage.
func (r *Runner) summarize(ctx context.Context, in Input, emit func(Event)) (string, error) {
	if len(in.Chunks) == 0 {
		return "", fmt.Errorf("no chunks to summarize")
	}

	if len(in.Chunks) == 1 {
		prompt, err := prompts.StagePrompt(in.PromptType, domain.StageSummarize,
			truncateMiddle(in.Chunks[0].Text, r.cfg.MaxStageInput))
		if err != nil {
			return "", err
		}
		return r.llm.CompleteStreaming(ctx, prompt, func(delta string) {
			emit(Event{Kind: EventDelta, Stage: domain.StageSummarize, Delta: delta})
		})
	}

	summaries := make([]string, len(in.Chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	for _, ch := range in.Chunks {
		g.Go(func() error {
			prompt, err := prompts.StagePrompt(in.PromptType, domain.StageSummarize,
				truncateMiddle(ch.Text, r.cfg.MaxStageInput))
			if err != nil {
				return err
			}
			summary, err := r.llm.Complete(gctx, prompt)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", ch.Index, err)
			}
			summaries[ch.Index] = summary
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", err
	}

	return mergeSummaries(summaries), nil
}

// mergeSummaries concatenates per-chunk summaries in chunk order with
// boundary markers so later stages can tell sections apart.
func mergeSummaries(summaries []string) string {
	var sb strings.Builder
	for i, s := range summaries {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "--- Chunk %d of %d ---\n\n", i+1, len(summaries))
		sb.WriteString(s)
	}
	return sb.String()
}

// truncateMiddle bounds text to max runes by removing the middle, keeping an
// equal head and tail around an elision marker. Head and tail matter most in
// papers: the front carries the framing, the back the conclusions.
func truncateMiddle(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}

	marker := len([]rune(elisionMarker))
	keep := max - marker
	if keep < 2 {
		return string(runes[:max])
	}

	head := keep / 2
	tail := keep - head
	return string(runes[:head]) + elisionMarker + string(runes[len(runes)-tail:])
}
