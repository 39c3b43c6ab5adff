package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reslab/paperlens/internal/domain"
)

func TestStagePrompt_IncludesInput(t *testing.T) {
	for _, stage := range domain.Stages() {
		t.Run(string(stage), func(t *testing.T) {
			prompt, err := StagePrompt(domain.PromptTypeDefault, stage, "THE INPUT TEXT")
			require.NoError(t, err)
			assert.Contains(t, prompt, "THE INPUT TEXT")
			assert.Greater(t, len(prompt), len("THE INPUT TEXT"))
		})
	}
}

func TestStagePrompt_TypeVariants(t *testing.T) {
	def, err := StagePrompt(domain.PromptTypeDefault, domain.StageSummarize, "x")
	require.NoError(t, err)
	quick, err := StagePrompt(domain.PromptTypeQuick, domain.StageSummarize, "x")
	require.NoError(t, err)
	assert.NotEqual(t, def, quick)
	assert.Contains(t, quick, "quick triage")

	meth, err := StagePrompt(domain.PromptTypeMethodology, domain.StageReason, "x")
	require.NoError(t, err)
	assert.Contains(t, meth, "Reproducibility")

	contra, err := StagePrompt(domain.PromptTypeContradictions, domain.StageReason, "x")
	require.NoError(t, err)
	assert.Contains(t, contra, "disagreements")
}

func TestStagePrompt_RejectsUnknownType(t *testing.T) {
	_, err := StagePrompt(domain.PromptType("freeform"), domain.StageSummarize, "x")
	assert.ErrorIs(t, err, domain.ErrInvalidPromptType)
}

func TestStagePrompt_RejectsUnknownStage(t *testing.T) {
	_, err := StagePrompt(domain.PromptTypeDefault, domain.Stage("bogus"), "x")
	assert.Error(t, err)
}

func TestCitationsInput(t *testing.T) {
	in := CitationsInput("the analysis", []string{"10.1000/xyz", "arXiv:1706.03762"})
	assert.Contains(t, in, "the analysis")
	assert.Contains(t, in, "- 10.1000/xyz")
	assert.Contains(t, in, "- arXiv:1706.03762")

	empty := CitationsInput("the analysis", nil)
	assert.Contains(t, empty, "(none)")
}

func TestComparisonPrompt(t *testing.T) {
	p := ComparisonPrompt(
		[]string{"Paper A", "Paper B"},
		[]string{"summary a", "summary b"},
	)
	assert.Contains(t, p, "## Paper 1: Paper A")
	assert.Contains(t, p, "## Paper 2: Paper B")
	assert.Contains(t, p, "summary a")
	assert.Contains(t, p, "summary b")
}

func TestChatPrompt(t *testing.T) {
	p := ChatPrompt("Attention Is All You Need", "the analysis", "what about RNNs?")
	assert.Contains(t, p, "Attention Is All You Need")
	assert.Contains(t, p, "the analysis")
	assert.Contains(t, p, "what about RNNs?")
}
