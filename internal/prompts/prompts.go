// Package prompts holds the instructional templates for each analysis stage.
// Templates are fixed per prompt type; callers never supply free-form prompt
// text.
package prompts

import (
	"fmt"
	"strings"

	"github.com/reslab/paperlens/internal/domain"
)

const summarizeInstructions = `You are a research synthesis agent helping researchers deeply understand academic papers.

Extract from the text below:

**Core Elements:**
- Main thesis/research question
- Methodology (study design, data sources, analysis approach)
- Key findings and claims
- Evidence quality (sample size, statistical methods, limitations acknowledged)

**Context:**
- Field/discipline positioning
- Key terms and definitions used
- Theoretical framework or assumptions

Present this as a structured markdown summary. The text may be one section of
a longer paper; summarize what is present without speculating about the rest.`

const quickSummarizeInstructions = `Provide a concise summary of the text below:
- Main argument (2-3 sentences)
- Key findings (bullet points)
- Methodology (1 sentence)
- Limitations noted

Keep it brief - this is for quick triage.`

const reasonInstructions = `Below is a structured summary of a research paper. Go deeper. Analyze:

**Connections & Patterns:**
- Non-obvious connections between the concepts
- Shared assumptions (stated or unstated)
- Complementary findings that strengthen each other

**Critical Analysis:**
- Contradictions or internal tensions
- Claims that lack sufficient evidence
- Methodological limitations the authors may have overlooked
- Potential confounding factors not addressed
- Assumptions that deserve scrutiny

**Gaps & Silences:**
- What questions does this paper NOT answer?
- What perspectives or populations are missing?
- What alternative explanations weren't considered?
- What would strengthen or challenge these findings?

Be specific - cite sections when possible.`

const methodologyReasonInstructions = `Below is a structured summary of a research paper. Focus specifically on methodology:

1. **Study Design**: What type of study? (experimental, observational, review, etc.)
2. **Data**: Sources, sample sizes, collection methods
3. **Analysis**: Statistical or qualitative methods used
4. **Validity**: Internal and external validity considerations
5. **Reproducibility**: Could this be replicated? What's missing?

Identify methodological strengths, weaknesses, and best practices.`

const contradictionsReasonInstructions = `Below is a structured summary of a research paper. Your task is to find disagreements and tensions:

1. Identify claims within the paper that contradict each other
2. Note where the paper's claims conflict with established results it cites
3. Note methodological choices that might explain contradictions
4. Highlight areas of genuine scientific disagreement
5. Suggest what evidence would resolve the contradictions

Be a critical reader - don't assume the paper's claims are equally valid.`

const citationsInstructions = `Below is an analysis of a research paper, followed by the citation identifiers
found in its text. For each identifier, explain in one or two sentences what
role the cited work appears to play in the paper's argument (foundation,
methodology source, point of comparison, or contested claim). If the list is
empty, state that the paper contains no recognizable citation identifiers and
assess how that affects confidence in its claims.`

const directionsInstructions = `Based on the analysis below, propose 3-5 specific follow-up literature searches.

For each suggestion, provide:
1. **Search query**: Specific terms to search for
2. **Rationale**: Why this would add value (connect to specific gaps identified)
3. **Expected value**: What you hope to find and how it would deepen understanding

Categories to consider:
- Foundational context (seminal works this paper builds on)
- Counter-arguments (papers that challenge these conclusions)
- Methodological alternatives (different approaches to the same questions)
- Adjacent fields (insights from related disciplines)
- Recent developments (newer work that extends or revises these findings)`

const comparisonInstructions = `You are comparing research papers. For the papers summarized below:

- Compare their research questions, methodologies, and key findings
- Identify complementary results and genuine disagreements
- Note methodological differences that might explain divergent conclusions
- Summarize which claims are best supported across the set

Use clear markdown with a comparison table where useful.`

const chatInstructions = `You are answering a follow-up question about a research paper that was
previously analyzed. Ground your answer in the analysis below; say so plainly
when the analysis does not cover the question.`

// StagePrompt builds the full prompt for one pipeline stage: the type- and
// stage-specific instructions followed by the stage input.
func StagePrompt(pt domain.PromptType, stage domain.Stage, input string) (string, error) {
	if err := domain.ValidatePromptType(pt); err != nil {
		return "", err
	}

	var instructions string
	switch stage {
	case domain.StageSummarize:
		instructions = summarizeInstructions
		if pt == domain.PromptTypeQuick {
			instructions = quickSummarizeInstructions
		}
	case domain.StageReason:
		switch pt {
		case domain.PromptTypeMethodology:
			instructions = methodologyReasonInstructions
		case domain.PromptTypeContradictions:
			instructions = contradictionsReasonInstructions
		default:
			instructions = reasonInstructions
		}
	case domain.StageCitations:
		instructions = citationsInstructions
	case domain.StageDirections:
		instructions = directionsInstructions
	default:
		return "", fmt.Errorf("no template for stage %q", stage)
	}

	return instructions + "\n\n---\n\n" + input, nil
}

// CitationsInput renders the stage 3 input: the prior analysis plus the
// identifiers found in the paper text.
func CitationsInput(analysis string, identifiers []string) string {
	var sb strings.Builder
	sb.WriteString(analysis)
	sb.WriteString("\n\n## Citation identifiers found\n\n")
	if len(identifiers) == 0 {
		sb.WriteString("(none)\n")
		return sb.String()
	}
	for _, id := range identifiers {
		sb.WriteString("- ")
		sb.WriteString(id)
		sb.WriteString("\n")
	}
	return sb.String()
}

// ComparisonPrompt builds the prompt for a multi-paper comparison. Each entry
// is a paper title with its latest analysis summary.
func ComparisonPrompt(titles, summaries []string) string {
	var sb strings.Builder
	sb.WriteString(comparisonInstructions)
	for i := range titles {
		fmt.Fprintf(&sb, "\n\n---\n\n## Paper %d: %s\n\n%s", i+1, titles[i], summaries[i])
	}
	return sb.String()
}

// ChatPrompt builds the prompt for a follow-up question about an analyzed
// paper.
func ChatPrompt(title, analysis, question string) string {
	return fmt.Sprintf("%s\n\n---\n\n## Paper: %s\n\n%s\n\n---\n\nQuestion: %s",
		chatInstructions, title, analysis, question)
}
