package domain

import (
	"fmt"
	"time"
)

// PaperState tracks how far a paper has progressed through the analysis
// pipeline. Each state is reached only after the corresponding stage result
// has been persisted.
type PaperState string

const (
	PaperStateExtracted          PaperState = "extracted"
	PaperStateSummarized         PaperState = "summarized"
	PaperStateReasoned           PaperState = "reasoned"
	PaperStateCitationsFound     PaperState = "citations_found"
	PaperStateDirectionsProposed PaperState = "directions_proposed"
)

// Paper represents an ingested research paper with its extracted text.
// Papers are immutable once stored; re-analysis appends new results.
type Paper struct {
	ID        string
	Filename  string
	Title     string
	Abstract  string
	SHA256    string
	PageCount int
	CharCount int
	Text      string
	State     PaperState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Chunk is one bounded, contiguous piece of a paper's text. Chunks are exact
// substrings: concatenating a paper's chunks in index order reproduces the
// extracted text.
type Chunk struct {
	ID             string
	PaperID        string
	Index          int
	Text           string
	EndsMidSection bool
	CreatedAt      time.Time
}

// NewPaper creates a new Paper in the extracted state.
func NewPaper(id, filename, title, abstract, sha256 string, pageCount int, text string, createdAt time.Time) *Paper {
	return &Paper{
		ID:        id,
		Filename:  filename,
		Title:     title,
		Abstract:  abstract,
		SHA256:    sha256,
		PageCount: pageCount,
		CharCount: len(text),
		Text:      text,
		State:     PaperStateExtracted,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// ValidatePaper validates a Paper instance.
func ValidatePaper(p *Paper) error {
	if p == nil {
		return fmt.Errorf("paper cannot be nil")
	}

	if p.ID == "" {
		return fmt.Errorf("paper ID is required")
	}

	if p.Filename == "" {
		return fmt.Errorf("paper Filename is required")
	}

	if p.SHA256 == "" {
		return fmt.Errorf("paper SHA256 is required")
	}

	if !isValidPaperState(p.State) {
		return fmt.Errorf("paper State is invalid: %s", p.State)
	}

	return nil
}

// ValidateChunk validates a Chunk instance.
func ValidateChunk(c *Chunk) error {
	if c == nil {
		return fmt.Errorf("chunk cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("chunk ID is required")
	}

	if c.PaperID == "" {
		return fmt.Errorf("chunk PaperID is required")
	}

	if c.Index < 0 {
		return fmt.Errorf("chunk Index must not be negative")
	}

	if c.Text == "" {
		return fmt.Errorf("chunk Text is required")
	}

	return nil
}

// isValidPaperState checks if a PaperState is valid.
func isValidPaperState(s PaperState) bool {
	switch s {
	case PaperStateExtracted, PaperStateSummarized, PaperStateReasoned,
		PaperStateCitationsFound, PaperStateDirectionsProposed:
		return true
	}
	return false
}
