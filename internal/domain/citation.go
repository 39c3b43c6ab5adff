package domain

import (
	"fmt"
	"time"
)

// IdentifierType classifies a citation identifier found in paper text.
type IdentifierType string

const (
	IdentifierTypeDOI   IdentifierType = "doi"
	IdentifierTypeArXiv IdentifierType = "arxiv"
	IdentifierTypePMID  IdentifierType = "pmid"
	IdentifierTypePMC   IdentifierType = "pmc"
)

// CitationRecord is a citation identifier extracted from a paper, optionally
// enriched with bibliographic metadata. A record exists per unique
// (paper, identifier) pair; enrichment updates metadata fields in place.
type CitationRecord struct {
	ID            string
	PaperID       string
	Type          IdentifierType
	Identifier    string
	Position      int // first-seen order within the paper, 0-based
	Title         string
	Authors       string
	Year          int
	Venue         string
	Abstract      string
	CitationCount int
	URL           string
	Enriched      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ValidateCitationRecord validates a CitationRecord instance.
func ValidateCitationRecord(c *CitationRecord) error {
	if c == nil {
		return fmt.Errorf("citation record cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("citation record ID is required")
	}

	if c.PaperID == "" {
		return fmt.Errorf("citation record PaperID is required")
	}

	if c.Identifier == "" {
		return fmt.Errorf("citation record Identifier is required")
	}

	if !isValidIdentifierType(c.Type) {
		return fmt.Errorf("citation record Type is invalid: %s", c.Type)
	}

	return nil
}

// isValidIdentifierType checks if an IdentifierType is valid.
func isValidIdentifierType(t IdentifierType) bool {
	switch t {
	case IdentifierTypeDOI, IdentifierTypeArXiv, IdentifierTypePMID, IdentifierTypePMC:
		return true
	}
	return false
}
