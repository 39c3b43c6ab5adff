// Package citations extracts citation identifiers from paper text using
// pattern matching only. No network access; enrichment happens elsewhere.
package citations

import (
	"regexp"
	"sort"
	"strings"

	"github.com/reslab/paperlens/internal/domain"
)

var (
	doiPattern   = regexp.MustCompile(`10\.\d{4,}/[^\s\]>,]+`)
	arxivPattern = regexp.MustCompile(`(?i)arXiv:(\d{4}\.\d{4,5}(?:v\d+)?)`)
	pmidPattern  = regexp.MustCompile(`PMID[:\s]*(\d+)`)
	pmcPattern   = regexp.MustCompile(`PMC\d+`)

	// DOIs picked out of running text often drag trailing punctuation along.
	doiTrailing = regexp.MustCompile(`[.,;:\]>]+$`)
)

// Identifier is a citation identifier found in text.
type Identifier struct {
	Type  domain.IdentifierType
	Value string
}

// Extract scans text for DOI, arXiv, PMID and PMC identifiers. Duplicates are
// removed keeping first-seen order; the order is by first occurrence in the
// text, across all identifier types. An empty result is normal for texts
// without recognizable citations.
func Extract(text string) []Identifier {
	if text == "" {
		return nil
	}

	type match struct {
		pos int
		id  Identifier
	}
	var matches []match

	for _, loc := range doiPattern.FindAllStringIndex(text, -1) {
		value := doiTrailing.ReplaceAllString(text[loc[0]:loc[1]], "")
		matches = append(matches, match{loc[0], Identifier{domain.IdentifierTypeDOI, value}})
	}
	for _, loc := range arxivPattern.FindAllStringSubmatchIndex(text, -1) {
		matches = append(matches, match{loc[0], Identifier{domain.IdentifierTypeArXiv, text[loc[2]:loc[3]]}})
	}
	for _, loc := range pmidPattern.FindAllStringSubmatchIndex(text, -1) {
		matches = append(matches, match{loc[0], Identifier{domain.IdentifierTypePMID, text[loc[2]:loc[3]]}})
	}
	for _, loc := range pmcPattern.FindAllStringIndex(text, -1) {
		matches = append(matches, match{loc[0], Identifier{domain.IdentifierTypePMC, text[loc[0]:loc[1]]}})
	}

	// Matches were collected per pattern; restore text order before dedup so
	// first-seen order is by position, not by identifier type.
	sort.Slice(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

	seen := make(map[string]bool, len(matches))
	out := make([]Identifier, 0, len(matches))
	for _, m := range matches {
		key := string(m.id.Type) + "|" + normalize(m.id)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m.id)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func normalize(id Identifier) string {
	switch id.Type {
	case domain.IdentifierTypeDOI, domain.IdentifierTypePMC:
		return strings.ToLower(id.Value)
	}
	return id.Value
}
