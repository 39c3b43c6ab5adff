// Package extract turns uploaded PDF bytes into paper text and metadata.
package extract

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/reslab/paperlens/internal/domain"
)

// Paper holds the extracted content of one PDF.
type Paper struct {
	Filename   string
	SHA256     string
	Text       string
	Title      string
	Authors    string
	Abstract   string
	References []string
	DOI        string
	ArXivID    string
	PageCount  int
}

var (
	abstractPattern = regexp.MustCompile(`(?is)(?:^|\n)\s*abstract\s*[:\n]?\s*(.+?)\n\s*(?:introduction|1\.|keywords)`)
	refsPattern     = regexp.MustCompile(`(?is)(?:^|\n)\s*(?:references|bibliography)\s*\n(.+)`)
	refSplitPattern = regexp.MustCompile(`\n\s*(?:\[\d+\]|\d+\.|\(\d+\))\s*`)
	appendixPattern = regexp.MustCompile(`(?i)\n\s*appendix`)
	doiPattern      = regexp.MustCompile(`(?i)(?:doi[:\s]*|https?://(?:dx\.)?doi\.org/)?(10\.\d{4,}/[^\s\]>]+)`)
	doiTrailing     = regexp.MustCompile(`[.,;:\]>]+$`)
	arxivPattern    = regexp.MustCompile(`(?i)arXiv:(\d{4}\.\d{4,5}(?:v\d+)?)`)
)

const (
	maxAbstractLen  = 2000
	maxReferenceLen = 500
	maxReferences   = 100
)

// Extract parses PDF bytes into a Paper. Corrupt, encrypted or text-free
// input fails with an extraction error; extraction failures are
// unrecoverable and never retried.
func Extract(data []byte, filename string) (p *Paper, err error) {
	// The parser panics on some malformed files; treat that the same as a
	// parse error.
	defer func() {
		if r := recover(); r != nil {
			p = nil
			err = domain.NewDomainErrorWithCause(domain.ErrCodeExtractionFailed,
				"failed to extract text from PDF", fmt.Errorf("parser panic: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExtractionFailed,
			"failed to extract text from PDF", err)
	}

	sum := sha256.Sum256(data)
	paper := &Paper{
		Filename:  filename,
		SHA256:    hex.EncodeToString(sum[:]),
		PageCount: reader.NumPage(),
	}

	var parts []string
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExtractionFailed,
				fmt.Sprintf("failed to extract text from page %d", pageNum), err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("--- Page %d ---\n%s", pageNum, text))
	}

	paper.Text = strings.Join(parts, "\n\n")
	if paper.Text == "" {
		return nil, domain.ErrEmptyDocument
	}

	paper.Title, paper.Authors = titleAndAuthors(reader)
	paper.Abstract = extractAbstract(paper.Text)
	paper.References = extractReferences(paper.Text)
	paper.DOI = ExtractDOI(paper.Text)
	paper.ArXivID = ExtractArXivID(paper.Text)

	return paper, nil
}

// titleAndAuthors guesses title and author line from the first page layout.
// The title is usually the largest-font row; an author line follows it and
// tends to contain commas or "and".
func titleAndAuthors(reader *pdf.Reader) (string, string) {
	if reader.NumPage() < 1 {
		return "", ""
	}
	page := reader.Page(1)
	if page.V.IsNull() {
		return "", ""
	}

	content := page.Content()
	if len(content.Text) == 0 {
		return "", ""
	}

	type row struct {
		y    float64
		size float64
		text string
	}

	// Group spans into rows by vertical position.
	rowsByY := make(map[float64]*row)
	for _, t := range content.Text {
		y := t.Y
		r, ok := rowsByY[y]
		if !ok {
			r = &row{y: y}
			rowsByY[y] = r
		}
		r.text += t.S
		if t.FontSize > r.size {
			r.size = t.FontSize
		}
	}

	rows := make([]*row, 0, len(rowsByY))
	for _, r := range rowsByY {
		if strings.TrimSpace(r.text) != "" {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return "", ""
	}

	// Largest font first; PDF Y grows upward, so higher rows first on ties.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].size != rows[j].size {
			return rows[i].size > rows[j].size
		}
		return rows[i].y > rows[j].y
	})

	title := strings.TrimSpace(rows[0].text)

	var authors string
	if len(rows) > 1 {
		candidate := strings.TrimSpace(rows[1].text)
		if strings.Contains(candidate, ",") || strings.Contains(strings.ToLower(candidate), " and ") {
			authors = candidate
		}
	}

	return title, authors
}

func extractAbstract(text string) string {
	m := abstractPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	abstract := strings.TrimSpace(m[1])
	if len(abstract) > maxAbstractLen {
		abstract = abstract[:maxAbstractLen]
	}
	return abstract
}

func extractReferences(text string) []string {
	m := refsPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	section := m[1]
	if loc := appendixPattern.FindStringIndex(section); loc != nil {
		section = section[:loc[0]]
	}

	var refs []string
	for _, entry := range refSplitPattern.Split(section, -1) {
		entry = strings.TrimSpace(entry)
		if len(entry) <= 20 {
			continue
		}
		if len(entry) > maxReferenceLen {
			entry = entry[:maxReferenceLen]
		}
		refs = append(refs, entry)
		if len(refs) >= maxReferences {
			break
		}
	}
	return refs
}

// ExtractDOI returns the first DOI mentioned in the text, stripped of
// trailing punctuation, or empty if none.
func ExtractDOI(text string) string {
	m := doiPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return doiTrailing.ReplaceAllString(m[1], "")
}

// ExtractArXivID returns the first arXiv identifier in the text, or empty.
func ExtractArXivID(text string) string {
	m := arxivPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}
