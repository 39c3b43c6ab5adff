// Package scholar fetches bibliographic metadata from the Semantic Scholar
// Graph API. Enrichment is best-effort: lookups that fail or find nothing
// leave the citation record as extracted.
package scholar

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/reslab/paperlens/internal/domain"
)

const (
	defaultBaseURL = "https://api.semanticscholar.org/graph/v1"
	paperFields    = "paperId,title,authors,year,abstract,venue,citationCount,externalIds,url"
)

// PaperInfo is bibliographic metadata for one paper.
type PaperInfo struct {
	PaperID       string
	Title         string
	Authors       []string
	Year          int
	Abstract      string
	Venue         string
	CitationCount int
	DOI           string
	ArXivID       string
	URL           string
}

// Client talks to the Semantic Scholar API. The unauthenticated tier is
// heavily throttled, so all requests go through a politeness limiter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

type Option func(*Client)

// WithBaseURL overrides the API base URL, used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Semantic Scholar client. The API key is optional.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiPaper struct {
	PaperID string `json:"paperId"`
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Year          int    `json:"year"`
	Abstract      string `json:"abstract"`
	Venue         string `json:"venue"`
	CitationCount int    `json:"citationCount"`
	ExternalIDs   struct {
		DOI   string `json:"DOI"`
		ArXiv string `json:"ArXiv"`
	} `json:"externalIds"`
	URL string `json:"url"`
}

func (p *apiPaper) toInfo() *PaperInfo {
	info := &PaperInfo{
		PaperID:       p.PaperID,
		Title:         p.Title,
		Year:          p.Year,
		Abstract:      p.Abstract,
		Venue:         p.Venue,
		CitationCount: p.CitationCount,
		DOI:           p.ExternalIDs.DOI,
		ArXivID:       p.ExternalIDs.ArXiv,
		URL:           p.URL,
	}
	for _, a := range p.Authors {
		info.Authors = append(info.Authors, a.Name)
	}
	return info
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("semantic scholar returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

var errNotFound = fmt.Errorf("paper not found")

// LookupDOI fetches metadata for a DOI. Returns nil without error when the
// paper is unknown.
func (c *Client) LookupDOI(ctx context.Context, doi string) (*PaperInfo, error) {
	return c.lookup(ctx, "/paper/DOI:"+url.PathEscape(doi))
}

// LookupArXiv fetches metadata for an arXiv identifier. Returns nil without
// error when the paper is unknown.
func (c *Client) LookupArXiv(ctx context.Context, arxivID string) (*PaperInfo, error) {
	return c.lookup(ctx, "/paper/arXiv:"+url.PathEscape(arxivID))
}

func (c *Client) lookup(ctx context.Context, path string) (*PaperInfo, error) {
	params := url.Values{"fields": {paperFields}}

	var paper apiPaper
	if err := c.get(ctx, path, params, &paper); err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, err
	}
	if paper.PaperID == "" {
		return nil, nil
	}
	return paper.toInfo(), nil
}

// Search runs a keyword search and returns up to limit results.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]*PaperInfo, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	params := url.Values{
		"query":  {query},
		"limit":  {fmt.Sprintf("%d", limit)},
		"fields": {paperFields},
	}

	var result struct {
		Data []apiPaper `json:"data"`
	}
	if err := c.get(ctx, "/paper/search", params, &result); err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, err
	}

	infos := make([]*PaperInfo, 0, len(result.Data))
	for i := range result.Data {
		infos = append(infos, result.Data[i].toInfo())
	}
	return infos, nil
}

// EnrichCitations fills in metadata for up to maxEnrichments citation
// records in place. Failures are logged and skipped; the records keep their
// extracted identifiers either way.
func (c *Client) EnrichCitations(ctx context.Context, records []*domain.CitationRecord, maxEnrichments int) {
	enriched := 0
	for _, rec := range records {
		if enriched >= maxEnrichments {
			return
		}

		var info *PaperInfo
		var err error
		switch rec.Type {
		case domain.IdentifierTypeDOI:
			info, err = c.LookupDOI(ctx, rec.Identifier)
		case domain.IdentifierTypeArXiv:
			info, err = c.LookupArXiv(ctx, rec.Identifier)
		default:
			// PMID/PMC lookups are not exposed by the graph endpoint tier
			// we use; those records keep identifier-only metadata.
			continue
		}
		if err != nil {
			log.Printf("scholar: enrichment failed for %s %s: %v", rec.Type, rec.Identifier, err)
			if ctx.Err() != nil {
				return
			}
			continue
		}
		enriched++
		if info == nil {
			continue
		}

		rec.Title = info.Title
		rec.Authors = strings.Join(info.Authors, ", ")
		rec.Year = info.Year
		rec.Venue = info.Venue
		rec.Abstract = info.Abstract
		rec.CitationCount = info.CitationCount
		rec.URL = info.URL
		rec.Enriched = true
	}
}
