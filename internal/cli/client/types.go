package client

// Paper is the paper payload returned by the API.
type Paper struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Title     string `json:"title,omitempty"`
	Abstract  string `json:"abstract,omitempty"`
	SHA256    string `json:"sha256"`
	PageCount int    `json:"page_count"`
	CharCount int    `json:"char_count"`
	State     string `json:"state"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Run is the analysis-run payload returned by the API.
type Run struct {
	ID         string `json:"id"`
	PaperID    string `json:"paper_id"`
	PromptType string `json:"prompt_type"`
	Status     string `json:"status"`
	LastStage  string `json:"last_stage,omitempty"`
	Error      string `json:"error,omitempty"`
	RetryCount int    `json:"retry_count"`
	CreatedAt  string `json:"created_at"`
	StartedAt  string `json:"started_at,omitempty"`
	FinishedAt string `json:"finished_at,omitempty"`
}

// StageResult is one pipeline stage output returned by the API.
type StageResult struct {
	ID         string `json:"id"`
	RunID      string `json:"run_id"`
	Stage      string `json:"stage"`
	Seq        int    `json:"seq"`
	Content    string `json:"content"`
	Model      string `json:"model,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
}

// Citation is one extracted citation returned by the API.
type Citation struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Identifier    string `json:"identifier"`
	Position      int    `json:"position"`
	Title         string `json:"title,omitempty"`
	Authors       string `json:"authors,omitempty"`
	Year          int    `json:"year,omitempty"`
	Venue         string `json:"venue,omitempty"`
	CitationCount int    `json:"citation_count,omitempty"`
	URL           string `json:"url,omitempty"`
	Enriched      bool   `json:"enriched"`
}
