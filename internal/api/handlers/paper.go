package handlers

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reslab/paperlens/internal/api"
	"github.com/reslab/paperlens/internal/domain"
	"github.com/reslab/paperlens/internal/service"
)

type PaperService interface {
	Ingest(ctx context.Context, input service.IngestInput) (*domain.Paper, error)
	GetByID(ctx context.Context, id string) (*domain.Paper, error)
	ListPapers(ctx context.Context, input service.ListPapersInput) (*service.ListPapersOutput, error)
}

type AnalysisService interface {
	Start(ctx context.Context, input service.StartInput) (*domain.AnalysisRun, error)
	History(ctx context.Context, paperID string) ([]*domain.StageResult, error)
	ListRuns(ctx context.Context, paperID string) ([]*domain.AnalysisRun, error)
	Citations(ctx context.Context, paperID string) ([]*domain.CitationRecord, error)
}

type PaperHandler struct {
	papers         PaperService
	analyses       AnalysisService
	maxUploadBytes int64
}

func NewPaperHandler(papers PaperService, analyses AnalysisService, maxUploadBytes int64) *PaperHandler {
	return &PaperHandler{
		papers:         papers,
		analyses:       analyses,
		maxUploadBytes: maxUploadBytes,
	}
}

type PaperResponse struct {
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

func paperToResponse(p *domain.Paper) *PaperResponse {
	return &PaperResponse{
		ID:        p.ID,
		Filename:  p.Filename,
		Title:     p.Title,
		Abstract:  p.Abstract,
		SHA256:    p.SHA256,
		PageCount: p.PageCount,
		CharCount: p.CharCount,
		State:     string(p.State),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}

type StageResultResponse struct {
	ID         string `json:"id"`
	RunID      string `json:"run_id"`
	Stage      string `json:"stage"`
	Seq        int    `json:"seq"`
	Content    string `json:"content"`
	Model      string `json:"model,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
}

func stageResultToResponse(sr *domain.StageResult) *StageResultResponse {
	return &StageResultResponse{
		ID:         sr.ID,
		RunID:      sr.RunID,
		Stage:      string(sr.Stage),
		Seq:        sr.Seq,
		Content:    sr.Content,
		Model:      sr.Model,
		DurationMS: sr.DurationMS,
		CreatedAt:  sr.CreatedAt.Format(time.RFC3339),
	}
}

type CitationResponse struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Identifier    string `json:"identifier"`
	Position      int    `json:"position"`
	Title         string `json:"title,omitempty"`
	Authors       string `json:"authors,omitempty"`
	Year          int    `json:"year,omitempty"`
	Venue         string `json:"venue,omitempty"`
	Abstract      string `json:"abstract,omitempty"`
	CitationCount int    `json:"citation_count,omitempty"`
	URL           string `json:"url,omitempty"`
	Enriched      bool   `json:"enriched"`
}

func citationToResponse(c *domain.CitationRecord) *CitationResponse {
	return &CitationResponse{
		ID:            c.ID,
		Type:          string(c.Type),
		Identifier:    c.Identifier,
		Position:      c.Position,
		Title:         c.Title,
		Authors:       c.Authors,
		Year:          c.Year,
		Venue:         c.Venue,
		Abstract:      c.Abstract,
		CitationCount: c.CitationCount,
		URL:           c.URL,
		Enriched:      c.Enriched,
	}
}

type UploadResponse struct {
	Paper *PaperResponse `json:"paper"`
	RunID string         `json:"run_id"`
}

// Upload accepts a multipart PDF, ingests it and queues an analysis run.
func (h *PaperHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if strings.ToLower(filepath.Ext(header.Filename)) != ".pdf" {
		api.HandleError(w, domain.ErrNotAPDF)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if h.maxUploadBytes > 0 && int64(len(data)) > h.maxUploadBytes {
		api.HandleError(w, domain.ErrFileTooLarge)
		return
	}

	paper, err := h.papers.Ingest(r.Context(), service.IngestInput{
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	run, err := h.analyses.Start(r.Context(), service.StartInput{
		PaperID:    paper.ID,
		PromptType: domain.PromptType(r.FormValue("prompt_type")),
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, UploadResponse{
		Paper: paperToResponse(paper),
		RunID: run.ID,
	})
}

type GetPaperResponse struct {
	Paper     *PaperResponse         `json:"paper"`
	Analyses  []*StageResultResponse `json:"analyses"`
	Citations []*CitationResponse    `json:"citations"`
}

func (h *PaperHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	paper, err := h.papers.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	results, err := h.analyses.History(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	citations, err := h.analyses.Citations(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := GetPaperResponse{
		Paper:     paperToResponse(paper),
		Analyses:  make([]*StageResultResponse, len(results)),
		Citations: make([]*CitationResponse, len(citations)),
	}
	for i, sr := range results {
		resp.Analyses[i] = stageResultToResponse(sr)
	}
	for i, c := range citations {
		resp.Citations[i] = citationToResponse(c)
	}

	api.Success(w, http.StatusOK, resp)
}

type PaperListResponse struct {
	Items   []*PaperResponse `json:"items"`
	Cursor  string           `json:"cursor,omitempty"`
	HasMore bool             `json:"has_more"`
}

func (h *PaperHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 20
	if limitStr := q.Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var since *time.Time
	if sinceStr := q.Get("since"); sinceStr != "" {
		parsed, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		since = &parsed
	}

	output, err := h.papers.ListPapers(r.Context(), service.ListPapersInput{
		Filename: q.Get("filename"),
		Since:    since,
		Cursor:   q.Get("cursor"),
		Limit:    limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*PaperResponse, len(output.Items))
	for i, p := range output.Items {
		responses[i] = paperToResponse(p)
	}

	api.Success(w, http.StatusOK, PaperListResponse{
		Items:   responses,
		Cursor:  output.Cursor,
		HasMore: output.HasMore,
	})
}

func (h *PaperHandler) Citations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if _, err := h.papers.GetByID(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	citations, err := h.analyses.Citations(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*CitationResponse, len(citations))
	for i, c := range citations {
		responses[i] = citationToResponse(c)
	}
	api.Success(w, http.StatusOK, responses)
}

// Analyses returns the paper's full stage-result history, oldest first.
func (h *PaperHandler) Analyses(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if _, err := h.papers.GetByID(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	results, err := h.analyses.History(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*StageResultResponse, len(results))
	for i, sr := range results {
		responses[i] = stageResultToResponse(sr)
	}
	api.Success(w, http.StatusOK, responses)
}
