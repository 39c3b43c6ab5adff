package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reslab/paperlens/internal/api"
	"github.com/reslab/paperlens/internal/domain"
	"github.com/reslab/paperlens/internal/service"
)

type RunService interface {
	Status(ctx context.Context, runID string) (*service.StatusOutput, error)
	GetRun(ctx context.Context, runID string) (*domain.AnalysisRun, []*domain.StageResult, error)
}

type RunHandler struct {
	svc RunService
}

func NewRunHandler(svc RunService) *RunHandler {
	return &RunHandler{svc: svc}
}

type RunResponse struct {
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

func runToResponse(run *domain.AnalysisRun) *RunResponse {
	resp := &RunResponse{
		ID:         run.ID,
		PaperID:    run.PaperID,
		PromptType: string(run.PromptType),
		Status:     string(run.Status),
		LastStage:  string(run.LastStage),
		Error:      run.Error,
		RetryCount: run.RetryCount,
		CreatedAt:  run.CreatedAt.Format(time.RFC3339),
	}
	if run.StartedAt != nil {
		resp.StartedAt = run.StartedAt.Format(time.RFC3339)
	}
	if run.FinishedAt != nil {
		resp.FinishedAt = run.FinishedAt.Format(time.RFC3339)
	}
	return resp
}

type RunStatusResponse struct {
	Run            *RunResponse `json:"run"`
	CurrentStage   string       `json:"current_stage,omitempty"`
	PartialContent string       `json:"partial_content,omitempty"`
}

// Status reports the run's stored state plus any in-flight partial output,
// for polling.
func (h *RunHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	out, err := h.svc.Status(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, RunStatusResponse{
		Run:            runToResponse(out.Run),
		CurrentStage:   string(out.CurrentStage),
		PartialContent: out.PartialContent,
	})
}

type RunDetailResponse struct {
	Run     *RunResponse           `json:"run"`
	Results []*StageResultResponse `json:"results"`
}

func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	run, results, err := h.svc.GetRun(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := RunDetailResponse{
		Run:     runToResponse(run),
		Results: make([]*StageResultResponse, len(results)),
	}
	for i, sr := range results {
		resp.Results[i] = stageResultToResponse(sr)
	}
	api.Success(w, http.StatusOK, resp)
}
