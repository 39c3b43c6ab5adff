package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/reslab/paperlens/internal/api"
	"github.com/reslab/paperlens/internal/domain"
)

type CompareService interface {
	Compare(ctx context.Context, paperIDs []string) (*domain.Comparison, error)
}

type CompareHandler struct {
	svc CompareService
}

func NewCompareHandler(svc CompareService) *CompareHandler {
	return &CompareHandler{svc: svc}
}

type CompareRequest struct {
	PaperIDs []string `json:"paper_ids"`
}

type ComparisonResponse struct {
	ID        string   `json:"id"`
	PaperIDs  []string `json:"paper_ids"`
	Content   string   `json:"content"`
	CreatedAt string   `json:"created_at"`
}

func (h *CompareHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.PaperIDs) < 2 {
		api.Error(w, http.StatusBadRequest, "at least two paper_ids are required")
		return
	}

	comparison, err := h.svc.Compare(r.Context(), req.PaperIDs)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, ComparisonResponse{
		ID:        comparison.ID,
		PaperIDs:  comparison.PaperIDs,
		Content:   comparison.Content,
		CreatedAt: comparison.CreatedAt.Format(time.RFC3339),
	})
}
