package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/reslab/paperlens/internal/api"
)

type ChatService interface {
	Ask(ctx context.Context, paperID, question string) (string, error)
}

type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatRequest struct {
	PaperID  string `json:"paper_id"`
	Question string `json:"question"`
}

type ChatResponse struct {
	Answer string `json:"answer"`
}

func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PaperID == "" {
		api.Error(w, http.StatusBadRequest, "paper_id is required")
		return
	}

	answer, err := h.svc.Ask(r.Context(), req.PaperID, req.Question)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ChatResponse{Answer: answer})
}
