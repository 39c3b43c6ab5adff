package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/reslab/paperlens/internal/api"
)

type ReportService interface {
	ExportReport(ctx context.Context, runID string) (string, error)
}

// ReportPublisher pushes exported reports to object storage and hands out
// presigned links. Optional; without one, reports are served from disk.
type ReportPublisher interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

type ReportHandler struct {
	svc       ReportService
	publisher ReportPublisher
}

// NewReportHandler creates a new ReportHandler instance. publisher may be nil.
func NewReportHandler(svc ReportService, publisher ReportPublisher) *ReportHandler {
	return &ReportHandler{svc: svc, publisher: publisher}
}

// Download exports the run's markdown report. With a publisher configured it
// redirects to a presigned URL, otherwise it streams the file.
func (h *ReportHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	path, err := h.svc.ExportReport(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if h.publisher != nil {
		data, err := os.ReadFile(path)
		if err != nil {
			api.Error(w, http.StatusInternalServerError, "failed to read report")
			return
		}
		key := "reports/" + filepath.Base(path)
		if err := h.publisher.Upload(r.Context(), key, data, "text/markdown"); err != nil {
			api.Error(w, http.StatusInternalServerError, "failed to publish report")
			return
		}
		url, err := h.publisher.GenerateDownloadURL(r.Context(), key)
		if err != nil {
			api.Error(w, http.StatusInternalServerError, "failed to sign report URL")
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	http.ServeFile(w, r, path)
}
