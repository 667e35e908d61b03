package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"civicportal/internal/directory/service"
	"civicportal/pkg/platform/httputil"
)

// DirectoryService lists public businesses.
type DirectoryService interface {
	List(ctx context.Context, category string) ([]service.Business, error)
}

type Handler struct {
	directory DirectoryService
	logger    *slog.Logger
}

func New(directory DirectoryService, logger *slog.Logger) *Handler {
	return &Handler{directory: directory, logger: logger}
}

// Register mounts the public directory route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/businesses", h.ListBusinesses)
}

type listResponse struct {
	Businesses []service.Business `json:"businesses"`
}

func (h *Handler) ListBusinesses(w http.ResponseWriter, r *http.Request) {
	businesses, err := h.directory.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if businesses == nil {
		businesses = []service.Business{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Businesses: businesses})
}
