package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"civicportal/internal/moderation/models"
	"civicportal/internal/platform/config"
	"civicportal/internal/platform/middleware"
	dErrors "civicportal/pkg/domain-errors"
	"civicportal/pkg/platform/httputil"
)

// Service is the moderation queue surface the handler depends on.
type Service interface {
	ListPending(ctx context.Context) ([]models.Application, error)
	ListAll(ctx context.Context) ([]models.Application, error)
	Approve(ctx context.Context, key string) (*models.Application, []models.Application, error)
	Reject(ctx context.Context, key string) (*models.Application, []models.Application, error)
}

type Handler struct {
	queue        Service
	logger       *slog.Logger
	requireAdmin func(http.Handler) http.Handler
}

func New(queue Service, logger *slog.Logger, requireAdmin func(http.Handler) http.Handler) *Handler {
	return &Handler{queue: queue, logger: logger, requireAdmin: requireAdmin}
}

// Register mounts the admin moderation routes behind the admin gate.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/admin/applications", func(r chi.Router) {
		if h.requireAdmin != nil {
			r.Use(h.requireAdmin)
		}
		r.Get("/", h.handleList)
		r.Post("/approve", h.handleApprove)
		r.Post("/reject", h.handleReject)
	})
}

// decisionRequest addresses one queue entry by id or email.
type decisionRequest struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (r decisionRequest) key() string {
	if r.ID != "" {
		return r.ID
	}
	return strings.TrimSpace(r.Email)
}

type listResponse struct {
	Applications []models.Application `json:"applications"`
}

type decisionResponse struct {
	Application *models.Application  `json:"application"`
	Pending     []models.Application `json:"pending"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var (
		apps []models.Application
		err  error
	)
	if r.URL.Query().Get("status") == "all" {
		apps, err = h.queue.ListAll(r.Context())
	} else {
		apps, err = h.queue.ListPending(r.Context())
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if apps == nil {
		apps = []models.Application{}
	}

	w.Header().Set("Cache-Control", fmt.Sprintf("private, max-age=%d", int(config.RegistryCacheTTL.Seconds())))
	httputil.WriteJSON(w, http.StatusOK, listResponse{Applications: apps})
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.queue.Approve)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.queue.Reject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (*models.Application, []models.Application, error)) {
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	app, pending, err := fn(r.Context(), req.key())
	if err != nil {
		h.logger.WarnContext(r.Context(), "moderation decision failed",
			"key", req.key(),
			"actor", middleware.GetActorEmail(r.Context()),
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		httputil.WriteError(w, err)
		return
	}
	if pending == nil {
		pending = []models.Application{}
	}
	httputil.WriteJSON(w, http.StatusOK, decisionResponse{Application: app, Pending: pending})
}
