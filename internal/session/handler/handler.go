package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"civicportal/internal/platform/middleware"
	"civicportal/internal/session/models"
	dErrors "civicportal/pkg/domain-errors"
	"civicportal/pkg/platform/httputil"
)

// SessionService is the session manager surface the handler depends on.
type SessionService interface {
	Login(ctx context.Context, kind models.Kind, email, password string) (*models.Session, error)
	Logout(ctx context.Context, kind models.Kind) error
	Current(kind models.Kind) (*models.Session, bool)
}

type Handler struct {
	sessions SessionService
	logger   *slog.Logger
}

func New(sessions SessionService, logger *slog.Logger) *Handler {
	return &Handler{sessions: sessions, logger: logger}
}

// Register mounts the session routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/login", h.PartnerLogin)
	r.Post("/api/admin/login", h.AdminLogin)
	r.Post("/api/logout", h.Logout)
	r.Get("/api/session", h.CurrentSession)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type logoutRequest struct {
	Kind models.Kind `json:"kind"`
}

func (h *Handler) PartnerLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, models.KindPartner)
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, models.KindAdministrator)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, kind models.Kind) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "email and password are required"))
		return
	}

	session, err := h.sessions.Login(r.Context(), kind, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(r.Context(), "login failed",
			"kind", kind,
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, session)
}

// Logout clears the session for the requested kind; partner when the body is
// empty. Always succeeds for sessions that do not exist.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	req := logoutRequest{Kind: models.KindPartner}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}
		if req.Kind == "" {
			req.Kind = models.KindPartner
		}
	}

	if err := h.sessions.Logout(r.Context(), req.Kind); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// CurrentSession reports the live session for the requested kind without
// touching the durable store.
func (h *Handler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	kind := models.Kind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = models.KindPartner
	}
	if !kind.IsValid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unknown session kind"))
		return
	}

	session, ok := h.sessions.Current(kind)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "no active session"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}
