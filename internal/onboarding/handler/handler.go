package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	modmodels "civicportal/internal/moderation/models"
	"civicportal/internal/onboarding/models"
	"civicportal/internal/platform/middleware"
	sessionmodels "civicportal/internal/session/models"
	dErrors "civicportal/pkg/domain-errors"
	"civicportal/pkg/platform/httputil"
	"civicportal/pkg/platform/sentinel"
)

// maxUploadBytes bounds license uploads.
const maxUploadBytes = 10 << 20

// OnboardingService is the machine surface the handler depends on.
type OnboardingService interface {
	Profile(ctx context.Context, email string) (*models.PartnerProfile, error)
	MarkStepDone(ctx context.Context, email string, ordinal int) (*models.PartnerProfile, error)
	SubmitVerificationDocument(ctx context.Context, email, filename string, data []byte) (*models.PartnerProfile, error)
}

// SessionReader resolves the logged-in partner.
type SessionReader interface {
	Current(kind sessionmodels.Kind) (*sessionmodels.Session, bool)
}

// DocumentOpener serves previously uploaded documents by reference.
type DocumentOpener interface {
	Open(ctx context.Context, ref string) ([]byte, error)
}

// ApplicationReader resolves the partner's featured-listing application, if
// any, so the dashboard can show its review status.
type ApplicationReader interface {
	FindByKey(ctx context.Context, key string) (*modmodels.Application, error)
}

type Handler struct {
	onboarding   OnboardingService
	sessions     SessionReader
	documents    DocumentOpener
	applications ApplicationReader
	logger       *slog.Logger
}

func New(onboarding OnboardingService, sessions SessionReader, documents DocumentOpener, applications ApplicationReader, logger *slog.Logger) *Handler {
	return &Handler{onboarding: onboarding, sessions: sessions, documents: documents, applications: applications, logger: logger}
}

// Register mounts the partner onboarding routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/user", h.Dashboard)
	r.Patch("/api/user/progress", h.MarkStepDone)
	r.Post("/api/upload-license", h.UploadLicense)
	r.Get("/api/uploads/{filename}", h.ServeUpload)
}

// dashboardResponse is the merged view the partner dashboard renders. Status
// is the featured-listing review state, joined at read time.
type dashboardResponse struct {
	*models.PartnerProfile
	Status          string        `json:"status,omitempty"`
	ProfileStrength int           `json:"profile_strength"`
	Roadmap         []models.Step `json:"roadmap"`
}

type progressRequest struct {
	Step int `json:"step"`
}

// Dashboard returns the partner's profile with the rendered roadmap. The
// partner is the current session holder; ?email= is honoured for direct
// lookups from the admin console.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	email, err := h.resolveEmail(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	profile, err := h.onboarding.Profile(r.Context(), email)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dashboardResponse{
		PartnerProfile:  profile,
		Status:          h.listingStatus(r.Context(), email),
		ProfileStrength: profile.StrengthPercent(),
		Roadmap:         profile.Roadmap(),
	})
}

// listingStatus joins the partner's application review state, if one exists.
func (h *Handler) listingStatus(ctx context.Context, email string) string {
	if h.applications == nil {
		return ""
	}
	app, err := h.applications.FindByKey(ctx, email)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			h.logger.WarnContext(ctx, "application lookup failed",
				"error", err,
				"request_id", middleware.GetRequestID(ctx),
			)
		}
		return ""
	}
	if app.Status == modmodels.StatusPending {
		return "pending_review"
	}
	return string(app.Status)
}

// MarkStepDone completes the next roadmap step. Invalid ordinals are
// answered with the unchanged profile.
func (h *Handler) MarkStepDone(w http.ResponseWriter, r *http.Request) {
	email, err := h.resolveEmail(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	profile, err := h.onboarding.MarkStepDone(r.Context(), email, req.Step)
	if err != nil {
		h.logger.WarnContext(r.Context(), "mark step done failed",
			"step", req.Step,
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dashboardResponse{
		PartnerProfile:  profile,
		ProfileStrength: profile.StrengthPercent(),
		Roadmap:         profile.Roadmap(),
	})
}

// UploadLicense accepts the multipart verification document and runs the
// verification transition.
func (h *Handler) UploadLicense(w http.ResponseWriter, r *http.Request) {
	email, err := h.resolveEmail(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "a license file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "could not read uploaded file"))
		return
	}

	profile, err := h.onboarding.SubmitVerificationDocument(r.Context(), email, header.Filename, data)
	if err != nil {
		h.logger.WarnContext(r.Context(), "license upload rejected",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dashboardResponse{
		PartnerProfile:  profile,
		ProfileStrength: profile.StrengthPercent(),
		Roadmap:         profile.Roadmap(),
	})
}

// ServeUpload streams a stored document. References outside the uploads
// store resolve to not found, never to another path.
func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	data, err := h.documents.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no such document"))
			return
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not read document"))
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// resolveEmail prefers the explicit query parameter and falls back to the
// current partner session.
func (h *Handler) resolveEmail(r *http.Request) (string, error) {
	if email := r.URL.Query().Get("email"); email != "" {
		return email, nil
	}
	if session, ok := h.sessions.Current(sessionmodels.KindPartner); ok {
		return session.Email, nil
	}
	return "", dErrors.New(dErrors.CodeUnauthorized, "partner login required")
}
