package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	applymodels "civicportal/internal/apply/models"
	modmodels "civicportal/internal/moderation/models"
	onboardingmodels "civicportal/internal/onboarding/models"
	"civicportal/internal/platform/middleware"
	dErrors "civicportal/pkg/domain-errors"
	"civicportal/pkg/platform/httputil"
)

const maxSubmissionBytes = 10 << 20

// ApplyService is the submission surface the handler depends on.
type ApplyService interface {
	Submit(ctx context.Context, app *modmodels.Application, filename string, document []byte) (*modmodels.Application, error)
	FinalizeAccount(ctx context.Context, email, password, displayName string) (*onboardingmodels.PartnerProfile, error)
}

type Handler struct {
	apply  ApplyService
	logger *slog.Logger
}

func New(apply ApplyService, logger *slog.Logger) *Handler {
	return &Handler{apply: apply, logger: logger}
}

// Register mounts the public application routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/submit-application", h.SubmitApplication)
	r.Post("/api/finalize-account", h.FinalizeAccount)
}

type finalizeRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// SubmitApplication accepts the multipart "get featured" form. The `variant`
// field selects the form shape; `file` optionally attaches a document.
func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionBytes)
	if err := r.ParseMultipartForm(maxSubmissionBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart form"))
		return
	}

	app, err := buildSubmission(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	filename, document, err := readOptionalFile(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	submitted, err := h.apply.Submit(r.Context(), app, filename, document)
	if err != nil {
		h.logger.WarnContext(r.Context(), "application rejected",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, submitted)
}

// FinalizeAccount creates the partner account for a prior applicant and
// returns the fresh onboarding profile.
func (h *Handler) FinalizeAccount(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	profile, err := h.apply.FinalizeAccount(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		h.logger.WarnContext(r.Context(), "account finalization failed",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, profile)
}

func buildSubmission(r *http.Request) (*modmodels.Application, error) {
	form := r.FormValue
	switch modmodels.Variant(form("variant")) {
	case modmodels.VariantShop:
		return applymodels.ShopApplication{
			Name:         form("name"),
			Email:        form("email"),
			Phone:        form("phone"),
			BusinessName: form("business_name"),
			Address:      form("address"),
			Website:      form("website"),
			Description:  form("description"),
			ProductTypes: form("product_types"),
		}.Submission()
	case modmodels.VariantFood:
		return applymodels.FoodApplication{
			Name:         form("name"),
			Email:        form("email"),
			Phone:        form("phone"),
			BusinessName: form("business_name"),
			Category:     form("category"),
			Address:      form("address"),
			Website:      form("website"),
			Description:  form("description"),
			OpeningHours: form("opening_hours"),
		}.Submission()
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "variant must be food or shop")
	}
}

func readOptionalFile(r *http.Request) (string, []byte, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil, nil
		}
		return "", nil, dErrors.New(dErrors.CodeBadRequest, "could not read attached file")
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, dErrors.New(dErrors.CodeBadRequest, "could not read attached file")
	}
	return header.Filename, data, nil
}
