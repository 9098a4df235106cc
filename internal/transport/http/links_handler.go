package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-links/internal/config"
	"github.com/IgorGrieder/encurtador-links/internal/constants"
	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/logger"
	appvalidation "github.com/IgorGrieder/encurtador-links/internal/infrastructure/validation"
	"github.com/IgorGrieder/encurtador-links/internal/processing/links"
	"github.com/IgorGrieder/encurtador-links/internal/transport/http/middleware"
	"github.com/IgorGrieder/encurtador-links/pkg/httputils"
)

// LinkService is the subset of links.Service the handlers depend on.
type LinkService interface {
	CreateLink(ctx context.Context, in links.CreateLinkInput) (*links.Link, error)
	ResolveAndVisit(ctx context.Context, code string) (*links.Link, error)
	GetByCode(ctx context.Context, code string) (*links.Link, error)
	GetByAlias(ctx context.Context, alias string) (*links.Link, error)
	GetByOriginalURL(ctx context.Context, url string) (*links.Link, error)
	UpdateURL(ctx context.Context, code, newURL string) (*links.Link, error)
	DeleteByCode(ctx context.Context, code string) (bool, error)
	DeleteByAlias(ctx context.Context, alias string) (bool, error)
}

type LinksHandler struct {
	cfg *config.Config
	svc LinkService
}

func NewLinksHandler(cfg *config.Config, svc LinkService) *LinksHandler {
	return &LinksHandler{cfg: cfg, svc: svc}
}

type createLinkRequest struct {
	OriginalURL string     `json:"original_url" validate:"required,notblank,max=2048,http_url"`
	CustomAlias string     `json:"custom_alias,omitempty" validate:"alias"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" validate:"omitempty,future"`
}

type linkResponse struct {
	ShortCode   string     `json:"short_code"`
	ShortURL    string     `json:"short_url"`
	OriginalURL string     `json:"original_url"`
	CustomAlias *string    `json:"custom_alias"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
	AccessCount int64      `json:"access_count"`
}

type statsResponse struct {
	OriginalURL    string     `json:"original_url"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      *time.Time `json:"expires_at"`
	AccessCount    int64      `json:"access_count"`
	LastAccessedAt *time.Time `json:"last_accessed_at"`
}

type updateLinkRequest struct {
	NewURL string `json:"new_url"`
}

type deleteResponse struct {
	Deleted bool   `json:"deleted"`
	Key     string `json:"key"`
}

func (h *LinksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	if err := httputils.DecodeJSON(w, r, &req); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage(err.Error()))
		return
	}
	if err := appvalidation.Validate(req); err != nil {
		httputils.WriteAPIError(w, r, createValidationError(err))
		return
	}

	link, err := h.svc.CreateLink(r.Context(), links.CreateLinkInput{
		URL:         req.OriginalURL,
		OwnerID:     middleware.OwnerFromContext(r.Context()),
		CustomAlias: req.CustomAlias,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		h.writeServiceError(w, r, err, "create link", zap.String("url", req.OriginalURL))
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLinkCreated, h.toLinkResponse(link))
}

func createValidationError(err error) constants.APIError {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return constants.ErrInvalidRequestBody
	}
	for _, e := range validationErrs {
		switch e.Field() {
		case "original_url":
			return constants.ErrInvalidURL
		case "custom_alias":
			return constants.ErrInvalidAlias
		case "expires_at":
			return constants.ErrInvalidExpiry
		}
	}
	return constants.ErrInvalidRequestBody
}

// Redirect resolves a short code, records the visit and redirects to the target.
func (h *LinksHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	link, err := h.svc.ResolveAndVisit(r.Context(), code)
	if err != nil {
		h.writeServiceError(w, r, err, "resolve link", zap.String("code", code))
		return
	}

	http.Redirect(w, r, link.OriginalURL, h.cfg.Shortener.RedirectStatus)
}

func (h *LinksHandler) Stats(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	link, err := h.svc.GetByCode(r.Context(), code)
	if err != nil {
		h.writeServiceError(w, r, err, "fetch stats", zap.String("code", code))
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessStatsFound, statsResponse{
		OriginalURL:    link.OriginalURL,
		CreatedAt:      link.CreatedAt,
		ExpiresAt:      link.ExpiresAt,
		AccessCount:    link.AccessCount,
		LastAccessedAt: link.LastAccessedAt,
	})
}

func (h *LinksHandler) GetByAlias(w http.ResponseWriter, r *http.Request) {
	alias := r.PathValue("alias")

	link, err := h.svc.GetByAlias(r.Context(), alias)
	if err != nil {
		h.writeServiceError(w, r, err, "find by alias", zap.String("alias", alias))
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLinkFound, h.toLinkResponse(link))
}

func (h *LinksHandler) Search(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSpace(r.URL.Query().Get("original_url"))
	if target == "" {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("original_url is required"))
		return
	}

	link, err := h.svc.GetByOriginalURL(r.Context(), target)
	if err != nil {
		h.writeServiceError(w, r, err, "search by url", zap.String("url", target))
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLinkFound, h.toLinkResponse(link))
}

// Update accepts the new target either as ?new_url= or as a JSON body.
func (h *LinksHandler) Update(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	newURL := r.URL.Query().Get("new_url")
	if newURL == "" && r.Body != nil && r.ContentLength != 0 {
		var req updateLinkRequest
		if err := httputils.DecodeJSON(w, r, &req); err != nil {
			httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage(err.Error()))
			return
		}
		newURL = req.NewURL
	}
	if strings.TrimSpace(newURL) == "" {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("new_url is required"))
		return
	}

	link, err := h.svc.UpdateURL(r.Context(), code, newURL)
	if err != nil {
		h.writeServiceError(w, r, err, "update link", zap.String("code", code))
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLinkUpdated, h.toLinkResponse(link))
}

func (h *LinksHandler) DeleteByCode(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	deleted, err := h.svc.DeleteByCode(r.Context(), code)
	h.writeDelete(w, r, code, deleted, err)
}

func (h *LinksHandler) DeleteByAlias(w http.ResponseWriter, r *http.Request) {
	alias := r.PathValue("alias")

	deleted, err := h.svc.DeleteByAlias(r.Context(), alias)
	h.writeDelete(w, r, alias, deleted, err)
}

func (h *LinksHandler) writeDelete(w http.ResponseWriter, r *http.Request, key string, deleted bool, err error) {
	if err != nil {
		h.writeServiceError(w, r, err, "delete link", zap.String("key", key))
		return
	}
	if !deleted {
		httputils.WriteAPIError(w, r, constants.ErrLinkNotFound)
		return
	}
	httputils.WriteAPISuccess(w, r, constants.SuccessLinkDeleted, deleteResponse{Deleted: true, Key: key})
}

func (h *LinksHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, op string, fields ...zap.Field) {
	var dup *links.DuplicateError
	switch {
	case errors.As(err, &dup):
		if dup.Alias != "" {
			httputils.WriteAPIError(w, r, constants.ErrAliasExists)
			return
		}
		httputils.WriteAPIError(w, r, constants.ErrURLExists)
	case errors.Is(err, links.ErrNotFound):
		httputils.WriteAPIError(w, r, constants.ErrLinkNotFound)
	case errors.Is(err, links.ErrExpired):
		httputils.WriteAPIError(w, r, constants.ErrLinkExpired)
	case errors.Is(err, links.ErrInvalidURL):
		httputils.WriteAPIError(w, r, constants.ErrInvalidURL)
	case errors.Is(err, links.ErrInvalidAlias):
		httputils.WriteAPIError(w, r, constants.ErrInvalidAlias)
	case errors.Is(err, links.ErrInvalidExpiry):
		httputils.WriteAPIError(w, r, constants.ErrInvalidExpiry)
	case links.IsStorageError(err):
		logger.Error("failed to "+op, append(fields, zap.Error(err))...)
		httputils.WriteAPIError(w, r, constants.ErrStorageUnavailable)
	default:
		logger.Error("failed to "+op, append(fields, zap.Error(err))...)
		httputils.WriteAPIError(w, r, constants.ErrInternalError)
	}
}

func (h *LinksHandler) toLinkResponse(link *links.Link) linkResponse {
	return linkResponse{
		ShortCode:   link.ShortCode,
		ShortURL:    h.cfg.Shortener.BaseURL + "/links/" + link.ShortCode,
		OriginalURL: link.OriginalURL,
		CustomAlias: link.CustomAlias,
		CreatedAt:   link.CreatedAt,
		ExpiresAt:   link.ExpiresAt,
		AccessCount: link.AccessCount,
	}
}
