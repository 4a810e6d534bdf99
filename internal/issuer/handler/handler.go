// Package handler serves the admin-token protected issuer routes.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vouch/internal/issuer/models"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
	"vouch/pkg/requestcontext"
)

type Service interface {
	SetIssuer(ctx context.Context, issuerID id.IssuerID, verified bool, role models.Role) (*models.Issuer, error)
	List(ctx context.Context) ([]*models.Issuer, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts the admin routes behind requireAdmin.
func (h *Handler) Register(r chi.Router, requireAdmin func(http.Handler) http.Handler) {
	r.Route("/admin/issuers", func(r chi.Router) {
		r.Use(requireAdmin)
		r.Get("/", h.HandleList)
		r.Put("/{issuer}", h.HandleSetIssuer)
	})
}

// SetIssuerRequest is the body of PUT /admin/issuers/{issuer}.
type SetIssuerRequest struct {
	Verified *bool  `json:"verified"`
	Role     string `json:"role"`

	parsedRole models.Role
}

func (r *SetIssuerRequest) Validate() error {
	if r.Verified == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "verified is required")
	}
	role, err := models.ParseRole(r.Role)
	if err != nil {
		return err
	}
	r.parsedRole = role
	return nil
}

type IssuerListResponse struct {
	Issuers []*models.Issuer `json:"issuers"`
	Total   int              `json:"total"`
}

func (h *Handler) HandleSetIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	issuerID, err := id.ParseIssuerID(chi.URLParam(r, "issuer"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetIssuerRequest](w, r, h.logger)
	if !ok {
		return
	}
	issuer, err := h.service.SetIssuer(ctx, issuerID, *req.Verified, req.parsedRole)
	if err != nil {
		h.logger.ErrorContext(ctx, "set issuer failed",
			"request_id", requestcontext.RequestID(ctx),
			"issuer_id", issuerID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, issuer)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	issuers, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, IssuerListResponse{Issuers: issuers, Total: len(issuers)})
}
