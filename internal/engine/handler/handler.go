package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vouch/internal/credential"
	endorsement "vouch/internal/endorsement/models"
	"vouch/internal/engine"
	"vouch/internal/identity/models"
	issuer "vouch/internal/issuer/models"
	"vouch/internal/scoring"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
	"vouch/pkg/requestcontext"
)

// HeaderIdempotencyKey lets a client retry an endorsement safely.
const HeaderIdempotencyKey = "Idempotency-Key"

// Service is the engine surface the handlers call.
type Service interface {
	RegisterIdentity(ctx context.Context, holder id.HolderID, profile models.Profile) (*engine.IdentityView, error)
	GetIdentity(ctx context.Context, holder id.HolderID) (*engine.IdentityView, error)
	Endorse(ctx context.Context, req engine.EndorseRequest) (*endorsement.Endorsement, error)
	GetEndorsement(ctx context.Context, endorsementID id.EndorsementID) (*endorsement.Endorsement, error)
	EndorsementMessage(ctx context.Context, e *endorsement.Endorsement) (*endorsement.Message, error)
	ListEndorsements(ctx context.Context, holder id.HolderID, after id.EndorsementID, limit int) (*endorsement.Page, error)
	ListGiven(ctx context.Context, holder id.HolderID) ([]*endorsement.Endorsement, error)
	Reputation(ctx context.Context, holder id.HolderID) (*engine.ReputationView, error)
	Sybil(ctx context.Context, holder id.HolderID) (scoring.SybilScore, error)
	Trust(ctx context.Context, holder id.HolderID) (scoring.TrustScore, error)
	IssuerStatus(ctx context.Context, issuerID id.IssuerID) (issuer.Status, error)
	ExportCredential(ctx context.Context, holder id.HolderID) (*credential.Document, error)
	VerifyCredential(ctx context.Context, doc *credential.Document) error
	Verify(ctx context.Context, holder id.HolderID, useCase engine.UseCase) (*engine.VerificationSummary, error)
}

// Handler serves the /v1 query surface.
type Handler struct {
	service      Service
	logger       *slog.Logger
	endorseLimit func(http.Handler) http.Handler
	writeLimit   func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithEndorseLimit wraps POST /v1/endorsements. It runs after authentication.
func WithEndorseLimit(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) { h.endorseLimit = mw }
}

// WithWriteLimit wraps the other authenticated writes.
func WithWriteLimit(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) { h.writeLimit = mw }
}

func passThrough(next http.Handler) http.Handler { return next }

func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{service: service, logger: logger, endorseLimit: passThrough, writeLimit: passThrough}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the routes. Writes go through requireAuth, which must put
// the caller's holder ID in the request context.
func (h *Handler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.With(h.writeLimit).Post("/identities", h.HandleCreateIdentity)
			r.With(h.endorseLimit).Post("/endorsements", h.HandleEndorse)
		})

		r.Get("/identities/{holder}", h.HandleGetIdentity)
		r.Get("/identities/{holder}/endorsements", h.HandleListEndorsements)
		r.Get("/identities/{holder}/endorsements/given", h.HandleListGiven)
		r.Get("/identities/{holder}/reputation", h.HandleReputation)
		r.Get("/identities/{holder}/sybil", h.HandleSybil)
		r.Get("/identities/{holder}/trust", h.HandleTrust)
		r.Get("/identities/{holder}/credential", h.HandleExportCredential)
		r.Get("/identities/{holder}/verification", h.HandleVerify)
		r.Get("/endorsements/{endorsement}", h.HandleGetEndorsement)
		r.Get("/issuers/{issuer}", h.HandleIssuerStatus)
		r.Post("/credentials/verify", h.HandleVerifyCredential)
	})
}

func (h *Handler) HandleCreateIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	holder := requestcontext.HolderID(ctx)
	if holder.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateIdentityRequest](w, r, h.logger)
	if !ok {
		return
	}

	view, err := h.service.RegisterIdentity(ctx, holder, req.Profile())
	if err != nil {
		h.fail(ctx, w, "identity registration failed", err, "holder_id", holder.String())
		return
	}
	h.logger.InfoContext(ctx, "identity registered",
		"request_id", requestcontext.RequestID(ctx),
		"holder_id", holder.String(),
		"content_hash", view.ContentHash.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromIdentityView(view))
}

func (h *Handler) HandleGetIdentity(w http.ResponseWriter, r *http.Request) {
	holder, ok := holderParam(w, r)
	if !ok {
		return
	}
	view, err := h.service.GetIdentity(r.Context(), holder)
	if err != nil {
		h.fail(r.Context(), w, "get identity failed", err, "holder_id", holder.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromIdentityView(view))
}

func (h *Handler) HandleEndorse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	endorser := requestcontext.HolderID(ctx)
	if endorser.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[EndorseRequest](w, r, h.logger)
	if !ok {
		return
	}

	e, err := h.service.Endorse(ctx, engine.EndorseRequest{
		EndorserID:     endorser,
		EndorsedID:     req.ParsedEndorsed(),
		Rating:         req.Rating,
		Message:        req.Message,
		IdempotencyKey: r.Header.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		h.fail(ctx, w, "endorsement failed", err,
			"endorser", endorser.String(),
			"endorsed", req.Endorsed,
		)
		return
	}
	h.logger.InfoContext(ctx, "endorsement appended",
		"request_id", requestcontext.RequestID(ctx),
		"endorsement_id", e.ID.String(),
		"endorser", endorser.String(),
		"endorsed", e.EndorsedID.String(),
		"rating", e.Rating,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromEndorsement(e))
}

func (h *Handler) HandleGetEndorsement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	endorsementID, err := id.ParseEndorsementID(chi.URLParam(r, "endorsement"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	e, err := h.service.GetEndorsement(ctx, endorsementID)
	if err != nil {
		h.fail(ctx, w, "get endorsement failed", err, "endorsement_id", endorsementID.String())
		return
	}
	resp := EndorsementDetailResponse{EndorsementResponse: FromEndorsement(e)}
	if msg, err := h.service.EndorsementMessage(ctx, e); err == nil {
		resp.Message = msg.Message
	} else {
		h.logger.WarnContext(ctx, "endorsement message unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"endorsement_id", endorsementID.String(),
			"error", err,
		)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleListEndorsements(w http.ResponseWriter, r *http.Request) {
	holder, ok := holderParam(w, r)
	if !ok {
		return
	}
	after, limit, err := pageParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, err := h.service.ListEndorsements(r.Context(), holder, after, limit)
	if err != nil {
		h.fail(r.Context(), w, "list endorsements failed", err, "holder_id", holder.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPage(page))
}

func (h *Handler) HandleListGiven(w http.ResponseWriter, r *http.Request) {
	holder, ok := holderParam(w, r)
	if !ok {
		return
	}
	items, err := h.service.ListGiven(r.Context(), holder)
	if err != nil {
		h.fail(r.Context(), w, "list given endorsements failed", err, "holder_id", holder.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEndorsements(items))
}

func (h *Handler) HandleReputation(w http.ResponseWriter, r *http.Request) {
	holder, ok := holderParam(w, r)
	if !ok {
		return
	}
	view, err := h.service.Reputation(r.Context(), holder)
	if err != nil {
		h.fail(r.Context(), w, "reputation failed", err, "holder_id", holder.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) HandleSybil(w http.ResponseWriter, r *http.Request) {
	holder, ok := holderParam(w, r)
	if !ok {
		return
	}
	score, err := h.service.Sybil(r.Context(), holder)
	if err != nil {
		h.fail(r.Context(), w, "sybil score failed", err, "holder_id", holder.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, score)
}

func (h *Handler) HandleTrust(w http.ResponseWriter, r *http.Request) {
	holder, ok := holderParam(w, r)
	if !ok {
		return
	}
	score, err := h.service.Trust(r.Context(), holder)
	if err != nil {
		h.fail(r.Context(), w, "trust score failed", err, "holder_id", holder.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, score)
}

func (h *Handler) HandleIssuerStatus(w http.ResponseWriter, r *http.Request) {
	issuerID, err := id.ParseIssuerID(chi.URLParam(r, "issuer"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status, err := h.service.IssuerStatus(r.Context(), issuerID)
	if err != nil {
		h.fail(r.Context(), w, "issuer status failed", err, "issuer_id", issuerID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) HandleExportCredential(w http.ResponseWriter, r *http.Request) {
	holder, ok := holderParam(w, r)
	if !ok {
		return
	}
	doc, err := h.service.ExportCredential(r.Context(), holder)
	if err != nil {
		h.fail(r.Context(), w, "credential export failed", err, "holder_id", holder.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) HandleVerifyCredential(w http.ResponseWriter, r *http.Request) {
	var doc credential.Document
	if err := httputil.DecodeJSON(r, &doc); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.VerifyCredential(r.Context(), &doc); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			httputil.WriteJSON(w, http.StatusOK, CredentialCheckResponse{Valid: false})
			return
		}
		h.fail(r.Context(), w, "credential verification failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CredentialCheckResponse{Valid: true})
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	holder, ok := holderParam(w, r)
	if !ok {
		return
	}
	useCase, err := engine.ParseUseCase(r.URL.Query().Get("use_case"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	summary, err := h.service.Verify(r.Context(), holder, useCase)
	if err != nil {
		h.fail(r.Context(), w, "verification failed", err, "holder_id", holder.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// fail logs err at a level matching its status and writes the response.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, attrs ...any) {
	attrs = append(attrs, "request_id", requestcontext.RequestID(ctx), "error", err)
	code, _ := dErrors.CodeOf(err)
	if httputil.StatusFor(code) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.InfoContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

func holderParam(w http.ResponseWriter, r *http.Request) (id.HolderID, bool) {
	holder, err := id.ParseHolderID(chi.URLParam(r, "holder"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return holder, true
}

func pageParams(r *http.Request) (id.EndorsementID, int, error) {
	q := r.URL.Query()
	var after id.EndorsementID
	if s := q.Get("after"); s != "" {
		parsed, err := id.ParseEndorsementID(s)
		if err != nil {
			return 0, 0, err
		}
		after = parsed
	}
	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, 0, dErrors.New(dErrors.CodeInvalidInput, "limit must be a non-negative integer")
		}
		limit = n
	}
	return after, limit, nil
}
