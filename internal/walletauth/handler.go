package walletauth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
	"vouch/pkg/requestcontext"
)

type Authenticator interface {
	Challenge(ctx context.Context, holder id.HolderID) Challenge
	Login(ctx context.Context, holder id.HolderID, signature string) (*Token, error)
}

type Handler struct {
	auth   Authenticator
	logger *slog.Logger
}

func NewHandler(auth Authenticator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{auth: auth, logger: logger}
}

func (h *Handler) Register(r chi.Router, middlewares ...func(http.Handler) http.Handler) {
	r.With(middlewares...).Post("/v1/auth/challenge", h.HandleChallenge)
	r.With(middlewares...).Post("/v1/auth/token", h.HandleToken)
}

type ChallengeRequest struct {
	Holder string `json:"holder"`

	parsed id.HolderID
}

func (r *ChallengeRequest) Validate() error {
	holder, err := id.ParseHolderID(r.Holder)
	if err != nil {
		return err
	}
	r.parsed = holder
	return nil
}

type TokenRequest struct {
	Holder    string `json:"holder"`
	Signature string `json:"signature"`

	parsed id.HolderID
}

func (r *TokenRequest) Validate() error {
	holder, err := id.ParseHolderID(r.Holder)
	if err != nil {
		return err
	}
	if r.Signature == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "signature is required")
	}
	r.parsed = holder
	return nil
}

func (h *Handler) HandleChallenge(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[ChallengeRequest](w, r, h.logger)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.auth.Challenge(r.Context(), req.parsed))
}

func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[TokenRequest](w, r, h.logger)
	if !ok {
		return
	}
	token, err := h.auth.Login(ctx, req.parsed, req.Signature)
	if err != nil {
		h.logger.InfoContext(ctx, "wallet login rejected",
			"holder_id", req.parsed.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, token)
}
