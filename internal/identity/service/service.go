// Package service is the identity registry: one identity per holder, with
// reputation that only grows. All mutations of a holder run under that
// holder's tx.Runner boundary.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"vouch/internal/audit"
	"vouch/internal/identity/metrics"
	"vouch/internal/identity/models"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/sentinel"
	txcontext "vouch/pkg/platform/tx"
	"vouch/pkg/requestcontext"
)

// Store is the identity persistence port.
type Store interface {
	Create(ctx context.Context, identity *models.Identity) error
	FindByHolder(ctx context.Context, holder id.HolderID) (*models.Identity, error)
	FindForUpdate(ctx context.Context, holder id.HolderID) (*models.Identity, error)
	Execute(ctx context.Context, holder id.HolderID, validate func(*models.Identity) error, mutate func(*models.Identity)) (*models.Identity, error)
}

type Service struct {
	store   Store
	tx      txcontext.Runner
	policy  models.ReputationPolicy
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   audit.Emitter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(e audit.Emitter) Option {
	return func(s *Service) { s.audit = e }
}

// WithPolicy selects where reputation is clamped. Defaults to ClampAtDisplay.
func WithPolicy(p models.ReputationPolicy) Option {
	return func(s *Service) { s.policy = p }
}

func New(store Store, tx txcontext.Runner, opts ...Option) *Service {
	s := &Service{store: store, tx: tx, policy: models.ClampAtDisplay, audit: audit.Nop{}}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Policy reports the configured clamp policy.
func (s *Service) Policy() models.ReputationPolicy { return s.policy }

// CreateIdentity registers holder with contentHash.
func (s *Service) CreateIdentity(ctx context.Context, holder id.HolderID, contentHash id.ContentHash) (*models.Identity, error) {
	identity, err := models.NewIdentity(holder, contentHash, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, err.Error())
	}

	err = s.tx.RunInTx(ctx, holder.Key(), func(ctx context.Context) error {
		return s.store.Create(ctx, identity)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeAlreadyExists, "identity already exists").
				WithDetail("holder_id", holder.String())
		}
		return nil, s.translate(err, holder, "failed to create identity")
	}

	s.metrics.IncrementIdentitiesCreated()
	s.logger.InfoContext(ctx, "identity created",
		"holder_id", holder.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionIdentityCreated,
		Subject: holder.String(),
		Actor:   holder.String(),
		Attributes: map[string]string{
			"content_hash": contentHash.String(),
		},
	})
	return identity, nil
}

func (s *Service) GetIdentity(ctx context.Context, holder id.HolderID) (*models.Identity, error) {
	identity, err := s.store.FindByHolder(ctx, holder)
	if err != nil {
		return nil, s.translate(err, holder, "failed to load identity")
	}
	return identity, nil
}

// LockIdentity loads holder's identity and, inside a tx.Runner transaction,
// holds its row lock until that transaction ends.
func (s *Service) LockIdentity(ctx context.Context, holder id.HolderID) (*models.Identity, error) {
	identity, err := s.store.FindForUpdate(ctx, holder)
	if err != nil {
		return nil, s.translate(err, holder, "failed to lock identity")
	}
	return identity, nil
}

// ApplyReputationDelta adds delta to holder's reputation and returns the new
// stored value.
func (s *Service) ApplyReputationDelta(ctx context.Context, holder id.HolderID, delta int64) (int64, error) {
	if delta < 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "reputation delta must be non-negative").
			WithDetail("holder_id", holder.String())
	}
	identity, err := s.mutate(ctx, holder,
		func(i *models.Identity) error { return i.CanApplyDelta(delta) },
		func(i *models.Identity, now time.Time) { i.ApplyDelta(delta, s.policy, now) },
	)
	if err != nil {
		return 0, err
	}
	s.metrics.AddReputation(delta)
	return identity.Reputation, nil
}

func (s *Service) TouchActivity(ctx context.Context, holder id.HolderID) (*models.Identity, error) {
	return s.mutate(ctx, holder,
		func(*models.Identity) error { return nil },
		func(i *models.Identity, now time.Time) { i.Touch(now) },
	)
}

// RecordEndorsement applies one endorsement worth points: reputation,
// endorsement count and last activity change together or not at all.
func (s *Service) RecordEndorsement(ctx context.Context, holder id.HolderID, points int64) (*models.Identity, error) {
	if points < 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "endorsement points must be non-negative").
			WithDetail("holder_id", holder.String())
	}
	identity, err := s.mutate(ctx, holder,
		func(i *models.Identity) error { return i.CanApplyDelta(points) },
		func(i *models.Identity, now time.Time) { i.ApplyEndorsement(points, s.policy, now) },
	)
	if err != nil {
		return nil, err
	}
	s.metrics.AddReputation(points)
	s.logger.DebugContext(ctx, "endorsement recorded",
		"holder_id", holder.String(),
		"points", strconv.FormatInt(points, 10),
		"reputation", identity.Reputation,
	)
	return identity, nil
}

func (s *Service) mutate(ctx context.Context, holder id.HolderID, validate func(*models.Identity) error, apply func(*models.Identity, time.Time)) (*models.Identity, error) {
	start := time.Now()
	defer s.metrics.ObserveMutation(start)

	now := requestcontext.Now(ctx)
	var out *models.Identity
	err := s.tx.RunInTx(ctx, holder.Key(), func(ctx context.Context) error {
		updated, err := s.store.Execute(ctx, holder, validate, func(i *models.Identity) { apply(i, now) })
		if err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, s.translate(err, holder, "failed to update identity")
	}
	return out, nil
}

// translate maps store facts to domain errors. Domain errors pass through
// with the holder attached.
func (s *Service) translate(err error, holder id.HolderID, msg string) error {
	var de *dErrors.Error
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "identity not found").WithDetail("holder_id", holder.String())
	case errors.As(err, &de):
		if _, ok := de.Details["holder_id"]; ok {
			return de
		}
		return de.WithDetail("holder_id", holder.String())
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg).WithDetail("holder_id", holder.String())
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg).WithDetail("holder_id", holder.String())
	}
}
