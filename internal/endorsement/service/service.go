// Package service is the endorsement ledger. An append, the reputation
// delta and the endorsement count increment it causes commit together.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"vouch/internal/audit"
	"vouch/internal/endorsement/metrics"
	"vouch/internal/endorsement/models"
	idmodels "vouch/internal/identity/models"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/sentinel"
	txcontext "vouch/pkg/platform/tx"
	"vouch/pkg/requestcontext"
)

// Store is the ledger persistence port.
type Store interface {
	Append(ctx context.Context, e *models.Endorsement) error
	FindByID(ctx context.Context, endorsementID id.EndorsementID) (*models.Endorsement, error)
	FindByIdempotencyKey(ctx context.Context, endorser id.HolderID, key string) (*models.Endorsement, error)
	ListByEndorsed(ctx context.Context, holder id.HolderID) ([]*models.Endorsement, error)
	ListByEndorser(ctx context.Context, holder id.HolderID) ([]*models.Endorsement, error)
	ListPage(ctx context.Context, holder id.HolderID, after id.EndorsementID, limit int) ([]*models.Endorsement, error)
}

// IdentityRegistry is the slice of the identity registry the ledger drives.
type IdentityRegistry interface {
	LockIdentity(ctx context.Context, holder id.HolderID) (*idmodels.Identity, error)
	RecordEndorsement(ctx context.Context, holder id.HolderID, points int64) (*idmodels.Identity, error)
}

type Service struct {
	store    Store
	registry IdentityRegistry
	tx       txcontext.Runner
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    audit.Emitter
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

func New(store Store, registry IdentityRegistry, tx txcontext.Runner, opts ...Option) *Service {
	s := &Service{store: store, registry: registry, tx: tx, audit: audit.Nop{}}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// abortedError marks failures that happened after the ledger changed.
type abortedError struct{ err error }

func (a abortedError) Error() string { return a.err.Error() }
func (a abortedError) Unwrap() error { return a.err }

// Append validates req and commits a new endorsement. Validation order is
// self-endorsement, rating, then unknown endorsed identity. A failure after
// the entry is written rolls everything back and returns TransactionAborted.
// Retrying with the same endorser and idempotency key returns the original
// entry.
func (s *Service) Append(ctx context.Context, req models.AppendRequest) (*models.Endorsement, error) {
	start := time.Now()
	defer s.metrics.ObserveAppend(start)

	if err := req.Validate(); err != nil {
		s.reject(ctx, req, err)
		return nil, err
	}

	var (
		result *models.Endorsement
		replay bool
	)
	err := s.tx.RunInTx(ctx, req.EndorsedID.Key(), func(ctx context.Context) error {
		// The endorsed row lock is taken before any ledger read or write.
		if _, err := s.registry.LockIdentity(ctx, req.EndorsedID); err != nil {
			if dErrors.Is(err, dErrors.CodeNotFound) {
				return dErrors.New(dErrors.CodeUnknownIdentity, "endorsed holder has no identity").
					WithDetail("holder_id", req.EndorsedID.String())
			}
			return err
		}

		if req.IdempotencyKey != "" {
			existing, err := s.store.FindByIdempotencyKey(ctx, req.EndorserID, req.IdempotencyKey)
			switch {
			case err == nil:
				result, replay = existing, true
				return nil
			case !errors.Is(err, sentinel.ErrNotFound):
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check idempotency key")
			}
		}

		e := models.NewEndorsement(req, requestcontext.Now(ctx))
		if err := s.store.Append(ctx, e); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeAlreadyExists, "idempotency key already used for another endorsement").
					WithDetail("idempotency_key", req.IdempotencyKey)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append endorsement")
		}
		if _, err := s.registry.RecordEndorsement(ctx, req.EndorsedID, e.Points); err != nil {
			return abortedError{err: err}
		}
		result = e
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, req, err)
	}
	if replay {
		return result, nil
	}

	s.metrics.IncrementAppended()
	s.logger.InfoContext(ctx, "endorsement appended",
		"endorsement_id", result.ID.String(),
		"endorser_id", result.EndorserID.String(),
		"endorsed_id", result.EndorsedID.String(),
		"rating", result.Rating,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionEndorsementAppended,
		Subject: result.EndorsedID.String(),
		Actor:   result.EndorserID.String(),
		Attributes: map[string]string{
			"endorsement_id": result.ID.String(),
			"rating":         strconv.Itoa(result.Rating),
			"points":         strconv.FormatInt(result.Points, 10),
		},
	})
	return result, nil
}

func (s *Service) fail(ctx context.Context, req models.AppendRequest, err error) error {
	var aborted abortedError
	if errors.As(err, &aborted) {
		s.metrics.IncrementAborted()
		s.logger.WarnContext(ctx, "endorsement rolled back",
			"endorsed_id", req.EndorsedID.String(),
			"error", aborted.err,
			"request_id", requestcontext.RequestID(ctx),
		)
		s.audit.Emit(ctx, audit.Event{
			Action:  audit.ActionEndorsementAborted,
			Subject: req.EndorsedID.String(),
			Actor:   req.EndorserID.String(),
		})
		return dErrors.Wrap(aborted.err, dErrors.CodeTransactionAborted, "endorsement rolled back").
			WithDetail("holder_id", req.EndorsedID.String())
	}
	if dErrors.Is(err, dErrors.CodeTransactionAborted) {
		s.metrics.IncrementAborted()
		return err
	}
	s.reject(ctx, req, err)
	return err
}

func (s *Service) reject(ctx context.Context, req models.AppendRequest, err error) {
	code, _ := dErrors.CodeOf(err)
	s.metrics.IncrementRejected(string(code))
	s.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionEndorsementRejected,
		Subject:    req.EndorsedID.String(),
		Actor:      req.EndorserID.String(),
		Attributes: map[string]string{"code": string(code)},
	})
}

// GetEndorsement returns one ledger entry.
func (s *Service) GetEndorsement(ctx context.Context, endorsementID id.EndorsementID) (*models.Endorsement, error) {
	e, err := s.store.FindByID(ctx, endorsementID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "endorsement not found").
				WithDetail("endorsement_id", endorsementID.String())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load endorsement")
	}
	return e, nil
}

// ListByHolder returns the endorsements holder received, oldest first.
func (s *Service) ListByHolder(ctx context.Context, holder id.HolderID) ([]*models.Endorsement, error) {
	list, err := s.store.ListByEndorsed(ctx, holder)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list endorsements")
	}
	return list, nil
}

// ListByEndorser returns the endorsements holder gave, oldest first.
func (s *Service) ListByEndorser(ctx context.Context, holder id.HolderID) ([]*models.Endorsement, error) {
	list, err := s.store.ListByEndorser(ctx, holder)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list endorsements")
	}
	return list, nil
}

// ListPage returns endorsements received by holder with ID greater than after.
func (s *Service) ListPage(ctx context.Context, holder id.HolderID, after id.EndorsementID, limit int) (*models.Page, error) {
	limit = models.NormalizeLimit(limit)
	// one extra row tells us whether a next page exists
	items, err := s.store.ListPage(ctx, holder, after, limit+1)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list endorsements")
	}
	page := &models.Page{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.Next = page.Items[limit-1].ID
	}
	return page, nil
}

// Aggregate summarizes the endorsements holder received.
func (s *Service) Aggregate(ctx context.Context, holder id.HolderID) (models.Aggregate, error) {
	list, err := s.ListByHolder(ctx, holder)
	if err != nil {
		return models.Aggregate{}, err
	}
	return models.AggregateOf(list), nil
}
