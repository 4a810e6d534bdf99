// Package engine composes the registry, ledger, scorers, issuer directory
// and exporter into the operations the query surface serves.
package engine

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"vouch/internal/anchor"
	"vouch/internal/audit"
	"vouch/internal/contentstore"
	"vouch/internal/credential"
	endorsement "vouch/internal/endorsement/models"
	"vouch/internal/identity/models"
	issuer "vouch/internal/issuer/models"
	"vouch/internal/scoring"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/requestcontext"
)

type IdentityRegistry interface {
	CreateIdentity(ctx context.Context, holder id.HolderID, contentHash id.ContentHash) (*models.Identity, error)
	GetIdentity(ctx context.Context, holder id.HolderID) (*models.Identity, error)
}

type EndorsementLedger interface {
	Append(ctx context.Context, req endorsement.AppendRequest) (*endorsement.Endorsement, error)
	GetEndorsement(ctx context.Context, endorsementID id.EndorsementID) (*endorsement.Endorsement, error)
	ListByEndorser(ctx context.Context, holder id.HolderID) ([]*endorsement.Endorsement, error)
	ListPage(ctx context.Context, holder id.HolderID, after id.EndorsementID, limit int) (*endorsement.Page, error)
	Aggregate(ctx context.Context, holder id.HolderID) (endorsement.Aggregate, error)
}

type IssuerDirectory interface {
	IsVerifiedIssuer(ctx context.Context, issuerID id.IssuerID) (issuer.Status, error)
}

type Service struct {
	identities   IdentityRegistry
	endorsements EndorsementLedger
	issuers      IssuerDirectory
	content      contentstore.Store
	ledger       anchor.Ledger
	reputation   *scoring.ReputationEngine
	sybil        *scoring.SybilScorer
	trust        *scoring.TrustComposer
	exporter     *credential.Exporter
	logger       *slog.Logger
	audit        audit.Emitter
	tracer       trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(e audit.Emitter) Option {
	return func(s *Service) { s.audit = e }
}

func WithReputationEngine(r *scoring.ReputationEngine) Option {
	return func(s *Service) { s.reputation = r }
}

func WithSybilScorer(sc *scoring.SybilScorer) Option {
	return func(s *Service) { s.sybil = sc }
}

// Deps groups the collaborators New needs.
type Deps struct {
	Identities   IdentityRegistry
	Endorsements EndorsementLedger
	Issuers      IssuerDirectory
	Content      contentstore.Store
	Anchor       anchor.Ledger
}

func New(deps Deps, opts ...Option) *Service {
	s := &Service{
		identities:   deps.Identities,
		endorsements: deps.Endorsements,
		issuers:      deps.Issuers,
		content:      deps.Content,
		ledger:       deps.Anchor,
		reputation:   scoring.NewReputationEngine(nil),
		sybil:        scoring.NewSybilScorer(0),
		trust:        scoring.NewTrustComposer(),
		exporter:     credential.NewExporter(),
		audit:        audit.Nop{},
		tracer:       otel.Tracer("vouch/engine"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Service) start(ctx context.Context, op string, holder string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "engine."+op, trace.WithAttributes(attribute.String("vouch.holder_id", holder)))
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// RegisterIdentity stores profile in the content store, registers the
// identity with the resulting hash and anchors it. Anchoring failures are
// logged; the identity stands without an anchor reference.
func (s *Service) RegisterIdentity(ctx context.Context, holder id.HolderID, profile models.Profile) (view *IdentityView, err error) {
	ctx, span := s.start(ctx, "RegisterIdentity", holder.String())
	defer func() { end(span, err) }()

	profile.Normalize()
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	blob, err := profile.Encode()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode profile")
	}
	hash, err := s.content.Put(ctx, blob)
	if err != nil {
		return nil, collaboratorError(err, "content store unavailable")
	}

	identity, err := s.identities.CreateIdentity(ctx, holder, hash)
	if err != nil {
		return nil, err
	}
	if _, err := s.ledger.Anchor(ctx, holder.String(), hash); err != nil {
		s.logger.WarnContext(ctx, "identity anchoring failed",
			"holder_id", holder.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return &IdentityView{Identity: identity, Profile: &profile, EffectiveReputation: 0}, nil
}

// GetIdentity returns the identity, its profile and its effective reputation.
// A missing profile blob yields a view without a profile.
func (s *Service) GetIdentity(ctx context.Context, holder id.HolderID) (view *IdentityView, err error) {
	ctx, span := s.start(ctx, "GetIdentity", holder.String())
	defer func() { end(span, err) }()

	identity, err := s.identities.GetIdentity(ctx, holder)
	if err != nil {
		return nil, err
	}
	profile, err := s.profile(ctx, identity)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, err
	}
	return &IdentityView{
		Identity:            identity,
		Profile:             profile,
		EffectiveReputation: s.reputation.EffectiveReputation(identity, requestcontext.Now(ctx)),
	}, nil
}

func (s *Service) profile(ctx context.Context, identity *models.Identity) (*models.Profile, error) {
	blob, err := s.content.Get(ctx, identity.ContentHash)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "profile blob missing",
				"holder_id", identity.HolderID.String(),
				"content_hash", identity.ContentHash.String(),
			)
			return nil, err
		}
		return nil, collaboratorError(err, "content store unavailable")
	}
	return models.DecodeProfile(blob)
}

// Endorse stores the message blob and appends the endorsement. Rules that
// need no lookups are checked before anything is written.
func (s *Service) Endorse(ctx context.Context, req EndorseRequest) (e *endorsement.Endorsement, err error) {
	ctx, span := s.start(ctx, "Endorse", req.EndorsedID.String())
	defer func() { end(span, err) }()

	if err := endorsement.CheckEndorsement(req.EndorserID, req.EndorsedID, req.Rating); err != nil {
		return nil, err
	}
	msg := endorsement.Message{
		Message:   req.Message,
		Rating:    req.Rating,
		Endorser:  req.EndorserID.String(),
		Endorsed:  req.EndorsedID.String(),
		Timestamp: requestcontext.Now(ctx),
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	blob, err := msg.Encode()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode endorsement message")
	}
	hash, err := s.content.Put(ctx, blob)
	if err != nil {
		return nil, collaboratorError(err, "content store unavailable")
	}
	return s.endorsements.Append(ctx, endorsement.AppendRequest{
		EndorserID:     req.EndorserID,
		EndorsedID:     req.EndorsedID,
		Rating:         req.Rating,
		MessageHash:    hash,
		IdempotencyKey: req.IdempotencyKey,
	})
}

func (s *Service) GetEndorsement(ctx context.Context, endorsementID id.EndorsementID) (*endorsement.Endorsement, error) {
	return s.endorsements.GetEndorsement(ctx, endorsementID)
}

// EndorsementMessage resolves the stored message of an endorsement.
func (s *Service) EndorsementMessage(ctx context.Context, e *endorsement.Endorsement) (*endorsement.Message, error) {
	blob, err := s.content.Get(ctx, e.MessageHash)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "endorsement message not found").
				WithDetail("endorsement_id", e.ID.String())
		}
		return nil, collaboratorError(err, "content store unavailable")
	}
	return endorsement.DecodeMessage(blob)
}

func (s *Service) ListEndorsements(ctx context.Context, holder id.HolderID, after id.EndorsementID, limit int) (*endorsement.Page, error) {
	return s.endorsements.ListPage(ctx, holder, after, limit)
}

func (s *Service) ListGiven(ctx context.Context, holder id.HolderID) ([]*endorsement.Endorsement, error) {
	return s.endorsements.ListByEndorser(ctx, holder)
}

// Reputation returns the decayed reputation breakdown of holder.
func (s *Service) Reputation(ctx context.Context, holder id.HolderID) (view *ReputationView, err error) {
	ctx, span := s.start(ctx, "Reputation", holder.String())
	defer func() { end(span, err) }()

	identity, err := s.identities.GetIdentity(ctx, holder)
	if err != nil {
		return nil, err
	}
	agg, err := s.endorsements.Aggregate(ctx, holder)
	if err != nil {
		return nil, err
	}
	return &ReputationView{
		Breakdown: s.reputation.Breakdown(identity, agg, requestcontext.Now(ctx)),
		Ledger:    agg,
	}, nil
}

// Sybil scores holder. Holders without an identity score zero.
func (s *Service) Sybil(ctx context.Context, holder id.HolderID) (scoring.SybilScore, error) {
	identity, err := s.lookup(ctx, holder)
	if err != nil {
		return scoring.SybilScore{}, err
	}
	return s.sybil.Score(identity, requestcontext.Now(ctx)), nil
}

// Trust composes holder's trust score. Holders without an identity get the
// floor score.
func (s *Service) Trust(ctx context.Context, holder id.HolderID) (scoring.TrustScore, error) {
	identity, err := s.lookup(ctx, holder)
	if err != nil {
		return scoring.TrustScore{}, err
	}
	now := requestcontext.Now(ctx)
	return s.trust.Compose(
		s.reputation.EffectiveReputation(identity, now),
		s.sybil.Score(identity, now).Score,
	), nil
}

// lookup returns nil without error for holders with no identity.
func (s *Service) lookup(ctx context.Context, holder id.HolderID) (*models.Identity, error) {
	identity, err := s.identities.GetIdentity(ctx, holder)
	if dErrors.Is(err, dErrors.CodeNotFound) {
		return nil, nil
	}
	return identity, err
}

func (s *Service) IssuerStatus(ctx context.Context, issuerID id.IssuerID) (issuer.Status, error) {
	return s.issuers.IsVerifiedIssuer(ctx, issuerID)
}

// snapshot is the set of collaborator reads an export or verification needs.
type snapshot struct {
	identity *models.Identity
	profile  *models.Profile
	agg      endorsement.Aggregate
	anchor   anchor.Reference
	anchored bool
	issuer   issuer.Status
}

// load reads the profile, ledger aggregate and anchor reference in parallel,
// then the issuer named by the profile.
func (s *Service) load(ctx context.Context, holder id.HolderID, requireProfile bool) (*snapshot, error) {
	identity, err := s.identities.GetIdentity(ctx, holder)
	if err != nil {
		return nil, err
	}
	snap := &snapshot{identity: identity}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profile, err := s.profile(gctx, identity)
		if errors.Is(err, sentinel.ErrNotFound) {
			if requireProfile {
				return dErrors.New(dErrors.CodeNotFound, "profile not found").
					WithDetail("holder_id", holder.String())
			}
			return nil
		}
		snap.profile = profile
		return err
	})
	g.Go(func() error {
		agg, err := s.endorsements.Aggregate(gctx, holder)
		snap.agg = agg
		return err
	})
	g.Go(func() error {
		ref, err := s.ledger.Reference(gctx, holder.String())
		switch {
		case err == nil:
			snap.anchor, snap.anchored = ref, true
			return nil
		case errors.Is(err, sentinel.ErrNotFound):
			return nil
		default:
			return collaboratorError(err, "anchor ledger unavailable")
		}
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	issuerID := id.IssuerID(holder)
	if snap.profile != nil && snap.profile.IssuerAddress != "" {
		if parsed, err := id.ParseIssuerID(snap.profile.IssuerAddress); err == nil {
			issuerID = parsed
		}
	}
	snap.issuer, err = s.issuers.IsVerifiedIssuer(ctx, issuerID)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ExportCredential packages holder's current state as a credential document.
func (s *Service) ExportCredential(ctx context.Context, holder id.HolderID) (doc *credential.Document, err error) {
	ctx, span := s.start(ctx, "ExportCredential", holder.String())
	defer func() { end(span, err) }()

	snap, err := s.load(ctx, holder, true)
	if err != nil {
		return nil, err
	}
	doc, err = s.exporter.Export(credential.Input{
		Identity:    snap.identity,
		Profile:     snap.profile,
		Ledger:      snap.agg,
		Issuer:      snap.issuer,
		Chain:       s.ledger.Context(),
		Anchor:      snap.anchor,
		GeneratedAt: requestcontext.Now(ctx),
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("vouch.document_hash", doc.Proof.DocumentHash))
	s.audit.Emit(ctx, audit.Event{
		Action:     audit.ActionCredentialExported,
		Subject:    holder.String(),
		Actor:      requestcontext.HolderID(ctx).String(),
		Attributes: map[string]string{"document_hash": doc.Proof.DocumentHash},
	})
	return doc, nil
}

// VerifyCredential checks a previously exported document.
func (s *Service) VerifyCredential(_ context.Context, doc *credential.Document) error {
	return s.exporter.Verify(doc)
}

// Verify builds the verifier summary for holder under useCase.
func (s *Service) Verify(ctx context.Context, holder id.HolderID, useCase UseCase) (summary *VerificationSummary, err error) {
	ctx, span := s.start(ctx, "Verify", holder.String())
	defer func() { end(span, err) }()

	snap, err := s.load(ctx, holder, false)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	breakdown := s.reputation.Breakdown(snap.identity, snap.agg, now)
	sybil := s.sybil.Score(snap.identity, now)

	summary = &VerificationSummary{
		HolderID:   holder,
		UseCase:    useCase,
		Verified:   true,
		Badge:      "Verified for " + useCase.Title() + " use-case",
		Reputation: breakdown,
		Sybil:      sybil,
		Trust:      s.trust.Compose(breakdown.EffectiveReputation, sybil.Score),
		Issuer:     snap.issuer,
		Checks: Checks{
			HasIdentity:      sybil.HasIdentity,
			MeetsWalletAge:   sybil.MeetsWalletAge,
			HasEndorsements:  sybil.HasEndorsements,
			EndorsementCount: snap.identity.EndorsementCount,
			HighReputation:   breakdown.EffectiveReputation >= HighReputationThreshold,
		},
		Chain: s.ledger.Context(),
	}
	if snap.profile != nil {
		summary.Name = snap.profile.Name
	}
	if snap.anchored {
		ref := snap.anchor
		summary.Anchor = &ref
	}
	return summary, nil
}

// collaboratorError maps content store and anchor failures.
func collaboratorError(err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
}
