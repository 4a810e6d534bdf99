// Package service exposes issuer status to the core and keeps the
// administrative write path separate from it.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"vouch/internal/audit"
	"vouch/internal/issuer/models"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/requestcontext"
)

type Store interface {
	Upsert(ctx context.Context, issuer *models.Issuer) error
	FindByID(ctx context.Context, issuerID id.IssuerID) (*models.Issuer, error)
	List(ctx context.Context) ([]*models.Issuer, error)
}

// Service is the read-only view the core uses.
type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

// IsVerifiedIssuer reports issuerID's status. Unregistered issuers are
// unverified individuals.
func (s *Service) IsVerifiedIssuer(ctx context.Context, issuerID id.IssuerID) (models.Status, error) {
	issuer, err := s.store.FindByID(ctx, issuerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.UnknownStatus, nil
		}
		return models.Status{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load issuer").
			WithDetail("issuer_id", issuerID.String())
	}
	return issuer.Status(), nil
}

// Admin is the write path for issuer records. It is only reachable from the
// seed loader and the admin-token protected route.
type Admin struct {
	store  Store
	logger *slog.Logger
	audit  audit.Emitter
}

type AdminOption func(*Admin)

func WithLogger(logger *slog.Logger) AdminOption {
	return func(a *Admin) { a.logger = logger }
}

func WithAuditPublisher(e audit.Emitter) AdminOption {
	return func(a *Admin) { a.audit = e }
}

func NewAdmin(store Store, opts ...AdminOption) *Admin {
	a := &Admin{store: store, audit: audit.Nop{}}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// SetIssuer creates or replaces issuerID's record.
func (a *Admin) SetIssuer(ctx context.Context, issuerID id.IssuerID, verified bool, role models.Role) (*models.Issuer, error) {
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid issuer role").WithDetail("role", string(role))
	}
	issuer := &models.Issuer{
		IssuerID:  issuerID,
		Verified:  verified,
		Role:      role,
		UpdatedAt: requestcontext.Now(ctx),
	}
	if err := a.store.Upsert(ctx, issuer); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save issuer").
			WithDetail("issuer_id", issuerID.String())
	}

	a.logger.InfoContext(ctx, "issuer updated",
		"issuer_id", issuerID.String(),
		"verified", verified,
		"role", string(role),
		"request_id", requestcontext.RequestID(ctx),
	)
	a.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionIssuerUpdated,
		Subject: issuerID.String(),
		Actor:   "admin",
		Attributes: map[string]string{
			"verified": strconv.FormatBool(verified),
			"role":     string(role),
		},
	})
	return issuer, nil
}

func (a *Admin) List(ctx context.Context) ([]*models.Issuer, error) {
	issuers, err := a.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list issuers")
	}
	return issuers, nil
}

// SeedEntry is one record of the issuer seed file.
type SeedEntry struct {
	IssuerID string `json:"issuer_id"`
	Verified bool   `json:"verified"`
	Role     string `json:"role"`
}

// LoadSeedFile applies the JSON array of SeedEntry at path. An empty path is
// a no-op.
func (a *Admin) LoadSeedFile(ctx context.Context, path string) (int, error) {
	if path == "" {
		return 0, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read issuer seed: %w", err)
	}
	var entries []SeedEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return 0, fmt.Errorf("parse issuer seed: %w", err)
	}
	return a.Seed(ctx, entries)
}

// Seed validates every entry before writing any of them.
func (a *Admin) Seed(ctx context.Context, entries []SeedEntry) (int, error) {
	type parsed struct {
		issuer id.IssuerID
		role   models.Role
	}
	valid := make([]parsed, 0, len(entries))
	for i, e := range entries {
		issuerID, err := id.ParseIssuerID(e.IssuerID)
		if err != nil {
			return 0, fmt.Errorf("issuer seed entry %d: %w", i, err)
		}
		role, err := models.ParseRole(e.Role)
		if err != nil {
			return 0, fmt.Errorf("issuer seed entry %d: %w", i, err)
		}
		valid = append(valid, parsed{issuer: issuerID, role: role})
	}
	for i, p := range valid {
		if _, err := a.SetIssuer(ctx, p.issuer, entries[i].Verified, p.role); err != nil {
			return i, err
		}
	}
	return len(valid), nil
}
