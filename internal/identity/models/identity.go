package models

import (
	"math"
	"time"

	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// MaxReputation is the ceiling applied to reputation wherever it is clamped.
const MaxReputation int64 = 100

// Identity is the registry's aggregate root, one per holder.
//
// Invariants:
//   - HolderID and ContentHash are set at creation and never change
//   - Reputation and EndorsementCount are non-negative and never decrease
//   - CreatedAt <= LastActivity
type Identity struct {
	HolderID         id.HolderID    `json:"holder_id"`
	ContentHash      id.ContentHash `json:"content_hash"`
	Reputation       int64          `json:"reputation"`
	EndorsementCount int64          `json:"endorsement_count"`
	CreatedAt        time.Time      `json:"created_at"`
	LastActivity     time.Time      `json:"last_activity"`
}

// NewIdentity builds a fresh identity with zero reputation.
func NewIdentity(holder id.HolderID, hash id.ContentHash, now time.Time) (*Identity, error) {
	if holder.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "holder ID required")
	}
	if hash.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "content hash required")
	}
	now = now.UTC().Truncate(time.Second)
	return &Identity{
		HolderID:     holder,
		ContentHash:  hash,
		CreatedAt:    now,
		LastActivity: now,
	}, nil
}

// Exists reports whether the record is present. A stored identity always exists.
func (i *Identity) Exists() bool { return i != nil }

// Clone returns a copy safe to hand outside the store.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	cp := *i
	return &cp
}

// CanApplyDelta checks that adding delta keeps the record valid.
func (i *Identity) CanApplyDelta(delta int64) error {
	if delta < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "reputation delta must be non-negative")
	}
	if i.Reputation > math.MaxInt64-delta {
		return dErrors.New(dErrors.CodeInvariantViolation, "reputation would overflow")
	}
	return nil
}

// ApplyDelta adds delta under policy and refreshes LastActivity.
// Call CanApplyDelta first.
func (i *Identity) ApplyDelta(delta int64, policy ReputationPolicy, now time.Time) {
	i.Reputation += delta
	if policy == ClampAtWrite && i.Reputation > MaxReputation {
		i.Reputation = MaxReputation
	}
	i.Touch(now)
}

// ApplyEndorsement records one endorsement worth points.
func (i *Identity) ApplyEndorsement(points int64, policy ReputationPolicy, now time.Time) {
	i.ApplyDelta(points, policy, now)
	i.EndorsementCount++
}

// Touch moves LastActivity forward. It never moves backwards, which keeps
// CreatedAt <= LastActivity even under clock skew between requests.
func (i *Identity) Touch(now time.Time) {
	now = now.UTC().Truncate(time.Second)
	if now.After(i.LastActivity) {
		i.LastActivity = now
	}
}

// DisplayReputation is the stored reputation capped at MaxReputation.
func (i *Identity) DisplayReputation() int64 {
	return min(i.Reputation, MaxReputation)
}

// ReputationPolicy decides where reputation is clamped to MaxReputation.
type ReputationPolicy int

const (
	// ClampAtDisplay keeps the stored value a raw accumulator; readers clamp.
	ClampAtDisplay ReputationPolicy = iota
	// ClampAtWrite stores min(reputation+delta, MaxReputation).
	ClampAtWrite
)

func (p ReputationPolicy) String() string {
	if p == ClampAtWrite {
		return "clamp_at_write"
	}
	return "clamp_at_display"
}

// ParseReputationPolicy parses the configuration value.
func ParseReputationPolicy(s string) (ReputationPolicy, error) {
	switch s {
	case "", "clamp_at_display":
		return ClampAtDisplay, nil
	case "clamp_at_write":
		return ClampAtWrite, nil
	default:
		return ClampAtDisplay, dErrors.New(dErrors.CodeInvalidInput, "unknown reputation policy: "+s)
	}
}
