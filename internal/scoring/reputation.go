// Package scoring holds the read-time projections over identities: decayed
// reputation, sybil resistance and the composite trust score. Everything here
// is pure and safe for concurrent use.
package scoring

import (
	"math"
	"time"

	endorsement "vouch/internal/endorsement/models"
	"vouch/internal/identity/models"
)

const day = 24 * time.Hour

// DefaultDecayPerDay is the linear decay rate in points per day.
const DefaultDecayPerDay = 0.5

// Decay reduces a stored reputation by the time elapsed since creation.
type Decay interface {
	Apply(reputation int64, elapsed time.Duration) float64
}

// LinearDecay subtracts PerDay points for every (fractional) day elapsed.
type LinearDecay struct {
	PerDay float64
}

func (d LinearDecay) Apply(reputation int64, elapsed time.Duration) float64 {
	return float64(reputation) - d.PerDay*elapsed.Hours()/24
}

// HalfLifeDecay halves reputation every HalfLife.
type HalfLifeDecay struct {
	HalfLife time.Duration
}

func (d HalfLifeDecay) Apply(reputation int64, elapsed time.Duration) float64 {
	if d.HalfLife <= 0 {
		return float64(reputation)
	}
	lambda := math.Ln2 / d.HalfLife.Hours()
	return float64(reputation) * math.Exp(-lambda*elapsed.Hours())
}

// NewDecay selects a decay model by name: "linear" (default) or "half_life".
func NewDecay(model string, perDay float64, halfLife time.Duration) Decay {
	if model == "half_life" {
		return HalfLifeDecay{HalfLife: halfLife}
	}
	return LinearDecay{PerDay: perDay}
}

// ReputationEngine computes effective reputation from stored reputation.
type ReputationEngine struct {
	decay Decay
}

// NewReputationEngine builds an engine. A nil decay selects
// LinearDecay{DefaultDecayPerDay}.
func NewReputationEngine(decay Decay) *ReputationEngine {
	if decay == nil {
		decay = LinearDecay{PerDay: DefaultDecayPerDay}
	}
	return &ReputationEngine{decay: decay}
}

// EffectiveReputation returns reputation minus decay since CreatedAt, rounded
// half up and floored at zero. It never exceeds the stored value.
func (e *ReputationEngine) EffectiveReputation(identity *models.Identity, now time.Time) int64 {
	if identity == nil {
		return 0
	}
	decayed := e.decay.Apply(identity.Reputation, elapsed(identity.CreatedAt, now))
	if decayed <= 0 {
		return 0
	}
	effective := int64(math.Floor(decayed + 0.5))
	if effective > identity.Reputation {
		return identity.Reputation
	}
	return effective
}

func elapsed(from, now time.Time) time.Duration {
	if now.Before(from) {
		return 0
	}
	return now.Sub(from)
}

func wholeDays(from, now time.Time) int64 {
	return int64(elapsed(from, now) / day)
}

// Badge is the reputation tier shown next to a profile.
type Badge string

const (
	BadgeElite    Badge = "Elite"
	BadgeTrusted  Badge = "Trusted"
	BadgeVerified Badge = "Verified"
	BadgeNew      Badge = "New"
)

// BadgeFor maps an effective reputation to its tier.
func BadgeFor(effective int64) Badge {
	switch {
	case effective >= 80:
		return BadgeElite
	case effective >= 60:
		return BadgeTrusted
	case effective >= 40:
		return BadgeVerified
	default:
		return BadgeNew
	}
}

// Breakdown explains a holder's reputation.
type Breakdown struct {
	TotalReputation     int64   `json:"total_reputation"`
	EffectiveReputation int64   `json:"effective_reputation"`
	EndorsementCount    int64   `json:"endorsement_count"`
	AverageRating       float64 `json:"average_rating"`
	DaysSinceCreation   int64   `json:"days_since_creation"`
	DaysSinceActivity   int64   `json:"days_since_activity"`
	Badge               Badge   `json:"badge"`
	Decaying            bool    `json:"decaying"`
}

func (e *ReputationEngine) Breakdown(identity *models.Identity, agg endorsement.Aggregate, now time.Time) Breakdown {
	if identity == nil {
		return Breakdown{Badge: BadgeNew}
	}
	effective := e.EffectiveReputation(identity, now)
	return Breakdown{
		TotalReputation:     identity.DisplayReputation(),
		EffectiveReputation: min(effective, models.MaxReputation),
		EndorsementCount:    identity.EndorsementCount,
		AverageRating:       agg.AverageRating,
		DaysSinceCreation:   wholeDays(identity.CreatedAt, now),
		DaysSinceActivity:   wholeDays(identity.LastActivity, now),
		Badge:               BadgeFor(effective),
		Decaying:            effective < identity.Reputation,
	}
}
