package scoring

import (
	"time"

	"vouch/internal/identity/models"
)

// DefaultWalletAge is how old an identity must be to count as established.
const DefaultWalletAge = 30 * day

const (
	weightIdentity     = 34
	weightWalletAge    = 33
	weightEndorsements = 33
)

// Signal is one component of the sybil score.
type Signal struct {
	Name   string `json:"name"`
	Met    bool   `json:"met"`
	Weight int    `json:"weight"`
}

// SybilScore is the resistance verdict for one holder. Score is 0..100.
type SybilScore struct {
	HasIdentity     bool     `json:"has_identity"`
	MeetsWalletAge  bool     `json:"meets_wallet_age"`
	HasEndorsements bool     `json:"has_endorsements"`
	Score           int      `json:"score"`
	Level           string   `json:"level"`
	Signals         []Signal `json:"signals"`
}

// SybilScorer turns identity facts into a resistance score. Adding a
// satisfied signal never lowers the score.
type SybilScorer struct {
	walletAge time.Duration
}

// NewSybilScorer builds a scorer. A non-positive walletAge selects DefaultWalletAge.
func NewSybilScorer(walletAge time.Duration) *SybilScorer {
	if walletAge <= 0 {
		walletAge = DefaultWalletAge
	}
	return &SybilScorer{walletAge: walletAge}
}

// Score evaluates identity at now. A nil identity scores zero on every signal.
func (s *SybilScorer) Score(identity *models.Identity, now time.Time) SybilScore {
	var out SybilScore
	if identity != nil {
		out.HasIdentity = true
		out.MeetsWalletAge = elapsed(identity.CreatedAt, now) >= s.walletAge
		out.HasEndorsements = identity.EndorsementCount > 0
	}
	out.Signals = []Signal{
		{Name: "identity", Met: out.HasIdentity, Weight: weightIdentity},
		{Name: "wallet_age", Met: out.MeetsWalletAge, Weight: weightWalletAge},
		{Name: "endorsements", Met: out.HasEndorsements, Weight: weightEndorsements},
	}
	for _, sig := range out.Signals {
		if sig.Met {
			out.Score += sig.Weight
		}
	}
	if out.Score > 100 {
		out.Score = 100
	}
	out.Level = SybilLevel(out.Score)
	return out
}

// SybilLevel labels a sybil score as high, medium or low.
func SybilLevel(score int) string {
	switch {
	case score >= 80:
		return "high"
	case score >= 50:
		return "medium"
	default:
		return "low"
	}
}
