package engine

import (
	"strings"

	"vouch/internal/anchor"
	endorsement "vouch/internal/endorsement/models"
	"vouch/internal/identity/models"
	issuer "vouch/internal/issuer/models"
	"vouch/internal/scoring"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// EndorseRequest is an endorsement as a holder submits it: the message text
// is stored in the content store and only its hash reaches the ledger.
type EndorseRequest struct {
	EndorserID     id.HolderID
	EndorsedID     id.HolderID
	Rating         int
	Message        string
	IdempotencyKey string
}

// IdentityView is an identity with its decoded profile.
type IdentityView struct {
	*models.Identity
	Profile             *models.Profile `json:"profile,omitempty"`
	EffectiveReputation int64           `json:"effective_reputation"`
}

// UseCase selects the verifier wording.
type UseCase string

const (
	UseCaseHiring    UseCase = "hiring"
	UseCaseEducation UseCase = "education"
	UseCaseDAO       UseCase = "dao"
)

// ParseUseCase accepts hiring, education or dao; empty means hiring.
func ParseUseCase(s string) (UseCase, error) {
	switch UseCase(strings.ToLower(strings.TrimSpace(s))) {
	case "", UseCaseHiring:
		return UseCaseHiring, nil
	case UseCaseEducation:
		return UseCaseEducation, nil
	case UseCaseDAO:
		return UseCaseDAO, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "use_case must be hiring, education or dao")
}

func (u UseCase) Title() string {
	switch u {
	case UseCaseEducation:
		return "Education"
	case UseCaseDAO:
		return "DAO"
	default:
		return "Hiring"
	}
}

// HighReputationThreshold is the effective reputation the anti-gaming
// checks treat as established.
const HighReputationThreshold = 40

// Checks are the independent anti-gaming signals shown to a verifier.
type Checks struct {
	HasIdentity      bool  `json:"has_identity"`
	MeetsWalletAge   bool  `json:"meets_wallet_age"`
	HasEndorsements  bool  `json:"has_endorsements"`
	EndorsementCount int64 `json:"endorsement_count"`
	HighReputation   bool  `json:"high_reputation"`
}

// VerificationSummary is the read-only view a third party gets from a
// verifier link.
type VerificationSummary struct {
	HolderID   id.HolderID         `json:"holder_id"`
	UseCase    UseCase             `json:"use_case"`
	Verified   bool                `json:"verified"`
	Badge      string              `json:"badge"`
	Name       string              `json:"name"`
	Reputation scoring.Breakdown   `json:"reputation"`
	Sybil      scoring.SybilScore  `json:"sybil"`
	Trust      scoring.TrustScore  `json:"trust"`
	Issuer     issuer.Status       `json:"issuer"`
	Checks     Checks              `json:"checks"`
	Anchor     *anchor.Reference   `json:"anchor,omitempty"`
	Chain      anchor.ChainContext `json:"chain"`
}

// ReputationView pairs the breakdown with the ledger aggregate it used.
type ReputationView struct {
	scoring.Breakdown
	Ledger endorsement.Aggregate `json:"ledger"`
}
