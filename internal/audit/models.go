package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names a state change worth keeping a trail of.
type Action string

const (
	ActionIdentityCreated     Action = "identity_created"
	ActionEndorsementAppended Action = "endorsement_appended"
	ActionEndorsementRejected Action = "endorsement_rejected"
	ActionEndorsementAborted  Action = "endorsement_aborted"
	ActionIssuerUpdated       Action = "issuer_updated"
	ActionCredentialExported  Action = "credential_exported"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Action     Action            `json:"action"`
	Subject    string            `json:"subject"`
	Actor      string            `json:"actor,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}
