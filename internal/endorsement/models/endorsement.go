package models

import (
	"encoding/json"
	"strings"
	"time"

	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

const (
	MinRating = 1
	MaxRating = 5
	// PointsPerStar converts a rating into reputation points.
	PointsPerStar = 2
	// MaxIdempotencyKeyLen bounds client-supplied retry keys.
	MaxIdempotencyKeyLen = 128
)

// Endorsement is one immutable ledger entry. Once appended it is never
// mutated or removed.
type Endorsement struct {
	ID             id.EndorsementID `json:"id"`
	EndorserID     id.HolderID      `json:"endorser_id"`
	EndorsedID     id.HolderID      `json:"endorsed_id"`
	Rating         int              `json:"rating"`
	Points         int64            `json:"points"`
	Timestamp      time.Time        `json:"timestamp"`
	MessageHash    id.ContentHash   `json:"message_hash"`
	IdempotencyKey string           `json:"-"`
}

// AppendRequest is the input to a ledger append.
type AppendRequest struct {
	EndorserID     id.HolderID
	EndorsedID     id.HolderID
	Rating         int
	MessageHash    id.ContentHash
	IdempotencyKey string
}

// Validate checks the request in the order callers observe failures:
// self-endorsement first, then rating.
func (r AppendRequest) Validate() error {
	if err := CheckEndorsement(r.EndorserID, r.EndorsedID, r.Rating); err != nil {
		return err
	}
	if r.EndorserID.IsNil() || r.EndorsedID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "endorser and endorsed are required")
	}
	if r.MessageHash.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "message hash is required")
	}
	if len(r.IdempotencyKey) > MaxIdempotencyKeyLen {
		return dErrors.New(dErrors.CodeInvalidInput, "idempotency key is too long")
	}
	return nil
}

// CheckEndorsement applies the rules that need no lookups: no
// self-endorsement, then the rating range.
func CheckEndorsement(endorser, endorsed id.HolderID, rating int) error {
	if endorser == endorsed {
		return dErrors.New(dErrors.CodeSelfEndorsement, "cannot endorse yourself").
			WithDetail("holder_id", endorsed.String())
	}
	return ValidateRating(rating)
}

// ValidateRating accepts ratings in [MinRating, MaxRating].
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return dErrors.New(dErrors.CodeInvalidRating, "rating must be between 1 and 5")
	}
	return nil
}

// PointsFor returns the reputation contribution of rating.
func PointsFor(rating int) int64 {
	return int64(rating) * PointsPerStar
}

// NewEndorsement builds an unsequenced entry from a validated request. The
// store assigns ID at append.
func NewEndorsement(req AppendRequest, now time.Time) *Endorsement {
	return &Endorsement{
		EndorserID:     req.EndorserID,
		EndorsedID:     req.EndorsedID,
		Rating:         req.Rating,
		Points:         PointsFor(req.Rating),
		Timestamp:      now.UTC().Truncate(time.Second),
		MessageHash:    req.MessageHash,
		IdempotencyKey: strings.TrimSpace(req.IdempotencyKey),
	}
}

func (e *Endorsement) Clone() *Endorsement {
	if e == nil {
		return nil
	}
	cp := *e
	return &cp
}

// Aggregate summarizes the endorsements a holder received.
type Aggregate struct {
	Count         int64   `json:"count"`
	AverageRating float64 `json:"average_rating"`
	TotalPoints   int64   `json:"total_points"`
}

// AggregateOf computes the summary of es. No endorsements gives the zero value.
func AggregateOf(es []*Endorsement) Aggregate {
	if len(es) == 0 {
		return Aggregate{}
	}
	var stars int64
	agg := Aggregate{Count: int64(len(es))}
	for _, e := range es {
		stars += int64(e.Rating)
		agg.TotalPoints += e.Points
	}
	agg.AverageRating = float64(stars) / float64(agg.Count)
	return agg
}

// Message is the blob an endorser stores alongside an endorsement.
type Message struct {
	Message   string    `json:"message"`
	Rating    int       `json:"rating"`
	Endorser  string    `json:"endorser"`
	Endorsed  string    `json:"endorsed"`
	Timestamp time.Time `json:"timestamp"`
}

const MaxMessageLen = 2000

// Validate checks the message body is present and bounded.
func (m Message) Validate() error {
	if strings.TrimSpace(m.Message) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "message is required")
	}
	if len(m.Message) > MaxMessageLen {
		return dErrors.New(dErrors.CodeInvalidInput, "message is too long")
	}
	return nil
}

func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeMessage parses a stored message blob.
func DecodeMessage(blob []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(blob, &m); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "endorsement message is corrupt")
	}
	return &m, nil
}

// Page is one slice of a holder's endorsements in ID order. Next is the
// cursor for the following page and zero when there is none.
type Page struct {
	Items []*Endorsement   `json:"items"`
	Next  id.EndorsementID `json:"next,omitempty"`
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// NormalizeLimit clamps a requested page size into [1, MaxPageSize].
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPageSize
	case limit > MaxPageSize:
		return MaxPageSize
	default:
		return limit
	}
}
