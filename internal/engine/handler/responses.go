package handler

import (
	"time"

	endorsement "vouch/internal/endorsement/models"
	"vouch/internal/engine"
	"vouch/internal/identity/models"
)

type IdentityResponse struct {
	HolderID            string          `json:"holder_id"`
	ContentHash         string          `json:"content_hash"`
	Reputation          int64           `json:"reputation"`
	EffectiveReputation int64           `json:"effective_reputation"`
	EndorsementCount    int64           `json:"endorsement_count"`
	CreatedAt           time.Time       `json:"created_at"`
	LastActivity        time.Time       `json:"last_activity"`
	Profile             *models.Profile `json:"profile,omitempty"`
}

func FromIdentityView(v *engine.IdentityView) *IdentityResponse {
	return &IdentityResponse{
		HolderID:            v.HolderID.String(),
		ContentHash:         v.ContentHash.String(),
		Reputation:          v.DisplayReputation(),
		EffectiveReputation: min(v.EffectiveReputation, models.MaxReputation),
		EndorsementCount:    v.EndorsementCount,
		CreatedAt:           v.CreatedAt,
		LastActivity:        v.LastActivity,
		Profile:             v.Profile,
	}
}

type EndorsementResponse struct {
	ID          string    `json:"id"`
	Endorser    string    `json:"endorser"`
	Endorsed    string    `json:"endorsed"`
	Rating      int       `json:"rating"`
	Points      int64     `json:"points"`
	Timestamp   time.Time `json:"timestamp"`
	MessageHash string    `json:"message_hash"`
}

func FromEndorsement(e *endorsement.Endorsement) EndorsementResponse {
	return EndorsementResponse{
		ID:          e.ID.String(),
		Endorser:    e.EndorserID.String(),
		Endorsed:    e.EndorsedID.String(),
		Rating:      e.Rating,
		Points:      e.Points,
		Timestamp:   e.Timestamp,
		MessageHash: e.MessageHash.String(),
	}
}

type EndorsementListResponse struct {
	Items []EndorsementResponse `json:"items"`
	Next  string                `json:"next,omitempty"`
}

func FromEndorsements(items []*endorsement.Endorsement) *EndorsementListResponse {
	out := &EndorsementListResponse{Items: make([]EndorsementResponse, 0, len(items))}
	for _, e := range items {
		out.Items = append(out.Items, FromEndorsement(e))
	}
	return out
}

func FromPage(p *endorsement.Page) *EndorsementListResponse {
	out := FromEndorsements(p.Items)
	if p.Next != 0 {
		out.Next = p.Next.String()
	}
	return out
}

// EndorsementDetailResponse adds the stored message when it resolves.
type EndorsementDetailResponse struct {
	EndorsementResponse
	Message string `json:"message,omitempty"`
}

type CredentialCheckResponse struct {
	Valid bool `json:"valid"`
}
