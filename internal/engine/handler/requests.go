package handler

import (
	"strings"

	"vouch/internal/identity/models"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// CreateIdentityRequest is the body of POST /v1/identities. Field names
// follow the stored profile blob.
type CreateIdentityRequest struct {
	Name           string   `json:"name"`
	Bio            string   `json:"bio"`
	Skills         []string `json:"skills"`
	Education      string   `json:"education"`
	Portfolio      string   `json:"portfolio"`
	CredentialType string   `json:"credentialType"`
	IssuedBy       string   `json:"issuedBy"`
	IssuerAddress  string   `json:"issuerAddress"`
}

func (r *CreateIdentityRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if addr := strings.TrimSpace(r.IssuerAddress); addr != "" {
		parsed, err := id.ParseIssuerID(addr)
		if err != nil {
			return err
		}
		r.IssuerAddress = parsed.String()
	}
	return nil
}

// Profile converts the request into a profile. The engine normalizes and
// validates it.
func (r *CreateIdentityRequest) Profile() models.Profile {
	return models.Profile{
		Name:           r.Name,
		Bio:            r.Bio,
		Skills:         r.Skills,
		Education:      r.Education,
		Portfolio:      r.Portfolio,
		CredentialType: models.CredentialType(r.CredentialType),
		IssuedBy:       models.IssuedBy(r.IssuedBy),
		IssuerAddress:  r.IssuerAddress,
	}
}

// EndorseRequest is the body of POST /v1/endorsements. The endorser is the
// authenticated holder.
type EndorseRequest struct {
	Endorsed string `json:"endorsed"`
	Rating   int    `json:"rating"`
	Message  string `json:"message"`

	parsedEndorsed id.HolderID
}

func (r *EndorseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	endorsed, err := id.ParseHolderID(strings.TrimSpace(r.Endorsed))
	if err != nil {
		return err
	}
	r.parsedEndorsed = endorsed
	return nil
}

func (r *EndorseRequest) ParsedEndorsed() id.HolderID {
	return r.parsedEndorsed
}
