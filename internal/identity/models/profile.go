package models

import (
	"encoding/json"
	"strings"

	dErrors "vouch/pkg/domain-errors"
	pstrings "vouch/pkg/platform/strings"
)

// CredentialType classifies what the profile attests to.
type CredentialType string

const (
	CredentialEducation   CredentialType = "Education"
	CredentialSkill       CredentialType = "Skill"
	CredentialExperience  CredentialType = "Experience"
	CredentialAchievement CredentialType = "Achievement"
)

// IssuedBy is the self-declared source of the profile.
type IssuedBy string

const (
	IssuedBySelf         IssuedBy = "Self"
	IssuedByOrganization IssuedBy = "Organization"
	IssuedByDAO          IssuedBy = "DAO"
	IssuedByInstitution  IssuedBy = "Institution"
)

const (
	maxNameLen  = 128
	maxTextLen  = 4096
	maxSkills   = 64
	maxSkillLen = 64
)

// Profile is the blob stored in the content store for an identity.
type Profile struct {
	Name           string         `json:"name"`
	Bio            string         `json:"bio"`
	Skills         []string       `json:"skills"`
	Education      string         `json:"education"`
	Portfolio      string         `json:"portfolio,omitempty"`
	CredentialType CredentialType `json:"credentialType"`
	IssuedBy       IssuedBy       `json:"issuedBy"`
	IssuerAddress  string         `json:"issuerAddress,omitempty"`
}

// Normalize trims text fields, de-duplicates skills and fills defaults.
func (p *Profile) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Bio = strings.TrimSpace(p.Bio)
	p.Education = strings.TrimSpace(p.Education)
	p.Portfolio = strings.TrimSpace(p.Portfolio)
	p.IssuerAddress = strings.TrimSpace(p.IssuerAddress)
	p.Skills = pstrings.DedupeAndTrim(p.Skills)
	if p.CredentialType == "" {
		p.CredentialType = CredentialEducation
	}
	if p.IssuedBy == "" {
		p.IssuedBy = IssuedBySelf
	}
}

// Validate checks required fields and enumerations. Call Normalize first.
func (p *Profile) Validate() error {
	switch {
	case p.Name == "":
		return dErrors.New(dErrors.CodeInvalidInput, "name is required")
	case p.Bio == "":
		return dErrors.New(dErrors.CodeInvalidInput, "bio is required")
	case len(p.Skills) == 0:
		return dErrors.New(dErrors.CodeInvalidInput, "at least one skill is required")
	case p.Education == "":
		return dErrors.New(dErrors.CodeInvalidInput, "education is required")
	case len(p.Name) > maxNameLen:
		return dErrors.New(dErrors.CodeInvalidInput, "name is too long")
	case len(p.Bio) > maxTextLen, len(p.Education) > maxTextLen, len(p.Portfolio) > maxTextLen:
		return dErrors.New(dErrors.CodeInvalidInput, "profile field is too long")
	case len(p.Skills) > maxSkills:
		return dErrors.New(dErrors.CodeInvalidInput, "too many skills")
	}
	for _, s := range p.Skills {
		if len(s) > maxSkillLen {
			return dErrors.New(dErrors.CodeInvalidInput, "skill is too long")
		}
	}
	switch p.CredentialType {
	case CredentialEducation, CredentialSkill, CredentialExperience, CredentialAchievement:
	default:
		return dErrors.New(dErrors.CodeInvalidInput, "unknown credential type: "+string(p.CredentialType))
	}
	switch p.IssuedBy {
	case IssuedBySelf, IssuedByOrganization, IssuedByDAO, IssuedByInstitution:
	default:
		return dErrors.New(dErrors.CodeInvalidInput, "unknown issuer kind: "+string(p.IssuedBy))
	}
	return nil
}

// Encode renders the profile as the JSON blob that gets content-addressed.
// Field order is fixed by the struct, so equal profiles hash equally.
func (p *Profile) Encode() ([]byte, error) {
	return json.Marshal(p)
}

// DecodeProfile parses a stored profile blob.
func DecodeProfile(blob []byte) (*Profile, error) {
	var p Profile
	if err := json.Unmarshal(blob, &p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "profile blob is not valid JSON")
	}
	return &p, nil
}
