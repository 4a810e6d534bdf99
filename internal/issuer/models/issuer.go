package models

import (
	"time"

	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// Role is the tier an issuer is recognized at.
type Role string

const (
	RoleIndividual          Role = "Individual"
	RoleOrganization        Role = "Organization"
	RoleDAO                 Role = "DAO"
	RoleVerifiedInstitution Role = "VerifiedInstitution"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleIndividual, RoleOrganization, RoleDAO, RoleVerifiedInstitution:
		return true
	}
	return false
}

// ParseRole accepts a role name; empty means Individual.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RoleIndividual, nil
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role must be one of Individual, Organization, DAO, VerifiedInstitution")
	}
	return r, nil
}

// Issuer is the administratively maintained record for one issuer.
type Issuer struct {
	IssuerID  id.IssuerID `json:"issuer_id"`
	Verified  bool        `json:"verified"`
	Role      Role        `json:"role"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Status is what the core sees of an issuer.
type Status struct {
	Verified bool `json:"verified"`
	Role     Role `json:"role"`
}

// UnknownStatus is reported for issuers that were never registered.
var UnknownStatus = Status{Verified: false, Role: RoleIndividual}

func (i *Issuer) Status() Status {
	return Status{Verified: i.Verified, Role: i.Role}
}
