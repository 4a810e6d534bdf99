// Package credential packages a point-in-time identity snapshot as a
// W3C-style verifiable credential document.
package credential

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"vouch/internal/anchor"
	endorsement "vouch/internal/endorsement/models"
	"vouch/internal/identity/models"
	issuer "vouch/internal/issuer/models"
	dErrors "vouch/pkg/domain-errors"
)

const (
	ContextV1          = "https://www.w3.org/2018/credentials/v1"
	TypeVerifiable     = "VerifiableCredential"
	TypeIdentity       = "IdentityCredential"
	ProofType          = "EthereumEip712Signature2021"
	ProofPurpose       = "assertionMethod"
	didMethodPrefix    = "did:ethr:"
	documentHashPrefix = "0x"
)

// Input is everything an export depends on. Identical inputs produce
// identical documents apart from GeneratedAt.
type Input struct {
	Identity    *models.Identity
	Profile     *models.Profile
	Ledger      endorsement.Aggregate
	Issuer      issuer.Status
	Chain       anchor.ChainContext
	Anchor      anchor.Reference
	GeneratedAt time.Time
}

type Document struct {
	Context           []string          `json:"@context"`
	Type              []string          `json:"type"`
	Issuer            string            `json:"issuer"`
	IssuanceDate      string            `json:"issuanceDate"`
	CredentialSubject CredentialSubject `json:"credentialSubject"`
	IssuerStatus      IssuerStatus      `json:"issuerStatus"`
	Proof             Proof             `json:"proof"`
	GeneratedAt       string            `json:"generatedAt"`
}

type CredentialSubject struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Bio              string   `json:"bio"`
	Skills           []string `json:"skills"`
	Education        string   `json:"education"`
	Portfolio        string   `json:"portfolio"`
	Reputation       int64    `json:"reputation"`
	CredentialType   string   `json:"credentialType"`
	EndorsementCount int64    `json:"endorsementCount"`
	AverageRating    float64  `json:"averageRating"`
}

type IssuerStatus struct {
	Verified bool   `json:"verified"`
	Role     string `json:"role"`
}

type Proof struct {
	Type               string              `json:"type"`
	Created            string              `json:"created"`
	ProofPurpose       string              `json:"proofPurpose"`
	VerificationMethod string              `json:"verificationMethod"`
	ContentHash        string              `json:"contentHash"`
	AnchorReference    AnchorReference     `json:"anchorReference"`
	ChainContext       anchor.ChainContext `json:"chainContext"`
	DocumentHash       string              `json:"documentHash"`
}

type AnchorReference struct {
	TransactionHash string `json:"transactionHash"`
	BlockNumber     uint64 `json:"blockNumber"`
}

// DID returns the did:ethr identifier of holder on chainID.
func DID(chainID, holder string) string {
	return didMethodPrefix + chainID + ":" + holder
}

// Exporter builds and verifies credential documents.
type Exporter struct{}

func NewExporter() *Exporter { return &Exporter{} }

// Export assembles the document and stamps its documentHash.
func (Exporter) Export(in Input) (*Document, error) {
	if in.Identity == nil || in.Profile == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "identity and profile are required")
	}
	holder := in.Identity.HolderID.String()
	did := DID(in.Chain.ChainID, holder)
	issued := in.Identity.CreatedAt.UTC().Format(time.RFC3339)

	issuerID := holder
	if in.Profile.IssuerAddress != "" {
		issuerID = in.Profile.IssuerAddress
	}
	skills := append([]string{}, in.Profile.Skills...)
	role := in.Issuer.Role
	if role == "" {
		role = issuer.RoleIndividual
	}

	doc := &Document{
		Context:      []string{ContextV1},
		Type:         []string{TypeVerifiable, TypeIdentity},
		Issuer:       issuerID,
		IssuanceDate: issued,
		CredentialSubject: CredentialSubject{
			ID:               did,
			Name:             in.Profile.Name,
			Bio:              in.Profile.Bio,
			Skills:           skills,
			Education:        in.Profile.Education,
			Portfolio:        in.Profile.Portfolio,
			Reputation:       in.Identity.DisplayReputation(),
			CredentialType:   string(in.Profile.CredentialType),
			EndorsementCount: in.Identity.EndorsementCount,
			AverageRating:    in.Ledger.AverageRating,
		},
		IssuerStatus: IssuerStatus{Verified: in.Issuer.Verified, Role: string(role)},
		Proof: Proof{
			Type:               ProofType,
			Created:            issued,
			ProofPurpose:       ProofPurpose,
			VerificationMethod: did,
			ContentHash:        in.Identity.ContentHash.String(),
			AnchorReference: AnchorReference{
				TransactionHash: in.Anchor.TransactionHash,
				BlockNumber:     in.Anchor.BlockNumber,
			},
			ChainContext: in.Chain,
		},
	}

	hash, err := DocumentHash(doc)
	if err != nil {
		return nil, err
	}
	doc.Proof.DocumentHash = hash
	doc.GeneratedAt = in.GeneratedAt.UTC().Format(time.RFC3339)
	return doc, nil
}

// DocumentHash is the Keccak-256 of the canonical JSON of doc with
// generatedAt and documentHash blanked.
func DocumentHash(doc *Document) (string, error) {
	canonical := *doc
	canonical.GeneratedAt = ""
	canonical.Proof.DocumentHash = ""
	raw, err := json.Marshal(canonical)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode credential")
	}
	return documentHashPrefix + fmt.Sprintf("%x", crypto.Keccak256(raw)), nil
}

// Verify recomputes the document hash and compares it with the stamped one.
func (Exporter) Verify(doc *Document) error {
	if doc == nil || doc.Proof.DocumentHash == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "credential has no document hash")
	}
	want, err := DocumentHash(doc)
	if err != nil {
		return err
	}
	if !strings.EqualFold(want, doc.Proof.DocumentHash) {
		return dErrors.New(dErrors.CodeInvalidInput, "credential document hash mismatch")
	}
	return nil
}
