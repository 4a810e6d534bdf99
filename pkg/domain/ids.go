// Package domain holds the typed identifiers shared across modules. Parsing
// happens once at the trust boundary; inside the system IDs are always valid.
package domain

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	dErrors "vouch/pkg/domain-errors"
)

// HolderID identifies an identity holder by account address. The canonical
// form is the EIP-55 checksummed, 0x-prefixed hex string.
type HolderID string

// IssuerID identifies a credential issuer. Issuers are accounts too, but the
// distinct type keeps issuer lookups from accepting arbitrary holder IDs.
type IssuerID string

// EndorsementID is the ledger-wide sequence number of an endorsement.
type EndorsementID uint64

// ContentHash points at a blob in the content-addressed store.
type ContentHash string

const maxContentHashLen = 128

// ParseHolderID validates an account address and returns its canonical form.
func ParseHolderID(s string) (HolderID, error) {
	addr, err := parseAddress(s, "holder_id")
	if err != nil {
		return "", err
	}
	return HolderID(addr), nil
}

// MustHolderID panics on invalid input. Intended for tests and fixtures.
func MustHolderID(s string) HolderID {
	h, err := ParseHolderID(s)
	if err != nil {
		panic(err)
	}
	return h
}

// ParseIssuerID validates an issuer address and returns its canonical form.
func ParseIssuerID(s string) (IssuerID, error) {
	addr, err := parseAddress(s, "issuer_id")
	if err != nil {
		return "", err
	}
	return IssuerID(addr), nil
}

func parseAddress(s, field string) (string, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	if !common.IsHexAddress(s) || !strings.HasPrefix(strings.ToLower(s), "0x") {
		return "", dErrors.New(dErrors.CodeInvalidInput, field+" must be a 0x-prefixed 20-byte hex address")
	}
	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return "", dErrors.New(dErrors.CodeInvalidInput, field+" must not be the zero address")
	}
	return addr.Hex(), nil
}

func (h HolderID) String() string { return string(h) }

// IsNil reports whether the ID is the zero value.
func (h HolderID) IsNil() bool { return h == "" }

// Key is the serialization key used for per-holder locking.
func (h HolderID) Key() string { return "holder:" + string(h) }

func (i IssuerID) String() string { return string(i) }

func (i IssuerID) IsNil() bool { return i == "" }

// ParseEndorsementID parses a decimal endorsement ID. Zero is never assigned.
func ParseEndorsementID(s string) (EndorsementID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "endorsement_id must be a positive integer")
	}
	return EndorsementID(n), nil
}

func (e EndorsementID) String() string { return strconv.FormatUint(uint64(e), 10) }

// ParseContentHash checks the shape of a content hash without resolving it.
func ParseContentHash(s string) (ContentHash, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "content_hash is required")
	}
	if len(s) > maxContentHashLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "content_hash is too long")
	}
	for _, r := range s {
		if !isHashRune(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "content_hash contains invalid characters")
		}
	}
	return ContentHash(s), nil
}

func isHashRune(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

func (c ContentHash) String() string { return string(c) }

func (c ContentHash) IsZero() bool { return c == "" }
