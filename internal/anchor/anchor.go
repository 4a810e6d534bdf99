// Package anchor is the client side of the ledger that anchors identity
// records. The core only needs the chain context and a reference to the
// transaction that anchored a holder's record.
package anchor

import (
	"context"
	"strings"
	"time"

	id "vouch/pkg/domain"
)

// ChainContext identifies where records are anchored.
type ChainContext struct {
	ChainID         string `json:"chainId"`
	Network         string `json:"network"`
	ContractAddress string `json:"contractAddress"`
}

// Reference points at the transaction that anchored a payload.
type Reference struct {
	TransactionHash string         `json:"transactionHash"`
	BlockNumber     uint64         `json:"blockNumber"`
	PayloadHash     id.ContentHash `json:"-"`
	AnchoredAt      time.Time      `json:"-"`
}

// Ledger anchors payload hashes per subject and resolves the latest anchor.
type Ledger interface {
	Context() ChainContext
	Anchor(ctx context.Context, subject string, payloadHash id.ContentHash) (Reference, error)
	// Reference returns sentinel.ErrNotFound if subject was never anchored.
	Reference(ctx context.Context, subject string) (Reference, error)
}

var networks = map[string]string{
	"0x1":      "Ethereum Mainnet",
	"0xaa36a7": "Sepolia Testnet",
	"0x89":     "Polygon Mainnet",
	"0x13881":  "Mumbai Testnet",
}

// NetworkName maps a hex chain ID to a display name.
func NetworkName(chainID string) string {
	if name, ok := networks[strings.ToLower(chainID)]; ok {
		return name
	}
	return "Unknown Network"
}

// NewChainContext builds a ChainContext, filling the network name.
func NewChainContext(chainID, contractAddress string) ChainContext {
	return ChainContext{
		ChainID:         strings.ToLower(chainID),
		Network:         NetworkName(chainID),
		ContractAddress: contractAddress,
	}
}

type timeoutLedger struct {
	next    Ledger
	timeout time.Duration
}

// WithTimeout bounds Anchor and Reference calls on l. A zero timeout returns
// l unchanged.
func WithTimeout(l Ledger, timeout time.Duration) Ledger {
	if timeout <= 0 {
		return l
	}
	return &timeoutLedger{next: l, timeout: timeout}
}

func (t *timeoutLedger) Context() ChainContext { return t.next.Context() }

func (t *timeoutLedger) Anchor(ctx context.Context, subject string, payloadHash id.ContentHash) (Reference, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Anchor(ctx, subject, payloadHash)
}

func (t *timeoutLedger) Reference(ctx context.Context, subject string) (Reference, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Reference(ctx, subject)
}
