package anchor

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/requestcontext"
)

// InMemoryLedger mints one block per anchor. Transaction hashes are derived
// from chain, subject, payload and height so runs are reproducible.
type InMemoryLedger struct {
	chain  ChainContext
	mu     sync.RWMutex
	height uint64
	latest map[string]Reference
}

func NewInMemoryLedger(chain ChainContext) *InMemoryLedger {
	return &InMemoryLedger{chain: chain, latest: make(map[string]Reference)}
}

func (l *InMemoryLedger) Context() ChainContext { return l.chain }

func (l *InMemoryLedger) Anchor(ctx context.Context, subject string, payloadHash id.ContentHash) (Reference, error) {
	if err := ctx.Err(); err != nil {
		return Reference{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.height++
	var height [8]byte
	binary.BigEndian.PutUint64(height[:], l.height)
	txHash := crypto.Keccak256Hash(
		[]byte(l.chain.ChainID), []byte(subject), []byte(payloadHash), height[:],
	)
	ref := Reference{
		TransactionHash: txHash.Hex(),
		BlockNumber:     l.height,
		PayloadHash:     payloadHash,
		AnchoredAt:      requestcontext.Now(ctx),
	}
	l.latest[subject] = ref
	return ref, nil
}

func (l *InMemoryLedger) Reference(ctx context.Context, subject string) (Reference, error) {
	if err := ctx.Err(); err != nil {
		return Reference{}, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	ref, ok := l.latest[subject]
	if !ok {
		return Reference{}, sentinel.ErrNotFound
	}
	return ref, nil
}

// IsTransactionHash reports whether s has the shape of a 32-byte tx hash.
func IsTransactionHash(s string) bool {
	if len(s) != 2+2*common.HashLength {
		return false
	}
	_, err := hexutil.Decode(s)
	return err == nil
}
