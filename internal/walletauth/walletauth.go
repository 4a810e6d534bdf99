// Package walletauth exchanges a signed login challenge for a holder bearer
// token. Holders prove control of their address with an EIP-191 personal
// signature over a single-use challenge message.
package walletauth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/requestcontext"
)

const (
	DefaultChallengeTTL = 5 * time.Minute
	signatureLen        = 65
)

type TokenIssuer interface {
	GenerateHolderToken(holder id.HolderID, expiresIn time.Duration) (string, error)
}

type Challenge struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type pending struct {
	message   string
	expiresAt time.Time
}

// Service keeps at most one outstanding challenge per holder; a new request
// replaces the previous one.
type Service struct {
	tokens   TokenIssuer
	tokenTTL time.Duration
	ttl      time.Duration
	logger   *slog.Logger

	mu         sync.Mutex
	challenges map[id.HolderID]pending
}

func New(tokens TokenIssuer, tokenTTL time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		tokens:     tokens,
		tokenTTL:   tokenTTL,
		ttl:        DefaultChallengeTTL,
		logger:     logger,
		challenges: make(map[id.HolderID]pending),
	}
}

func (s *Service) Challenge(ctx context.Context, holder id.HolderID) Challenge {
	now := requestcontext.Now(ctx)
	c := Challenge{
		Message: fmt.Sprintf("Sign in to vouch\n\nHolder: %s\nNonce: %s\nIssued At: %s",
			holder.String(), uuid.NewString(), now.UTC().Format(time.RFC3339)),
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep(now)
	s.challenges[holder] = pending{message: c.Message, expiresAt: c.ExpiresAt}
	return c
}

// Login consumes holder's challenge and issues a token if signature was made
// by holder's key. The challenge is spent even when verification fails.
func (s *Service) Login(ctx context.Context, holder id.HolderID, signature string) (*Token, error) {
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	p, ok := s.challenges[holder]
	delete(s.challenges, holder)
	s.mu.Unlock()

	if !ok || now.After(p.expiresAt) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no active challenge for holder")
	}
	signer, err := RecoverSigner(p.message, signature)
	if err != nil {
		return nil, err
	}
	if signer != holder {
		s.logger.WarnContext(ctx, "wallet login signature mismatch",
			"holder_id", holder.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "signature does not match holder")
	}

	access, err := s.tokens.GenerateHolderToken(holder, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return &Token{AccessToken: access, TokenType: "Bearer", ExpiresAt: now.Add(s.tokenTTL)}, nil
}

func (s *Service) sweep(now time.Time) {
	for holder, p := range s.challenges {
		if now.After(p.expiresAt) {
			delete(s.challenges, holder)
		}
	}
}

// RecoverSigner returns the address whose key produced an EIP-191 signature
// over message. Both 0/1 and 27/28 recovery IDs are accepted.
func RecoverSigner(message, signature string) (id.HolderID, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != signatureLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "signature must be 65 bytes of 0x-prefixed hex")
	}
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", dErrors.New(dErrors.CodeUnauthorized, "signature is not recoverable")
	}
	return id.HolderID(crypto.PubkeyToAddress(*pub).Hex()), nil
}
