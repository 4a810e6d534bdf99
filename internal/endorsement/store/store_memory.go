// Package store persists the append-only endorsement ledger.
//
// Error contract: ErrNotFound for unknown IDs or idempotency keys,
// ErrAlreadyUsed when an endorser reuses an idempotency key.
package store

import (
	"context"
	"fmt"
	"sync"

	"vouch/internal/endorsement/models"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	txcontext "vouch/pkg/platform/tx"
)

// InMemoryStore keeps the ledger in maps indexed by ID, endorsed holder and
// endorser. IDs come from one counter guarded by the store lock, so each
// index stays in ID order.
type InMemoryStore struct {
	mu          sync.RWMutex
	seq         uint64
	byID        map[id.EndorsementID]*models.Endorsement
	byEndorsed  map[id.HolderID][]id.EndorsementID
	byEndorser  map[id.HolderID][]id.EndorsementID
	idempotency map[string]id.EndorsementID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:        make(map[id.EndorsementID]*models.Endorsement),
		byEndorsed:  make(map[id.HolderID][]id.EndorsementID),
		byEndorser:  make(map[id.HolderID][]id.EndorsementID),
		idempotency: make(map[string]id.EndorsementID),
	}
}

func idempotencyKey(endorser id.HolderID, key string) string {
	return endorser.String() + "|" + key
}

// Append assigns the next ID to e and stores a copy.
func (s *InMemoryStore) Append(ctx context.Context, e *models.Endorsement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.IdempotencyKey != "" {
		if _, taken := s.idempotency[idempotencyKey(e.EndorserID, e.IdempotencyKey)]; taken {
			return fmt.Errorf("idempotency key %q: %w", e.IdempotencyKey, sentinel.ErrAlreadyUsed)
		}
	}

	s.seq++
	e.ID = id.EndorsementID(s.seq)
	stored := e.Clone()
	s.byID[e.ID] = stored
	s.byEndorsed[e.EndorsedID] = append(s.byEndorsed[e.EndorsedID], e.ID)
	s.byEndorser[e.EndorserID] = append(s.byEndorser[e.EndorserID], e.ID)
	if e.IdempotencyKey != "" {
		s.idempotency[idempotencyKey(e.EndorserID, e.IdempotencyKey)] = e.ID
	}

	txcontext.OnRollback(ctx, func() { s.remove(stored) })
	return nil
}

// remove undoes an append. The sequence is not rewound, so IDs stay unique.
func (s *InMemoryStore) remove(e *models.Endorsement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, e.ID)
	s.byEndorsed[e.EndorsedID] = without(s.byEndorsed[e.EndorsedID], e.ID)
	s.byEndorser[e.EndorserID] = without(s.byEndorser[e.EndorserID], e.ID)
	if e.IdempotencyKey != "" {
		delete(s.idempotency, idempotencyKey(e.EndorserID, e.IdempotencyKey))
	}
}

func without(ids []id.EndorsementID, target id.EndorsementID) []id.EndorsementID {
	for i := len(ids) - 1; i >= 0; i-- {
		if ids[i] == target {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

func (s *InMemoryStore) FindByID(_ context.Context, endorsementID id.EndorsementID) (*models.Endorsement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[endorsementID]
	if !ok {
		return nil, fmt.Errorf("endorsement %s: %w", endorsementID, sentinel.ErrNotFound)
	}
	return e.Clone(), nil
}

func (s *InMemoryStore) FindByIdempotencyKey(_ context.Context, endorser id.HolderID, key string) (*models.Endorsement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	eid, ok := s.idempotency[idempotencyKey(endorser, key)]
	if !ok {
		return nil, fmt.Errorf("idempotency key %q: %w", key, sentinel.ErrNotFound)
	}
	return s.byID[eid].Clone(), nil
}

func (s *InMemoryStore) ListByEndorsed(_ context.Context, holder id.HolderID) ([]*models.Endorsement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byEndorsed[holder], 0, 0), nil
}

func (s *InMemoryStore) ListByEndorser(_ context.Context, holder id.HolderID) ([]*models.Endorsement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byEndorser[holder], 0, 0), nil
}

// ListPage returns up to limit endorsements received by holder with ID > after.
func (s *InMemoryStore) ListPage(_ context.Context, holder id.HolderID, after id.EndorsementID, limit int) ([]*models.Endorsement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byEndorsed[holder], after, limit), nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

// collect copies the endorsements in ids with ID > after. limit <= 0 means all.
func (s *InMemoryStore) collect(ids []id.EndorsementID, after id.EndorsementID, limit int) []*models.Endorsement {
	out := make([]*models.Endorsement, 0, len(ids))
	for _, eid := range ids {
		if eid <= after {
			continue
		}
		out = append(out, s.byID[eid].Clone())
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
