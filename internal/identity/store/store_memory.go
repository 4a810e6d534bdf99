// Package store persists identities.
//
// Error contract: ErrNotFound when the holder has no identity, ErrAlreadyUsed
// when creating a second identity for a holder, wrapped errors otherwise.
// Mutations made inside a tx.Runner transaction are undone if it fails.
package store

import (
	"context"
	"fmt"
	"sync"

	"vouch/internal/identity/models"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	txcontext "vouch/pkg/platform/tx"
)

// InMemoryStore keeps identities in a map guarded by an RW lock. Records are
// copied in and out so callers never alias stored state.
type InMemoryStore struct {
	mu         sync.RWMutex
	identities map[id.HolderID]*models.Identity
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{identities: make(map[id.HolderID]*models.Identity)}
}

func (s *InMemoryStore) Create(ctx context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[identity.HolderID]; ok {
		return fmt.Errorf("identity for %s: %w", identity.HolderID, sentinel.ErrAlreadyUsed)
	}
	s.identities[identity.HolderID] = identity.Clone()
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.identities, identity.HolderID)
	})
	return nil
}

func (s *InMemoryStore) FindByHolder(_ context.Context, holder id.HolderID) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[holder]
	if !ok {
		return nil, fmt.Errorf("identity for %s: %w", holder, sentinel.ErrNotFound)
	}
	return identity.Clone(), nil
}

// FindForUpdate is FindByHolder. Writers to a holder are already serialized
// by the tx.Runner key lock.
func (s *InMemoryStore) FindForUpdate(ctx context.Context, holder id.HolderID) (*models.Identity, error) {
	return s.FindByHolder(ctx, holder)
}

// Execute runs validate then mutate against one identity while holding the
// store lock. If validate fails nothing changes.
func (s *InMemoryStore) Execute(ctx context.Context, holder id.HolderID, validate func(*models.Identity) error, mutate func(*models.Identity)) (*models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.identities[holder]
	if !ok {
		return nil, fmt.Errorf("identity for %s: %w", holder, sentinel.ErrNotFound)
	}
	working := current.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.identities[holder] = working

	previous := current
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.identities[holder] = previous
	})
	return working.Clone(), nil
}

// Count returns the number of registered identities.
func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.identities), nil
}
