// Package store persists issuer records. FindByID returns ErrNotFound for
// issuers that were never registered.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"vouch/internal/issuer/models"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	issuers map[id.IssuerID]models.Issuer
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{issuers: make(map[id.IssuerID]models.Issuer)}
}

// Upsert creates or replaces the record for issuer.IssuerID.
func (s *InMemoryStore) Upsert(_ context.Context, issuer *models.Issuer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issuers[issuer.IssuerID] = *issuer
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, issuerID id.IssuerID) (*models.Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	issuer, ok := s.issuers[issuerID]
	if !ok {
		return nil, fmt.Errorf("issuer %s: %w", issuerID, sentinel.ErrNotFound)
	}
	return &issuer, nil
}

// List returns every issuer ordered by ID.
func (s *InMemoryStore) List(_ context.Context) ([]*models.Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Issuer, 0, len(s.issuers))
	for _, issuer := range s.issuers {
		issuer := issuer
		out = append(out, &issuer)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuerID < out[j].IssuerID })
	return out, nil
}
