package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,IdentityRegistry

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vouch/internal/audit"
	"vouch/internal/endorsement/metrics"
	"vouch/internal/endorsement/models"
	"vouch/internal/endorsement/service/mocks"
	"vouch/internal/endorsement/store"
	idmodels "vouch/internal/identity/models"
	idservice "vouch/internal/identity/service"
	idstore "vouch/internal/identity/store"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/keylock"
	"vouch/pkg/platform/sentinel"
	txcontext "vouch/pkg/platform/tx"
	"vouch/pkg/requestcontext"
)

var (
	alice = id.MustHolderID("0x52908400098527886E0F7030069857D2E4169EE7")
	bob   = id.MustHolderID("0x8617E340B3D01FA5F11F306F4090FD50E238070D")
	carol = id.MustHolderID("0xde709f2102306220921060314715629080e2fb77")
)

type LedgerSuite struct {
	suite.Suite
	ctx        context.Context
	now        time.Time
	runner     txcontext.Runner
	identities *idservice.Service
	store      *store.InMemoryStore
	buffer     *audit.RingBuffer
	metrics    *metrics.Metrics
	ledger     *Service
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.now = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.runner = txcontext.NewInMemoryRunner(keylock.New(0), 0)
	s.identities = idservice.New(idstore.NewInMemoryStore(), s.runner)
	s.store = store.NewInMemoryStore()
	s.buffer = audit.NewRingBuffer(64)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.ledger = New(s.store, s.identities, s.runner,
		WithMetrics(s.metrics),
		WithAuditPublisher(audit.NewPublisher(s.buffer)),
	)

	_, err := s.identities.CreateIdentity(s.ctx, bob, "0xprofile")
	s.Require().NoError(err)
}

func (s *LedgerSuite) request(from, to id.HolderID, rating int) models.AppendRequest {
	return models.AppendRequest{EndorserID: from, EndorsedID: to, Rating: rating, MessageHash: "0xmsg"}
}

func (s *LedgerSuite) ledgerLen() int {
	n, err := s.store.Count(context.Background())
	s.Require().NoError(err)
	return n
}

func (s *LedgerSuite) TestAppendAddsTwicePointsAndOneEndorsement() {
	later := requestcontext.WithTime(context.Background(), s.now.Add(2*time.Hour))
	e, err := s.ledger.Append(later, s.request(alice, bob, 4))
	s.Require().NoError(err)
	s.Equal(id.EndorsementID(1), e.ID)
	s.Equal(int64(8), e.Points)

	identity, _ := s.identities.GetIdentity(s.ctx, bob)
	s.Equal(int64(8), identity.Reputation)
	s.Equal(int64(1), identity.EndorsementCount)
	s.Equal(s.now.Add(2*time.Hour), identity.LastActivity)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Appended))
}

func (s *LedgerSuite) TestSelfEndorsementChangesNothing() {
	_, err := s.ledger.Append(s.ctx, s.request(bob, bob, 5))
	s.True(dErrors.Is(err, dErrors.CodeSelfEndorsement))

	identity, _ := s.identities.GetIdentity(s.ctx, bob)
	s.Zero(identity.Reputation)
	s.Zero(identity.EndorsementCount)
	s.Zero(s.ledgerLen())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Rejected.WithLabelValues(string(dErrors.CodeSelfEndorsement))))
}

func (s *LedgerSuite) TestInvalidRating() {
	for _, rating := range []int{0, 6, -1} {
		_, err := s.ledger.Append(s.ctx, s.request(alice, bob, rating))
		s.True(dErrors.Is(err, dErrors.CodeInvalidRating), "rating %d", rating)
	}
	s.Zero(s.ledgerLen())
}

func (s *LedgerSuite) TestUnknownIdentityLeavesLedgerUnchanged() {
	_, err := s.ledger.Append(s.ctx, s.request(alice, bob, 3))
	s.Require().NoError(err)

	_, err = s.ledger.Append(s.ctx, s.request(bob, carol, 3))
	s.True(dErrors.Is(err, dErrors.CodeUnknownIdentity))
	s.Equal(carol.String(), dErrors.DetailsOf(err)["holder_id"])
	s.Equal(1, s.ledgerLen())
}

func (s *LedgerSuite) TestRegistryFailureRollsBackAppend() {
	ctrl := gomock.NewController(s.T())
	registry := mocks.NewMockIdentityRegistry(ctrl)
	ledger := New(s.store, registry, s.runner, WithMetrics(s.metrics))

	registry.EXPECT().LockIdentity(gomock.Any(), bob).Return(&idmodels.Identity{HolderID: bob}, nil)
	registry.EXPECT().RecordEndorsement(gomock.Any(), bob, int64(10)).
		Return(nil, dErrors.New(dErrors.CodeUnavailable, "registry down"))

	_, err := ledger.Append(s.ctx, s.request(alice, bob, 5))
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeTransactionAborted))
	s.Zero(s.ledgerLen())
	list, _ := ledger.ListByHolder(s.ctx, bob)
	s.Empty(list)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Aborted))
}

func (s *LedgerSuite) TestAppendLocksEndorsedBeforeWriting() {
	ctrl := gomock.NewController(s.T())
	st := mocks.NewMockStore(ctrl)
	registry := mocks.NewMockIdentityRegistry(ctrl)
	ledger := New(st, registry, s.runner)

	req := s.request(alice, bob, 5)
	req.IdempotencyKey = "k-1"
	gomock.InOrder(
		registry.EXPECT().LockIdentity(gomock.Any(), bob).Return(&idmodels.Identity{HolderID: bob}, nil),
		st.EXPECT().FindByIdempotencyKey(gomock.Any(), alice, "k-1").Return(nil, sentinel.ErrNotFound),
		st.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil),
		registry.EXPECT().RecordEndorsement(gomock.Any(), bob, int64(10)).Return(&idmodels.Identity{HolderID: bob}, nil),
	)

	_, err := ledger.Append(s.ctx, req)
	s.Require().NoError(err)
}

func (s *LedgerSuite) TestUnknownEndorsedWritesNothing() {
	ctrl := gomock.NewController(s.T())
	st := mocks.NewMockStore(ctrl)
	registry := mocks.NewMockIdentityRegistry(ctrl)
	ledger := New(st, registry, s.runner)

	registry.EXPECT().LockIdentity(gomock.Any(), carol).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "identity not found"))

	_, err := ledger.Append(s.ctx, s.request(alice, carol, 4))
	s.True(dErrors.Is(err, dErrors.CodeUnknownIdentity))
}

func (s *LedgerSuite) TestStoreFailureBeforeAppendIsInternal() {
	ctrl := gomock.NewController(s.T())
	st := mocks.NewMockStore(ctrl)
	ledger := New(st, s.identities, s.runner)

	st.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

	_, err := ledger.Append(s.ctx, s.request(alice, bob, 5))
	s.True(dErrors.Is(err, dErrors.CodeInternal))
	identity, _ := s.identities.GetIdentity(s.ctx, bob)
	s.Zero(identity.Reputation)
}

func (s *LedgerSuite) TestIdempotentRetryReturnsOriginal() {
	req := s.request(alice, bob, 5)
	req.IdempotencyKey = "client-retry-7"

	first, err := s.ledger.Append(s.ctx, req)
	s.Require().NoError(err)
	second, err := s.ledger.Append(s.ctx, req)
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.Equal(1, s.ledgerLen())
	identity, _ := s.identities.GetIdentity(s.ctx, bob)
	s.Equal(int64(10), identity.Reputation)
}

func (s *LedgerSuite) TestConcurrentAppendsLoseNoUpdates() {
	const workers = 60
	ratings := make([]int, workers)
	var want int64

	var wg sync.WaitGroup
	ids := make(chan id.EndorsementID, workers)
	for i := 0; i < workers; i++ {
		ratings[i] = 1 + i%5
		want += models.PointsFor(ratings[i])
		endorser := id.HolderID(common.BigToAddress(new(big.Int).Lsh(big.NewInt(1), uint(i+8))).Hex())
		wg.Add(1)
		go func(rating int) {
			defer wg.Done()
			e, err := s.ledger.Append(s.ctx, s.request(endorser, bob, rating))
			s.NoError(err)
			if err == nil {
				ids <- e.ID
			}
		}(ratings[i])
	}
	wg.Wait()
	close(ids)

	seen := map[id.EndorsementID]bool{}
	for eid := range ids {
		s.False(seen[eid], "duplicate id %d", eid)
		seen[eid] = true
	}
	s.Len(seen, workers)

	identity, _ := s.identities.GetIdentity(s.ctx, bob)
	s.Equal(want, identity.Reputation)
	s.Equal(int64(workers), identity.EndorsementCount)

	list, _ := s.ledger.ListByHolder(s.ctx, bob)
	s.Len(list, workers)
	for i := 1; i < len(list); i++ {
		s.Less(list[i-1].ID, list[i].ID)
	}
}

func (s *LedgerSuite) TestQueries() {
	_, err := s.identities.CreateIdentity(s.ctx, alice, "0xprofile")
	s.Require().NoError(err)
	for _, rating := range []int{5, 4, 3} {
		_, err := s.ledger.Append(s.ctx, s.request(carol, bob, rating))
		s.Require().NoError(err)
	}
	_, err = s.ledger.Append(s.ctx, s.request(bob, alice, 2))
	s.Require().NoError(err)

	s.Run("aggregate", func() {
		agg, err := s.ledger.Aggregate(s.ctx, bob)
		s.Require().NoError(err)
		s.Equal(models.Aggregate{Count: 3, AverageRating: 4, TotalPoints: 24}, agg)

		empty, err := s.ledger.Aggregate(s.ctx, carol)
		s.Require().NoError(err)
		s.Equal(models.Aggregate{}, empty)
	})

	s.Run("by endorser", func() {
		given, err := s.ledger.ListByEndorser(s.ctx, carol)
		s.Require().NoError(err)
		s.Len(given, 3)
	})

	s.Run("paging", func() {
		page, err := s.ledger.ListPage(s.ctx, bob, 0, 2)
		s.Require().NoError(err)
		s.Len(page.Items, 2)
		s.Equal(page.Items[1].ID, page.Next)

		rest, err := s.ledger.ListPage(s.ctx, bob, page.Next, 2)
		s.Require().NoError(err)
		s.Len(rest.Items, 1)
		s.Zero(rest.Next)
	})

	s.Run("get", func() {
		e, err := s.ledger.GetEndorsement(s.ctx, 4)
		s.Require().NoError(err)
		s.Equal(alice, e.EndorsedID)

		_, err = s.ledger.GetEndorsement(s.ctx, 99)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
		s.Equal("99", dErrors.DetailsOf(err)["endorsement_id"])
	})
}

func (s *LedgerSuite) TestAuditTrail() {
	_, _ = s.ledger.Append(s.ctx, s.request(alice, bob, 5))
	_, _ = s.ledger.Append(s.ctx, s.request(bob, bob, 5))

	events := s.buffer.DequeueBatch(10)
	s.Require().Len(events, 2)
	s.Equal(audit.ActionEndorsementAppended, events[0].Action)
	s.Equal("1", events[0].Attributes["endorsement_id"])
	s.Equal(audit.ActionEndorsementRejected, events[1].Action)
	s.Equal(fmt.Sprint(dErrors.CodeSelfEndorsement), events[1].Attributes["code"])
}
