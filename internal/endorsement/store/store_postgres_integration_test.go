//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vouch/internal/endorsement/models"
	"vouch/internal/endorsement/store"
	idmodels "vouch/internal/identity/models"
	idstore "vouch/internal/identity/store"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	alice    id.HolderID
	bob      id.HolderID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.alice = id.MustHolderID("0x52908400098527886E0F7030069857D2E4169EE7")
	s.bob = id.MustHolderID("0x8617E340B3D01FA5F11F306F4090FD50E238070D")
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "endorsements", "identities"))
	identity, err := idmodels.NewIdentity(s.bob, "0xabc", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(idstore.NewPostgres(s.postgres.DB).Create(ctx, identity))
}

func (s *PostgresStoreSuite) append(rating int, key string) *models.Endorsement {
	e := models.NewEndorsement(models.AppendRequest{
		EndorserID: s.alice, EndorsedID: s.bob, Rating: rating, MessageHash: "0xmsg", IdempotencyKey: key,
	}, time.Now())
	s.Require().NoError(s.store.Append(context.Background(), e))
	return e
}

func (s *PostgresStoreSuite) TestAppendAndList() {
	first := s.append(5, "")
	second := s.append(2, "")
	s.Greater(second.ID, first.ID)

	list, err := s.store.ListByEndorsed(context.Background(), s.bob)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(int64(10), list[0].Points)

	page, err := s.store.ListPage(context.Background(), s.bob, first.ID, 10)
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal(second.ID, page[0].ID)
}

func (s *PostgresStoreSuite) TestIdempotencyKeyUnique() {
	e := s.append(4, "retry")
	dup := models.NewEndorsement(models.AppendRequest{
		EndorserID: s.alice, EndorsedID: s.bob, Rating: 4, MessageHash: "0xmsg", IdempotencyKey: "retry",
	}, time.Now())
	s.ErrorIs(s.store.Append(context.Background(), dup), sentinel.ErrAlreadyUsed)

	found, err := s.store.FindByIdempotencyKey(context.Background(), s.alice, "retry")
	s.Require().NoError(err)
	s.Equal(e.ID, found.ID)
}

func (s *PostgresStoreSuite) TestFindByIDUnknown() {
	_, err := s.store.FindByID(context.Background(), 999999)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
