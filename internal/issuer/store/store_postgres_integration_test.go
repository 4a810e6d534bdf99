//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vouch/internal/issuer/models"
	"vouch/internal/issuer/store"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
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
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "issuers"))
}

func (s *PostgresStoreSuite) TestUpsertReplaces() {
	ctx := context.Background()
	issuerID := id.IssuerID("0x52908400098527886E0F7030069857D2E4169EE7")

	s.Require().NoError(s.store.Upsert(ctx, &models.Issuer{IssuerID: issuerID, Verified: true, Role: models.RoleDAO, UpdatedAt: time.Now()}))
	s.Require().NoError(s.store.Upsert(ctx, &models.Issuer{IssuerID: issuerID, Verified: false, Role: models.RoleOrganization, UpdatedAt: time.Now()}))

	got, err := s.store.FindByID(ctx, issuerID)
	s.Require().NoError(err)
	s.False(got.Verified)
	s.Equal(models.RoleOrganization, got.Role)

	all, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *PostgresStoreSuite) TestFindUnknown() {
	_, err := s.store.FindByID(context.Background(), id.IssuerID("0x8617E340B3D01FA5F11F306F4090FD50E238070D"))
	s.ErrorIs(err, sentinel.ErrNotFound)
}
