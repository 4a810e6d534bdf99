package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/audit"
	"vouch/internal/issuer/models"
	"vouch/internal/issuer/store"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

var university = id.IssuerID("0x52908400098527886E0F7030069857D2E4169EE7")

func TestIsVerifiedIssuer(t *testing.T) {
	st := store.NewInMemoryStore()
	svc := New(st)
	admin := NewAdmin(st)
	ctx := context.Background()

	t.Run("unknown issuer is an unverified individual", func(t *testing.T) {
		status, err := svc.IsVerifiedIssuer(ctx, university)
		require.NoError(t, err)
		assert.Equal(t, models.Status{Verified: false, Role: models.RoleIndividual}, status)
	})

	t.Run("admin writes are visible to the core", func(t *testing.T) {
		_, err := admin.SetIssuer(ctx, university, true, models.RoleVerifiedInstitution)
		require.NoError(t, err)

		status, err := svc.IsVerifiedIssuer(ctx, university)
		require.NoError(t, err)
		assert.True(t, status.Verified)
		assert.Equal(t, models.RoleVerifiedInstitution, status.Role)
	})

	t.Run("revocation replaces the record", func(t *testing.T) {
		_, err := admin.SetIssuer(ctx, university, false, models.RoleOrganization)
		require.NoError(t, err)
		status, _ := svc.IsVerifiedIssuer(ctx, university)
		assert.False(t, status.Verified)
		assert.Equal(t, models.RoleOrganization, status.Role)
	})
}

func TestSetIssuerRejectsUnknownRole(t *testing.T) {
	admin := NewAdmin(store.NewInMemoryStore())
	_, err := admin.SetIssuer(context.Background(), university, true, models.Role("Guild"))
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
}

func TestSetIssuerEmitsAudit(t *testing.T) {
	buf := audit.NewRingBuffer(4)
	admin := NewAdmin(store.NewInMemoryStore(), WithAuditPublisher(audit.NewPublisher(buf)))
	_, err := admin.SetIssuer(context.Background(), university, true, models.RoleDAO)
	require.NoError(t, err)

	events := buf.DequeueBatch(4)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionIssuerUpdated, events[0].Action)
	assert.Equal(t, "true", events[0].Attributes["verified"])
	assert.Equal(t, "DAO", events[0].Attributes["role"])
}

func TestLoadSeedFile(t *testing.T) {
	ctx := context.Background()

	t.Run("applies every entry", func(t *testing.T) {
		st := store.NewInMemoryStore()
		path := filepath.Join(t.TempDir(), "issuers.json")
		require.NoError(t, os.WriteFile(path, []byte(`[
			{"issuer_id": "0x52908400098527886e0f7030069857d2e4169ee7", "verified": true, "role": "VerifiedInstitution"},
			{"issuer_id": "0x8617E340B3D01FA5F11F306F4090FD50E238070D", "verified": false}
		]`), 0o600))

		n, err := NewAdmin(st).LoadSeedFile(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		all, _ := st.List(ctx)
		require.Len(t, all, 2)
		assert.Equal(t, university, all[0].IssuerID, "addresses are stored checksummed")
		assert.Equal(t, models.RoleIndividual, all[1].Role)
	})

	t.Run("one bad entry writes nothing", func(t *testing.T) {
		st := store.NewInMemoryStore()
		_, err := NewAdmin(st).Seed(ctx, []SeedEntry{
			{IssuerID: university.String(), Verified: true, Role: "DAO"},
			{IssuerID: "not-an-address"},
		})
		require.Error(t, err)
		all, _ := st.List(ctx)
		assert.Empty(t, all)
	})

	t.Run("empty path is a no-op", func(t *testing.T) {
		n, err := NewAdmin(store.NewInMemoryStore()).LoadSeedFile(ctx, "")
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
