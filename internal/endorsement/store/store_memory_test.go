package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/endorsement/models"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	txcontext "vouch/pkg/platform/tx"
)

var (
	alice = id.MustHolderID("0x52908400098527886E0F7030069857D2E4169EE7")
	bob   = id.MustHolderID("0x8617E340B3D01FA5F11F306F4090FD50E238070D")
	carol = id.MustHolderID("0xde709f2102306220921060314715629080e2fb77")
)

func entry(from, to id.HolderID, rating int) *models.Endorsement {
	return models.NewEndorsement(models.AppendRequest{
		EndorserID: from, EndorsedID: to, Rating: rating, MessageHash: "0xmsg",
	}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestAppendAssignsIncreasingIDs(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	first, second, third := entry(alice, bob, 5), entry(carol, bob, 3), entry(bob, alice, 1)
	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, second))
	require.NoError(t, s.Append(ctx, third))

	assert.Equal(t, id.EndorsementID(1), first.ID)
	assert.Equal(t, id.EndorsementID(2), second.ID)
	assert.Equal(t, id.EndorsementID(3), third.ID)

	received, _ := s.ListByEndorsed(ctx, bob)
	require.Len(t, received, 2)
	assert.Equal(t, first.ID, received[0].ID)
	assert.Equal(t, second.ID, received[1].ID)

	given, _ := s.ListByEndorser(ctx, bob)
	require.Len(t, given, 1)
	assert.Equal(t, alice, given[0].EndorsedID)
}

func TestListsAreCopies(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, entry(alice, bob, 5)))

	list, _ := s.ListByEndorsed(ctx, bob)
	list[0].Rating = 1

	again, _ := s.FindByID(ctx, 1)
	assert.Equal(t, 5, again.Rating)
}

func TestListPageCursor(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, entry(alice, bob, 1+i%5)))
	}

	page, _ := s.ListPage(ctx, bob, 0, 2)
	require.Len(t, page, 2)
	assert.Equal(t, id.EndorsementID(2), page[1].ID)

	page, _ = s.ListPage(ctx, bob, page[1].ID, 2)
	require.Len(t, page, 2)
	assert.Equal(t, id.EndorsementID(3), page[0].ID)

	page, _ = s.ListPage(ctx, bob, 4, 10)
	require.Len(t, page, 1)

	page, _ = s.ListPage(ctx, carol, 0, 10)
	assert.Empty(t, page)
	assert.NotNil(t, page)
}

func TestIdempotencyKeyIsPerEndorser(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	e := entry(alice, bob, 4)
	e.IdempotencyKey = "retry-1"
	require.NoError(t, s.Append(ctx, e))

	dup := entry(alice, carol, 4)
	dup.IdempotencyKey = "retry-1"
	assert.ErrorIs(t, s.Append(ctx, dup), sentinel.ErrAlreadyUsed)

	other := entry(carol, bob, 4)
	other.IdempotencyKey = "retry-1"
	assert.NoError(t, s.Append(ctx, other))

	found, err := s.FindByIdempotencyKey(ctx, alice, "retry-1")
	require.NoError(t, err)
	assert.Equal(t, e.ID, found.ID)
}

func TestAppendRolledBackWithTransaction(t *testing.T) {
	s := NewInMemoryStore()
	runner := txcontext.NewInMemoryRunner(nil, 0)
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, entry(carol, bob, 2)))

	err := runner.RunInTx(ctx, bob.Key(), func(ctx context.Context) error {
		e := entry(alice, bob, 5)
		e.IdempotencyKey = "k"
		require.NoError(t, s.Append(ctx, e))
		return errors.New("registry failed")
	})
	require.Error(t, err)

	n, _ := s.Count(ctx)
	assert.Equal(t, 1, n)
	received, _ := s.ListByEndorsed(ctx, bob)
	assert.Len(t, received, 1)
	given, _ := s.ListByEndorser(ctx, alice)
	assert.Empty(t, given)
	_, err = s.FindByIdempotencyKey(ctx, alice, "k")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	next := entry(alice, bob, 3)
	require.NoError(t, s.Append(ctx, next))
	assert.Equal(t, id.EndorsementID(3), next.ID, "rolled back IDs are not reused")
}

func TestFindByIDUnknown(t *testing.T) {
	_, err := NewInMemoryStore().FindByID(context.Background(), 7)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
