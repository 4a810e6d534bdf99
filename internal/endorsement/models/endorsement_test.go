package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

var (
	alice = id.MustHolderID("0x52908400098527886E0F7030069857D2E4169EE7")
	bob   = id.MustHolderID("0x8617E340B3D01FA5F11F306F4090FD50E238070D")
)

func TestAppendRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  AppendRequest
		code dErrors.Code
	}{
		{"self endorsement wins over bad rating", AppendRequest{EndorserID: alice, EndorsedID: alice, Rating: 9, MessageHash: "0x1"}, dErrors.CodeSelfEndorsement},
		{"rating below range", AppendRequest{EndorserID: alice, EndorsedID: bob, Rating: 0, MessageHash: "0x1"}, dErrors.CodeInvalidRating},
		{"rating above range", AppendRequest{EndorserID: alice, EndorsedID: bob, Rating: 6, MessageHash: "0x1"}, dErrors.CodeInvalidRating},
		{"missing message", AppendRequest{EndorserID: alice, EndorsedID: bob, Rating: 3}, dErrors.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			require.Error(t, err)
			assert.True(t, dErrors.Is(err, tt.code))
		})
	}

	for rating := MinRating; rating <= MaxRating; rating++ {
		assert.NoError(t, AppendRequest{EndorserID: alice, EndorsedID: bob, Rating: rating, MessageHash: "0x1"}.Validate())
	}
}

func TestNewEndorsementAwardsTwoPointsPerStar(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 600, time.FixedZone("X", 3600))
	e := NewEndorsement(AppendRequest{EndorserID: alice, EndorsedID: bob, Rating: 4, MessageHash: "0x1"}, now)

	assert.Equal(t, int64(8), e.Points)
	assert.Equal(t, time.UTC, e.Timestamp.Location())
	assert.Zero(t, e.Timestamp.Nanosecond())
	assert.Zero(t, e.ID)
}

func TestAggregateOf(t *testing.T) {
	assert.Equal(t, Aggregate{}, AggregateOf(nil))

	agg := AggregateOf([]*Endorsement{
		{Rating: 5, Points: 10},
		{Rating: 4, Points: 8},
		{Rating: 3, Points: 6},
	})
	assert.Equal(t, int64(3), agg.Count)
	assert.Equal(t, int64(24), agg.TotalPoints)
	assert.InDelta(t, 4.0, agg.AverageRating, 1e-9)
}

func TestMessageValidate(t *testing.T) {
	assert.Error(t, Message{Message: "  "}.Validate())
	assert.NoError(t, Message{Message: "great collaborator"}.Validate())
}
