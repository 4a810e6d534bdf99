package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCodeWalksChain(t *testing.T) {
	inner := New(CodeNotFound, "identity not found")
	outer := Wrap(inner, CodeTransactionAborted, "endorsement rolled back")

	assert.True(t, HasCode(outer, CodeTransactionAborted))
	assert.True(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(outer, CodeInternal))
	assert.False(t, HasCode(errors.New("plain"), CodeNotFound))
	assert.False(t, HasCode(nil, CodeNotFound))
}

func TestIsMatchesOutermostCode(t *testing.T) {
	inner := New(CodeNotFound, "identity not found")
	outer := Wrap(inner, CodeTransactionAborted, "endorsement rolled back")

	assert.True(t, Is(outer, CodeTransactionAborted))
	assert.False(t, Is(outer, CodeNotFound))

	wrapped := fmt.Errorf("service: %w", inner)
	assert.True(t, Is(wrapped, CodeNotFound))
}

func TestErrorsIsComparesCodeAndMessage(t *testing.T) {
	err := New(CodeSelfEndorsement, "holder cannot endorse itself").
		WithDetail("holder_id", "0xabc")

	require.ErrorIs(t, err, New(CodeSelfEndorsement, "holder cannot endorse itself"))
	assert.NotErrorIs(t, err, New(CodeSelfEndorsement, "other message"))
	assert.NotErrorIs(t, err, New(CodeInvalidRating, "holder cannot endorse itself"))
}

func TestWithDetailDoesNotMutateOriginal(t *testing.T) {
	base := New(CodeUnknownIdentity, "endorsed holder has no identity")
	withHolder := base.WithDetail("holder_id", "0x01")

	assert.Empty(t, base.Details)
	assert.Equal(t, map[string]string{"holder_id": "0x01"}, DetailsOf(withHolder))
	assert.Contains(t, withHolder.Error(), "holder_id=0x01")
}

func TestCodeOf(t *testing.T) {
	code, ok := CodeOf(New(CodeTimeout, "deadline"))
	require.True(t, ok)
	assert.Equal(t, CodeTimeout, code)

	_, ok = CodeOf(errors.New("plain"))
	assert.False(t, ok)
}
