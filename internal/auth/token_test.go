package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintVerifyRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")

	token, err := issuer.Mint("ROOM-1", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.NoError(t, issuer.Verify(token, "ROOM-1"))
}

func TestVerifyWrongRoom(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")

	token, err := issuer.Mint("ROOM-1", time.Hour)
	require.NoError(t, err)

	assert.ErrorIs(t, issuer.Verify(token, "ROOM-2"), ErrWrongRoom)
}

func TestVerifyExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")

	token, err := issuer.Mint("ROOM-1", -time.Minute)
	require.NoError(t, err)

	assert.ErrorIs(t, issuer.Verify(token, "ROOM-1"), ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	minter := NewTokenIssuer("secret-a")
	verifier := NewTokenIssuer("secret-b")

	token, err := minter.Mint("ROOM-1", time.Hour)
	require.NoError(t, err)

	assert.ErrorIs(t, verifier.Verify(token, "ROOM-1"), ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		assert.ErrorIs(t, issuer.Verify(token, "ROOM-1"), ErrInvalidToken, "token %q", token)
	}
}

func TestMintedTokensAreUnique(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")

	a, err := issuer.Mint("ROOM-1", time.Hour)
	require.NoError(t, err)
	b, err := issuer.Mint("ROOM-1", time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
