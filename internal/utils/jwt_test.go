package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	verified := true
	issued := Claims{
		Sub:      "21-70001234",
		Name:     "Kim",
		Type:     "cadre",
		Scope:    []string{"GiveMeritPoint", "GiveDemeritPoint"},
		Verified: &verified,
	}
	tok, err := NewAccessToken(testSecret, issued, 60)
	require.NoError(t, err)

	parsed, err := ParseAccessToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, issued.Sub, parsed.Sub)
	assert.Equal(t, issued.Name, parsed.Name)
	assert.Equal(t, issued.Type, parsed.Type)
	assert.Equal(t, issued.Scope, parsed.Scope)
	require.NotNil(t, parsed.Verified)
	assert.True(t, *parsed.Verified)
}

func TestAccessTokenPendingReviewStaysNil(t *testing.T) {
	tok, err := NewAccessToken(testSecret, Claims{Sub: "21-70001234", Type: "enlisted"}, 60)
	require.NoError(t, err)

	parsed, err := ParseAccessToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Nil(t, parsed.Verified)
}

func TestParseAccessTokenRejectsBadSecret(t *testing.T) {
	tok, err := NewAccessToken(testSecret, Claims{Sub: "21-70001234", Type: "enlisted"}, 60)
	require.NoError(t, err)

	_, err = ParseAccessToken("other-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	tok, err := NewAccessToken(testSecret, Claims{Sub: "21-70001234", Type: "enlisted"}, -1)
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenRejectsForeignAlgorithm(t *testing.T) {
	// Same secret, but signed HS256 instead of HS512.
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "21-70001234", "type": "enlisted",
	})
	raw, err := foreign.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifiedState(t *testing.T) {
	now := time.Now().UTC()
	assert.Nil(t, VerifiedState(nil, nil))

	v := VerifiedState(&now, nil)
	require.NotNil(t, v)
	assert.True(t, *v)

	v = VerifiedState(nil, &now)
	require.NotNil(t, v)
	assert.False(t, *v)
}
