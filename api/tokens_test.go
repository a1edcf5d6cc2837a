package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() *tokenService {
	return newTokenService([]byte("test-secret"))
}

func TestTokenRoundTrip(t *testing.T) {
	s := newTestTokenService()

	access, err := s.issueAccessToken(42)
	require.NoError(t, err)
	userID, err := s.verify(access, tokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, 42, userID)

	refresh, err := s.issueRefreshToken(42)
	require.NoError(t, err)
	userID, err = s.verify(refresh, tokenTypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, 42, userID)
}

func TestTokenTypeMismatch(t *testing.T) {
	s := newTestTokenService()

	access, err := s.issueAccessToken(1)
	require.NoError(t, err)
	_, err = s.verify(access, tokenTypeRefresh)
	assert.ErrorIs(t, err, errInvalidToken)

	refresh, err := s.issueRefreshToken(1)
	require.NoError(t, err)
	_, err = s.verify(refresh, tokenTypeAccess)
	assert.ErrorIs(t, err, errInvalidToken)
}

func TestTokenExpiry(t *testing.T) {
	s := newTestTokenService()
	base := time.Now()
	s.now = func() time.Time { return base }

	access, err := s.issueAccessToken(7)
	require.NoError(t, err)

	// One second before the expiration instant the token is still good.
	s.now = func() time.Time { return base.Add(accessTokenTTL - time.Second) }
	userID, err := s.verify(access, tokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, 7, userID)

	// At the expiration instant it is not.
	s.now = func() time.Time { return base.Add(accessTokenTTL) }
	_, err = s.verify(access, tokenTypeAccess)
	assert.ErrorIs(t, err, errTokenExpired)
}

func TestTokenExpiredTypeCheckedFirst(t *testing.T) {
	s := newTestTokenService()
	base := time.Now()
	s.now = func() time.Time { return base }

	access, err := s.issueAccessToken(7)
	require.NoError(t, err)

	// An expired token of the wrong type reports invalid, not expired.
	s.now = func() time.Time { return base.Add(accessTokenTTL + time.Hour) }
	_, err = s.verify(access, tokenTypeRefresh)
	assert.ErrorIs(t, err, errInvalidToken)
}

func TestTokenWrongSecret(t *testing.T) {
	s := newTestTokenService()
	other := newTokenService([]byte("other-secret"))

	access, err := other.issueAccessToken(1)
	require.NoError(t, err)
	_, err = s.verify(access, tokenTypeAccess)
	assert.ErrorIs(t, err, errInvalidToken)
}

func TestTokenMalformed(t *testing.T) {
	s := newTestTokenService()

	for _, tokenStr := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := s.verify(tokenStr, tokenTypeAccess)
		assert.ErrorIs(t, err, errInvalidToken)
	}
}

func TestTokenSubjectMustBePositive(t *testing.T) {
	s := newTestTokenService()

	access, err := s.issueAccessToken(0)
	require.NoError(t, err)
	_, err = s.verify(access, tokenTypeAccess)
	assert.ErrorIs(t, err, errInvalidToken)

	access, err = s.issueAccessToken(-3)
	require.NoError(t, err)
	_, err = s.verify(access, tokenTypeAccess)
	assert.ErrorIs(t, err, errInvalidToken)
}
