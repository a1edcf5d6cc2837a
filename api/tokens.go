package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	accessTokenTTL  = 30 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

type tokenClaims struct {
	jwt.RegisteredClaims
	Type string `json:"type"`
}

// tokenService issues and verifies HS256-signed tokens carrying
// {sub, iat, exp, type}. Tokens are stateless: signature and expiry are the
// only validity checks, there is no revocation list.
type tokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func newTokenService(secret []byte) *tokenService {
	return &tokenService{
		secret:     secret,
		accessTTL:  accessTokenTTL,
		refreshTTL: refreshTokenTTL,
		now:        time.Now,
	}
}

func (s *tokenService) issueAccessToken(userID int) (string, error) {
	return s.issue(userID, tokenTypeAccess, s.accessTTL)
}

func (s *tokenService) issueRefreshToken(userID int) (string, error) {
	return s.issue(userID, tokenTypeRefresh, s.refreshTTL)
}

func (s *tokenService) issue(userID int, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Type: tokenType,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", tokenType, err)
	}
	return signed, nil
}

// verify checks signature, then type, then expiry, then subject, in that
// order, so a wrong-type token is always reported as invalid rather than
// expired. Expiry is checked explicitly against the injected clock instead
// of relying on the library's claim validation.
func (s *tokenService) verify(tokenStr, expectedType string) (int, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	claims := &tokenClaims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, errInvalidToken
	}
	if claims.Type != expectedType {
		return 0, errInvalidToken
	}
	if claims.ExpiresAt == nil {
		return 0, errInvalidToken
	}
	if !s.now().Before(claims.ExpiresAt.Time) {
		return 0, errTokenExpired
	}
	userID, err := strconv.Atoi(claims.Subject)
	if err != nil || userID <= 0 {
		return 0, errInvalidToken
	}
	return userID, nil
}
