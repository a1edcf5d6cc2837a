package main

import (
	"context"
	"errors"
	"fmt"
)

// userStore is the slice of storage the auth flows consume. *storage
// satisfies it; tests substitute an in-memory implementation.
type userStore interface {
	getUserByEmail(ctx context.Context, email string) (*user, error)
	getUserByID(ctx context.Context, id int) (*user, error)
	insertUser(ctx context.Context, u *user) error
}

// authGateway orchestrates credential handling, token issuance, identity
// resolution, and auth-endpoint throttling. All of its collaborators are
// injected so flows can be tested in isolation.
type authGateway struct {
	store   userStore
	hasher  *passwordHasher
	tokens  *tokenService
	cache   *identityCache
	limiter *rateLimiter
}

func newAuthGateway(store userStore, hasher *passwordHasher, tokens *tokenService, cache *identityCache, limiter *rateLimiter) *authGateway {
	return &authGateway{
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
		cache:   cache,
		limiter: limiter,
	}
}

// register creates a user and returns it alongside a fresh access token.
// The rate-limit check runs before any validation.
func (g *authGateway) register(ctx context.Context, email, password, clientKey string) (*user, string, error) {
	if !g.limiter.allow(clientKey) {
		return nil, "", errRateLimited
	}
	if err := checkEmail(email); err != nil {
		return nil, "", err
	}
	if err := checkPasswordStrength(password); err != nil {
		return nil, "", err
	}
	existing, err := g.store.getUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("looking up email: %w", err)
	}
	if existing != nil {
		return nil, "", errDuplicateUser
	}
	hash, err := g.hasher.hash(password)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}
	u := &user{Email: email, PasswordHash: hash}
	if err := g.store.insertUser(ctx, u); err != nil {
		// A concurrent registration can win the race between the existence
		// check and the insert; the unique index reports it.
		if errors.Is(err, errDuplicateUser) {
			return nil, "", errDuplicateUser
		}
		return nil, "", fmt.Errorf("inserting user: %w", err)
	}
	token, err := g.tokens.issueAccessToken(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// login verifies credentials and returns the user with a fresh access and
// refresh token pair. Unknown email and wrong password are deliberately
// indistinguishable to the caller.
func (g *authGateway) login(ctx context.Context, email, password, clientKey string) (*user, string, string, error) {
	if !g.limiter.allow(clientKey) {
		return nil, "", "", errRateLimited
	}
	if err := checkEmail(email); err != nil {
		return nil, "", "", err
	}
	if err := checkLoginPassword(password); err != nil {
		return nil, "", "", err
	}
	u, err := g.store.getUserByEmail(ctx, email)
	if err != nil {
		return nil, "", "", fmt.Errorf("looking up email: %w", err)
	}
	if u == nil || !g.hasher.verify(password, u.PasswordHash) {
		return nil, "", "", errInvalidCredentials
	}
	access, err := g.tokens.issueAccessToken(u.ID)
	if err != nil {
		return nil, "", "", err
	}
	refresh, err := g.tokens.issueRefreshToken(u.ID)
	if err != nil {
		return nil, "", "", err
	}
	return u, access, refresh, nil
}

// refresh exchanges a valid refresh token for a new access token. The user
// is re-read from durable storage, not the cache, to confirm it still
// exists. The refresh token itself is never rotated or invalidated.
func (g *authGateway) refresh(ctx context.Context, refreshToken string) (*user, string, error) {
	userID, err := g.tokens.verify(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, "", err
	}
	u, err := g.store.getUserByID(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("looking up user %d: %w", userID, err)
	}
	if u == nil {
		return nil, "", errUserNotFound
	}
	access, err := g.tokens.issueAccessToken(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, access, nil
}

// resolveIdentity verifies an access token and resolves its subject to a
// user record, consulting the identity cache before storage.
func (g *authGateway) resolveIdentity(ctx context.Context, accessToken string) (*user, error) {
	userID, err := g.tokens.verify(accessToken, tokenTypeAccess)
	if err != nil {
		return nil, err
	}
	if u, ok := g.cache.get(userID); ok {
		return u, nil
	}
	u, err := g.store.getUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("looking up user %d: %w", userID, err)
	}
	if u == nil {
		return nil, errUserNotFound
	}
	g.cache.put(u)
	return u, nil
}
