package session

import (
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/recipe-admin/internal/domain"
)

// identityClaims mirrors the payload the issuing service embeds in its
// tokens.
type identityClaims struct {
	UserID    int    `json:"userId"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
	UserGroup string `json:"userGroup"`
	jwt.RegisteredClaims
}

// DecodeIdentity extracts identity claims from a raw credential. It is a
// pure function: no I/O, and "now" is supplied by the caller.
//
// The signature is not verified locally. Trust in the token's integrity is
// delegated to the issuing service; the gateway only inspects claims, the
// same way the screens always have.
func DecodeIdentity(credential string, now time.Time) (domain.Identity, error) {
	if credential == "" {
		return domain.Identity{}, fmt.Errorf("%w: empty credential", ErrTokenMalformed)
	}

	claims := &identityClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(credential, claims); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	if claims.ExpiresAt == nil {
		return domain.Identity{}, fmt.Errorf("%w: missing expiry claim", ErrTokenMalformed)
	}
	expiresAt := claims.ExpiresAt.Time
	if !expiresAt.After(now) {
		return domain.Identity{}, fmt.Errorf("%w: expired at %s", ErrTokenExpired, expiresAt.Format(time.RFC3339))
	}

	identity := domain.Identity{
		UserID:    claims.UserID,
		UserName:  claims.UserName,
		Email:     claims.UserEmail,
		Role:      domain.Role(claims.UserGroup),
		ExpiresAt: expiresAt,
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	return identity, nil
}
