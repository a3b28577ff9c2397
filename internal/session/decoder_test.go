package session

import (
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/recipe-admin/internal/domain"
)

// mintToken signs a token with the given claims. The decoder never checks
// the signature, so the signing key is arbitrary.
func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestDecodeIdentity(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	expiry := now.Add(time.Hour)

	token := mintToken(t, jwt.MapClaims{
		"userId":    7,
		"userName":  "amira",
		"userEmail": "amira@example.com",
		"userGroup": "SuperAdmin",
		"iat":       now.Add(-time.Minute).Unix(),
		"exp":       expiry.Unix(),
	})

	identity, err := DecodeIdentity(token, now)
	if err != nil {
		t.Fatalf("DecodeIdentity: %v", err)
	}
	if identity.UserID != 7 {
		t.Errorf("UserID = %d, want 7", identity.UserID)
	}
	if identity.UserName != "amira" {
		t.Errorf("UserName = %q, want amira", identity.UserName)
	}
	if identity.Email != "amira@example.com" {
		t.Errorf("Email = %q", identity.Email)
	}
	if identity.Role != domain.RoleSuperAdmin {
		t.Errorf("Role = %q, want SuperAdmin", identity.Role)
	}
	if !identity.ExpiresAt.Equal(time.Unix(expiry.Unix(), 0)) {
		t.Errorf("ExpiresAt = %v, want %v", identity.ExpiresAt, expiry)
	}
}

func TestDecodeIdentityExpired(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	token := mintToken(t, jwt.MapClaims{
		"userId":    7,
		"userName":  "amira",
		"userGroup": "SuperAdmin",
		"exp":       now.Add(-time.Minute).Unix(),
	})

	_, err := DecodeIdentity(token, now)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestDecodeIdentityExpiryBoundary(t *testing.T) {
	// A token expiring exactly now is already unusable.
	now := time.Unix(1770000000, 0)
	token := mintToken(t, jwt.MapClaims{
		"userName":  "amira",
		"userGroup": "SystemUser",
		"exp":       now.Unix(),
	})

	_, err := DecodeIdentity(token, now)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestDecodeIdentityMalformed(t *testing.T) {
	now := time.Now()

	cases := map[string]string{
		"empty":       "",
		"garbage":     "not-a-token",
		"two dots":    "a.b",
		"bad payload": "aGVhZGVy.bm90LWpzb24.c2ln",
	}
	for name, credential := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeIdentity(credential, now)
			if !errors.Is(err, ErrTokenMalformed) {
				t.Fatalf("err = %v, want ErrTokenMalformed", err)
			}
		})
	}
}

func TestDecodeIdentityMissingExpiry(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{
		"userId":    3,
		"userName":  "amira",
		"userGroup": "SystemUser",
	})

	_, err := DecodeIdentity(token, time.Now())
	if !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("err = %v, want ErrTokenMalformed", err)
	}
}
