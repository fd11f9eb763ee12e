package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func plainVerifier(hashed, password string) error {
	if hashed != "hash:"+password {
		return ErrInvalidCredentials
	}
	return nil
}

func newAuthFixture(clock *time.Time) (*AuthService, *userStore) {
	store := newUserStore(
		UserCredentials{User: User{ID: "user-1", Email: "alice@example.com", DisplayName: "Alice"}, PasswordHash: "hash:secret-pass"},
		UserCredentials{User: User{ID: "admin-1", Email: "root@example.com", IsAdmin: true}, PasswordHash: "hash:root-pass"},
	)
	now := func() time.Time { return *clock }
	return NewAuthServiceWithLogger(store, testSecret, plainVerifier, now, time.Hour, discardLogger()), store
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("issues a signed session for valid credentials", func(t *testing.T) {
		t.Parallel()
		clock := testNow
		svc, _ := newAuthFixture(&clock)

		result, err := svc.Authenticate(ctx, AuthenticateParams{Email: " Alice@Example.com ", Password: "secret-pass"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.User.ID != "user-1" || result.Session.UserID != "user-1" {
			t.Fatalf("unexpected result %+v", result)
		}
		if !result.Session.ExpiresAt.Equal(testNow.Add(time.Hour)) {
			t.Fatalf("expected expiry one hour out, got %v", result.Session.ExpiresAt)
		}

		var claims sessionClaims
		if _, err := jwt.ParseWithClaims(result.Session.Token, &claims, func(*jwt.Token) (any, error) { return testSecret, nil },
			jwt.WithoutClaimsValidation()); err != nil {
			t.Fatalf("expected token to parse, got %v", err)
		}
		if claims.Subject != "user-1" || claims.Issuer != sessionIssuer || claims.Admin {
			t.Fatalf("unexpected claims %+v", claims)
		}
	})

	cases := []struct {
		name   string
		params AuthenticateParams
	}{
		{name: "wrong password", params: AuthenticateParams{Email: "alice@example.com", Password: "nope"}},
		{name: "unknown email", params: AuthenticateParams{Email: "ghost@example.com", Password: "secret-pass"}},
		{name: "blank fields", params: AuthenticateParams{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			clock := testNow
			svc, _ := newAuthFixture(&clock)
			if _, err := svc.Authenticate(ctx, tc.params); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}

	t.Run("requires a signing secret", func(t *testing.T) {
		t.Parallel()
		svc := NewAuthServiceWithLogger(newUserStore(), nil, plainVerifier, fixedNow, time.Hour, discardLogger())
		if _, err := svc.Authenticate(ctx, AuthenticateParams{Email: "a@example.com", Password: "x"}); err == nil {
			t.Fatalf("expected error without a secret")
		}
	})
}

func TestAuthService_ValidateSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("returns the principal for a live session", func(t *testing.T) {
		t.Parallel()
		clock := testNow
		svc, _ := newAuthFixture(&clock)
		result, err := svc.Authenticate(ctx, AuthenticateParams{Email: "root@example.com", Password: "root-pass"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		clock = testNow.Add(30 * time.Minute)
		principal, err := svc.ValidateSession(ctx, result.Session.Token)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if principal.UserID != "admin-1" || !principal.IsAdmin {
			t.Fatalf("unexpected principal %+v", principal)
		}
	})

	t.Run("rejects expired sessions", func(t *testing.T) {
		t.Parallel()
		clock := testNow
		svc, _ := newAuthFixture(&clock)
		result, err := svc.Authenticate(ctx, AuthenticateParams{Email: "alice@example.com", Password: "secret-pass"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		clock = testNow.Add(time.Hour)
		if _, err := svc.ValidateSession(ctx, result.Session.Token); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for an expired session, got %v", err)
		}
	})

	t.Run("re-reads the admin flag from the account", func(t *testing.T) {
		t.Parallel()
		clock := testNow
		svc, store := newAuthFixture(&clock)
		result, err := svc.Authenticate(ctx, AuthenticateParams{Email: "root@example.com", Password: "root-pass"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		demoted := store.users["admin-1"]
		demoted.User.IsAdmin = false
		store.users["admin-1"] = demoted

		principal, err := svc.ValidateSession(ctx, result.Session.Token)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if principal.IsAdmin {
			t.Fatalf("expected revoked admin rights to apply immediately")
		}
	})

	t.Run("rejects tampered and foreign tokens", func(t *testing.T) {
		t.Parallel()
		clock := testNow
		svc, _ := newAuthFixture(&clock)

		foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
		}})
		signed, err := foreign.SignedString([]byte("another-secret-entirely-000000000"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}

		wrongIssuer := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
		}})
		issuerSigned, err := wrongIssuer.SignedString(testSecret)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}

		for _, token := range []string{"", "not-a-jwt", signed, issuerSigned} {
			if _, err := svc.ValidateSession(ctx, token); !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized for %q, got %v", token, err)
			}
		}
	})

	t.Run("rejects sessions for deleted accounts", func(t *testing.T) {
		t.Parallel()
		clock := testNow
		svc, store := newAuthFixture(&clock)
		result, err := svc.Authenticate(ctx, AuthenticateParams{Email: "alice@example.com", Password: "secret-pass"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		delete(store.users, "user-1")
		if _, err := svc.ValidateSession(ctx, result.Session.Token); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}
