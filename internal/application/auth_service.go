package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const sessionIssuer = "ai-secretary"

// CredentialStore exposes user credential lookup operations required by the auth service.
type CredentialStore interface {
	GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
	GetUser(ctx context.Context, id string) (User, error)
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

type sessionClaims struct {
	Admin bool `json:"adm"`
	jwt.RegisteredClaims
}

// AuthService issues and validates signed session tokens.
type AuthService struct {
	credentials    CredentialStore
	secret         []byte
	verifyPassword PasswordVerifier
	parser         *jwt.Parser
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, secret []byte, verify PasswordVerifier, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(credentials, secret, verify, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(credentials CredentialStore, secret []byte, verify PasswordVerifier, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	// Expiry is checked against the injected clock in ValidateSession.
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	return &AuthService{
		credentials:    credentials,
		secret:         secret,
		verifyPassword: verify,
		parser:         parser,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates credentials and issues a new session token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}
	if len(s.secret) == 0 {
		err = fmt.Errorf("session secret not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	password := params.Password

	logger := s.loggerWith(ctx, "Authenticate",
		"email", email,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "authentication succeeded")
	}()

	if email == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	var creds UserCredentials
	creds, err = s.credentials.GetUserCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(mapRepoError(err, "email"), ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if err = s.verifyPassword(creds.PasswordHash, password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	now := s.now()
	session := Session{
		UserID:    creds.User.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Admin: creds.User.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	})
	session.Token, err = token.SignedString(s.secret)
	if err != nil {
		err = fmt.Errorf("sign session token: %w", err)
		return
	}

	result = AuthenticateResult{User: creds.User, Session: session}
	return
}

// ValidateSession verifies a session token and returns its principal. The
// admin flag is re-read from the account so revoked privileges apply at once.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("principal_id", principal.UserID).DebugContext(ctx, "session validated")
	}()

	if trimmed == "" {
		err = ErrUnauthorized
		return
	}

	var claims sessionClaims
	if _, parseErr := s.parser.ParseWithClaims(trimmed, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}); parseErr != nil {
		err = fmt.Errorf("%w: %v", ErrUnauthorized, parseErr)
		return
	}

	now := s.now()
	switch {
	case claims.Issuer != sessionIssuer, claims.Subject == "":
		err = ErrUnauthorized
		return
	case claims.ExpiresAt == nil || !now.Before(claims.ExpiresAt.Time):
		err = fmt.Errorf("%w: session expired", ErrUnauthorized)
		return
	}

	var user User
	user, err = s.credentials.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(mapRepoError(err, "user_id"), ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}

	principal = Principal{UserID: user.ID, IsAdmin: user.IsAdmin}
	return
}
