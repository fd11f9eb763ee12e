package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
)

const minPasswordLength = 8

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	// UpsertUser inserts the account or updates the one sharing its email.
	UpsertUser(ctx context.Context, creds UserCredentials) (User, error)
}

// PasswordHasher turns a plain password into a storable hash.
type PasswordHasher func(password string) (string, error)

// UserService registers accounts.
type UserService struct {
	users       UserRepository
	hash        PasswordHasher
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService wires dependencies for the user service. A nil hasher uses
// argon2id with DefaultArgon2idParams.
func NewUserService(users UserRepository, hash PasswordHasher, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, hash, idGenerator, now, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a specific logger.
func NewUserServiceWithLogger(users UserRepository, hash PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if hash == nil {
		hash = func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, hash: hash, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

// RegisterUser creates an account, or refreshes the display name, password
// and admin flag of the account that already uses the email.
func (s *UserService) RegisterUser(ctx context.Context, params RegisterUserParams) (user User, err error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	email := strings.ToLower(strings.TrimSpace(params.Email))
	logger := serviceLogger(ctx, s.logger, "UserService", "RegisterUser", "email", email)
	defer func() { logOutcome(ctx, logger, err, "register user", "user_id", user.ID, "is_admin", user.IsAdmin) }()

	displayName := strings.TrimSpace(params.DisplayName)
	vErr := &ValidationError{}
	if email == "" {
		vErr.add("email", "email is required")
	} else if _, parseErr := mail.ParseAddress(email); parseErr != nil {
		vErr.add("email", "email is invalid")
	}
	if displayName == "" {
		vErr.add("display_name", "display name is required")
	}
	if len(params.Password) < minPasswordLength {
		vErr.add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if vErr.HasErrors() {
		return User{}, vErr
	}

	hash, err := s.hash(params.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user, err = s.users.UpsertUser(ctx, UserCredentials{
		User: User{
			ID:          s.idGenerator(),
			Email:       email,
			DisplayName: displayName,
			IsAdmin:     params.IsAdmin,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		PasswordHash: hash,
	})
	if err != nil {
		return User{}, mapRepoError(err, "email")
	}
	return user, nil
}
