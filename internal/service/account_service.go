package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/samber/oops"

	"blog-api/internal/apperr"
	"blog-api/internal/auth"
	"blog-api/internal/domain"
	"blog-api/internal/metrics"
	"blog-api/internal/repository"
)

const (
	MinUsernameLength = 5
	MinPasswordLength = 8
	// bcrypt ignores input beyond 72 bytes and newer versions reject it outright.
	maxPasswordBytes = 72
)

// TokenIssuer mints session tokens for an authenticated identity.
type TokenIssuer interface {
	Issue(identity auth.Identity) (string, error)
}

// AccountService describes signup and login.
type AccountService interface {
	Signup(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.User, string, error)
}

type accountService struct {
	users     repository.UserRepository
	hasher    auth.PasswordHasher
	tokens    TokenIssuer
	metrics   *metrics.Metrics
	dummyHash func() string
}

func NewAccountService(users repository.UserRepository, hasher auth.PasswordHasher, tokens TokenIssuer, m *metrics.Metrics) AccountService {
	return &accountService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		metrics: m,
		// compared against when the username is unknown so lookups cost the same
		dummyHash: sync.OnceValue(func() string {
			h, _ := hasher.Hash("timing-equalizer-password")
			return h
		}),
	}
}

func (s *accountService) Signup(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.signup(ctx, username, password)
	s.metrics.AuthEvent("signup", outcome(err))
	return user, err
}

func (s *accountService) signup(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)

	if utf8.RuneCountInString(username) < MinUsernameLength {
		return nil, oops.Code(apperr.CodeUsernameTooShort).
			With(apperr.FieldKey, "username").
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, oops.Code(apperr.CodePasswordTooShort).
			With(apperr.FieldKey, "password").
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return nil, oops.Code(apperr.CodeInvalidInput).
			With(apperr.FieldKey, "password").
			Errorf("password must be at most %d bytes", maxPasswordBytes)
	}

	// The pre-check gives a clean error in the common case; the UNIQUE
	// constraint below is what actually guarantees uniqueness.
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, usernameTaken()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, oops.Code(apperr.CodeInternal).With("operation", "check username").Wrap(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, usernameTaken()
		}
		return nil, oops.Code(apperr.CodeInternal).With("operation", "create user").Wrap(err)
	}

	return sanitizeUser(user), nil
}

func (s *accountService) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	user, token, err := s.login(ctx, username, password)
	s.metrics.AuthEvent("login", outcome(err))
	return user, token, err
}

func (s *accountService) login(ctx context.Context, username, password string) (*domain.User, string, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_, _ = s.hasher.Verify(password, s.dummyHash())
			return nil, "", oops.Code(apperr.CodeUserNotFound).
				With(apperr.FieldKey, "username").
				Errorf("user not found")
		}
		return nil, "", oops.Code(apperr.CodeInternal).With("operation", "find user").Wrap(err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, "", oops.With("user_id", user.ID).Wrap(err)
	}
	if !ok {
		return nil, "", oops.Code(apperr.CodeIncorrectPassword).
			With(apperr.FieldKey, "password").
			Errorf("incorrect password")
	}

	token, err := s.tokens.Issue(auth.Identity{UserID: user.ID, Username: user.Username})
	if err != nil {
		return nil, "", err
	}

	return sanitizeUser(user), token, nil
}

func usernameTaken() error {
	return oops.Code(apperr.CodeUsernameTaken).
		With(apperr.FieldKey, "username").
		Errorf("username already taken")
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if code := apperr.Code(err); code != "" {
		return strings.ToLower(code)
	}
	return "error"
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
