package service

import (
	"context"
	"errors"
	"regexp"
	"runtime"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/semaphore"

	"github.com/gochop/gochop-auth/internal/crypto"
	"github.com/gochop/gochop-auth/internal/model"
	"github.com/gochop/gochop-auth/internal/repository"
)

var (
	ErrInvalidName        = errors.New("name must be between 2 and 100 characters")
	ErrInvalidEmail       = errors.New("a valid email address is required")
	ErrWeakPassword       = errors.New("password must be at least 8 characters and contain an uppercase letter, a lowercase letter, and a digit")
	ErrPasswordTooLong    = errors.New("password must be at most 72 characters")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const (
	minNameLength     = 2
	maxNameLength     = 100
	minPasswordLength = 8
	// bcrypt only keys from the first 72 bytes and rejects longer inputs
	maxPasswordBytes = 72
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidationError reports whether err is a user-correctable input error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrWeakPassword) ||
		errors.Is(err, ErrPasswordTooLong)
}

// AuthService authenticates email/password pairs against the credential store.
type AuthService struct {
	store  CredentialStore
	hasher crypto.PasswordHasher
	// hashSem caps concurrent password hashing; bcrypt is deliberately slow
	// and a burst of registrations must not starve other requests of CPU.
	hashSem *semaphore.Weighted
}

// NewAuthService creates a new AuthService.
func NewAuthService(store CredentialStore, hasher crypto.PasswordHasher) *AuthService {
	return &AuthService{
		store:   store,
		hasher:  hasher,
		hashSem: semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
	}
}

// Register validates the input, then creates the user and its password
// credential in one atomic store write. Validation short-circuits on the
// first failure and runs before any state is touched.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < minNameLength || n > maxNameLength {
		return nil, ErrInvalidName
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	if !passwordMeetsPolicy(password) {
		return nil, ErrWeakPassword
	}
	if len(password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.hashPassword(ctx, password)
	if err != nil {
		return nil, err
	}

	cred := &model.Credential{
		Provider:          model.ProviderCredentials,
		ProviderAccountID: email,
		PasswordHash:      hash,
	}
	user, err := s.store.CreateUserWithCredential(ctx, name, email, cred)
	if err != nil {
		// lost the race against a concurrent registration
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return user, nil
}

// Verify authenticates an email/password pair. Unknown email, missing
// password credential, and hash mismatch all yield the same
// ErrInvalidCredentials so callers cannot tell which half was wrong.
func (s *AuthService) Verify(ctx context.Context, email, password string) (*model.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	cred, err := s.store.FindCredential(ctx, user.ID, model.ProviderCredentials)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, cred.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return &model.Identity{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}

func (s *AuthService) hashPassword(ctx context.Context, password string) (string, error) {
	if err := s.hashSem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer s.hashSem.Release(1)
	return s.hasher.Hash(password)
}

func passwordMeetsPolicy(password string) bool {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return false
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}
