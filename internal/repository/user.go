package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gochop/gochop-auth/internal/model"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrCredentialNotFound  = errors.New("credential not found")
	ErrDuplicateEmail      = errors.New("email already exists")
	ErrDuplicateCredential = errors.New("credential already exists")
)

// UserRepository is the single writer for users and accounts.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Bootstrap creates the tables the store needs. The shape follows the
// users/accounts layout the dashboard was built against.
func (r *UserRepository) Bootstrap(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			email_verified TIMESTAMPTZ,
			image TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
		`
		CREATE TABLE IF NOT EXISTS accounts (
			id BIGSERIAL PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			provider TEXT NOT NULL,
			provider_account_id TEXT NOT NULL,
			password TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, provider)
		)
		`,
		`CREATE INDEX IF NOT EXISTS accounts_user_id_idx ON accounts(user_id)`,
	}

	for _, query := range queries {
		if _, err := r.db.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

// CreateUserWithCredential inserts a new user with a fresh opaque ID along
// with its account row, in one transaction so a failed credential insert
// cannot strand a user row. The email is normalized to lower case before
// storage.
func (r *UserRepository) CreateUserWithCredential(ctx context.Context, name, email string, cred *model.Credential) (*model.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	userQuery := `
		INSERT INTO users (id, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, name, email, email_verified, COALESCE(image, ''), created_at, updated_at
	`
	var user model.User
	err = tx.QueryRow(ctx, userQuery, uuid.NewString(), name, normalizeEmail(email)).Scan(
		&user.ID, &user.Name, &user.Email, &user.EmailVerified, &user.Image,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	credQuery := `
		INSERT INTO accounts (user_id, provider, provider_account_id, password, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NOW())
	`
	if _, err := tx.Exec(ctx, credQuery, user.ID, cred.Provider, cred.ProviderAccountID, cred.PasswordHash); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCredential
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	cred.UserID = user.ID
	return &user, nil
}

// FindByEmail retrieves a user by normalized email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, name, email, email_verified, COALESCE(image, ''), created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var user model.User
	err := r.db.QueryRow(ctx, query, normalizeEmail(email)).Scan(
		&user.ID, &user.Name, &user.Email, &user.EmailVerified, &user.Image,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindCredential retrieves the account row linking a user to a provider.
func (r *UserRepository) FindCredential(ctx context.Context, userID, provider string) (*model.Credential, error) {
	query := `
		SELECT user_id, provider, provider_account_id, COALESCE(password, '')
		FROM accounts
		WHERE user_id = $1 AND provider = $2
	`
	var cred model.Credential
	err := r.db.QueryRow(ctx, query, userID, provider).Scan(
		&cred.UserID, &cred.Provider, &cred.ProviderAccountID, &cred.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, err
	}
	return &cred, nil
}

// CreateCredential inserts an account row. At most one row may exist per
// (user, provider) pair.
func (r *UserRepository) CreateCredential(ctx context.Context, cred *model.Credential) error {
	query := `
		INSERT INTO accounts (user_id, provider, provider_account_id, password, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NOW())
	`
	_, err := r.db.Exec(ctx, query, cred.UserID, cred.Provider, cred.ProviderAccountID, cred.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCredential
		}
		return err
	}
	return nil
}

// UpsertExternalUser creates a user on first external-identity sign-in and
// refreshes profile fields on later sign-ins. Users are never deleted here.
func (r *UserRepository) UpsertExternalUser(ctx context.Context, name, email, image string) (*model.User, error) {
	query := `
		INSERT INTO users (id, name, email, email_verified, image, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NULLIF($4, ''), NOW(), NOW())
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			image = COALESCE(EXCLUDED.image, users.image),
			updated_at = NOW()
		RETURNING id, name, email, email_verified, COALESCE(image, ''), created_at, updated_at
	`
	var user model.User
	err := r.db.QueryRow(ctx, query, uuid.NewString(), name, normalizeEmail(email), image).Scan(
		&user.ID, &user.Name, &user.Email, &user.EmailVerified, &user.Image,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
