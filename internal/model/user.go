package model

import "time"

// Login providers. An account row ties a user to exactly one of these.
const (
	ProviderCredentials = "credentials"
	ProviderGoogle      = "google"
)

// User is an identity record. Password material never lives here; it belongs
// to the credentials-provider account row.
type User struct {
	ID            string
	Name          string
	Email         string
	EmailVerified *time.Time
	Image         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Credential links a User to one login method. PasswordHash is set only for
// the credentials provider and only ever holds a bcrypt hash.
type Credential struct {
	UserID            string
	Provider          string
	ProviderAccountID string
	PasswordHash      string
}

// Identity is a verified subject, stripped of secret material.
type Identity struct {
	ID    string
	Name  string
	Email string
}

// RegisterRequest represents a registration request body.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyRequest represents a credential verification request body.
type VerifyRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInRequest represents a password sign-in request body.
type SignInRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CallbackURL string `json:"callbackUrl,omitempty"`
}

// UserResponse represents user data safe for API responses.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// VerifiedUserResponse is the verify-credentials response, enriched with the
// trust level the session will carry.
type VerifiedUserResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}
