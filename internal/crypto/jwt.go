package crypto

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken covers every signature, shape, issuer, and expiry
	// failure; callers treat all of them as unauthenticated.
	ErrInvalidToken = errors.New("invalid or expired token")
)

const tokenIssuer = "gochop"

// SessionClaims is the signed content of a gochop session token. Validity is
// proven solely by the signature and the expiry; there is no server-side
// session storage.
type SessionClaims struct {
	jwt.RegisteredClaims
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
	IsAdmin     bool   `json:"isAdmin"`
}

// SessionPayload carries the claims a new token is minted from.
type SessionPayload struct {
	UserID      string
	Name        string
	Email       string
	AccessToken string
	IsAdmin     bool
}

// SignSessionToken creates a signed HS256 session token for the payload,
// expiring maxAge from now. The returned time is the exact expiry carried in
// the token's claims.
func SignSessionToken(p SessionPayload, secret string, maxAge time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := jwt.NewNumericDate(now.Add(maxAge))
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   p.UserID,
			ExpiresAt: expiresAt,
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Name:        p.Name,
		Email:       p.Email,
		AccessToken: p.AccessToken,
		IsAdmin:     p.IsAdmin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt.Time, nil
}

// ParseSessionToken validates a session token string and returns its claims.
func ParseSessionToken(tokenString, secret string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
