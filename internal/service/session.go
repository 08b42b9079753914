package service

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gochop/gochop-auth/internal/crypto"
	"github.com/gochop/gochop-auth/internal/model"
)

// ErrUnauthenticated is returned when a presented token fails signature or
// expiry checks. It is an outcome, never a crash.
var ErrUnauthenticated = errors.New("unauthenticated")

const (
	defaultLandingPath      = "/dashboard"
	sessionCookieName       = "gochop.session-token"
	secureSessionCookieName = "__Secure-gochop.session-token"
)

// SessionService is the session authority: the only component that signs
// session tokens. Trust level is computed once at mint time and carried in
// the token until expiry.
type SessionService struct {
	secret        string
	maxAge        time.Duration
	origin        string
	admins        *AdminResolver
	secureCookies bool
}

// NewSessionService creates a session authority bound to a signing secret and
// the service's public base origin.
func NewSessionService(secret string, maxAge time.Duration, baseURL string, admins *AdminResolver, secureCookies bool) (*SessionService, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	return &SessionService{
		secret:        secret,
		maxAge:        maxAge,
		origin:        u.Scheme + "://" + u.Host,
		admins:        admins,
		secureCookies: secureCookies,
	}, nil
}

// Issue mints a signed session token for a verified identity. accessToken is
// the upstream identity handshake's bearer token when present; the password
// flow passes an empty string.
func (s *SessionService) Issue(identity *model.Identity, accessToken string) (string, model.SessionView, error) {
	payload := crypto.SessionPayload{
		UserID:      identity.ID,
		Name:        identity.Name,
		Email:       identity.Email,
		AccessToken: accessToken,
		IsAdmin:     s.admins.IsAdmin(identity.Email),
	}

	token, expires, err := crypto.SignSessionToken(payload, s.secret, s.maxAge)
	if err != nil {
		return "", model.SessionView{}, fmt.Errorf("sign session token: %w", err)
	}

	view := model.SessionView{
		UserID:      payload.UserID,
		Name:        payload.Name,
		Email:       payload.Email,
		AccessToken: payload.AccessToken,
		IsAdmin:     payload.IsAdmin,
		Expires:     expires,
	}
	return token, view, nil
}

// Refresh validates a presented token and re-signs its claims with a fresh
// expiry. Claims are copied forward as-is; the allow-list is not re-consulted
// and the credential store is never touched.
func (s *SessionService) Refresh(tokenString string) (string, model.SessionView, error) {
	claims, err := crypto.ParseSessionToken(tokenString, s.secret)
	if err != nil {
		return "", model.SessionView{}, ErrUnauthenticated
	}

	payload := crypto.SessionPayload{
		UserID:      claims.Subject,
		Name:        claims.Name,
		Email:       claims.Email,
		AccessToken: claims.AccessToken,
		IsAdmin:     claims.IsAdmin,
	}

	token, expires, err := crypto.SignSessionToken(payload, s.secret, s.maxAge)
	if err != nil {
		return "", model.SessionView{}, fmt.Errorf("sign session token: %w", err)
	}

	view := model.SessionView{
		UserID:      payload.UserID,
		Name:        payload.Name,
		Email:       payload.Email,
		AccessToken: payload.AccessToken,
		IsAdmin:     payload.IsAdmin,
		Expires:     expires,
	}
	return token, view, nil
}

// ResolveRedirect applies the post-authentication redirect policy: a relative
// path stays on the configured origin, an absolute URL is honored only when
// its origin matches, and anything else collapses to the landing path. This
// keeps the sign-in flow unusable as an open redirector.
func (s *SessionService) ResolveRedirect(target string) string {
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
		return s.origin + target
	}

	if u, err := url.Parse(target); err == nil && u.Scheme+"://"+u.Host == s.origin {
		return target
	}

	return s.origin + defaultLandingPath
}

// CookieName returns the session cookie name; the __Secure- prefix is used
// whenever secure cookies are on.
func (s *SessionService) CookieName() string {
	if s.secureCookies {
		return secureSessionCookieName
	}
	return sessionCookieName
}

// SessionCookie builds the HTTP-only session cookie carrying a signed token.
func (s *SessionService) SessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     s.CookieName(),
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearedCookie expires the session cookie. Tokens are stateless, so logout
// is client-side discard plus expiry.
func (s *SessionService) ClearedCookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.CookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// Origin exposes the configured base origin for callers building callback
// URLs.
func (s *SessionService) Origin() string {
	return s.origin
}
