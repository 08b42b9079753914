package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gochop/gochop-auth/internal/model"
	"github.com/gochop/gochop-auth/internal/oidc"
	"github.com/gochop/gochop-auth/internal/repository"
	"github.com/gochop/gochop-auth/internal/service"
)

const (
	stateCookieName    = "gochop.oauth-state"
	callbackCookieName = "gochop.callback-url"
	oauthCookieMaxAge  = 600
)

// IdentityProvider is the slice of the external provider the session flow
// needs. Nil means external sign-in is disabled.
type IdentityProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oidc.Identity, error)
}

// SessionHandler handles sign-in, the provider callback, session refresh, and
// sign-out.
type SessionHandler struct {
	auth     *service.AuthService
	sessions *service.SessionService
	store    service.CredentialStore
	provider IdentityProvider
}

// NewSessionHandler creates a new SessionHandler. provider may be nil.
func NewSessionHandler(auth *service.AuthService, sessions *service.SessionService, store service.CredentialStore, provider IdentityProvider) *SessionHandler {
	return &SessionHandler{auth: auth, sessions: sessions, store: store, provider: provider}
}

// HandleSignIn handles POST /auth/signin: password sign-in producing a
// session cookie and a policy-checked redirect target.
func (h *SessionHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var req model.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse("invalid request body"))
		return
	}

	identity, err := h.auth.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, messageResponse("Invalid credentials"))
			return
		}
		slog.Error("sign-in failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse("Internal server error"))
		return
	}

	// no upstream token in the pure password flow
	token, view, err := h.sessions.Issue(identity, "")
	if err != nil {
		slog.Error("session issue failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse("Internal server error"))
		return
	}

	http.SetCookie(w, h.sessions.SessionCookie(token))
	writeJSON(w, http.StatusOK, model.SignInResponse{
		URL:     h.sessions.ResolveRedirect(req.CallbackURL),
		Session: view,
	})
}

// HandleGoogleSignIn handles GET /auth/signin/google: redirects the browser
// to the provider's authorization endpoint.
func (h *SessionHandler) HandleGoogleSignIn(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		writeJSON(w, http.StatusNotFound, messageResponse("provider not configured"))
		return
	}

	state, err := oidc.NewState()
	if err != nil {
		slog.Error("state generation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse("Internal server error"))
		return
	}

	h.setOAuthCookie(w, stateCookieName, state)
	if cb := r.URL.Query().Get("callbackUrl"); cb != "" {
		h.setOAuthCookie(w, callbackCookieName, cb)
	}

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusFound)
}

// HandleGoogleCallback handles GET /auth/callback/google: verifies state,
// exchanges the code, upserts the user, and mints a session carrying the
// provider's access token.
func (h *SessionHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		writeJSON(w, http.StatusNotFound, messageResponse("provider not configured"))
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		writeJSON(w, http.StatusBadRequest, messageResponse("Invalid state"))
		return
	}

	identity, err := h.provider.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		slog.Error("provider exchange failed", "error", err)
		writeJSON(w, http.StatusUnauthorized, messageResponse("Authentication failed"))
		return
	}

	user, err := h.store.UpsertExternalUser(r.Context(), identity.Name, identity.Email, identity.Picture)
	if err != nil {
		slog.Error("external user upsert failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse("Internal server error"))
		return
	}

	cred := &model.Credential{
		UserID:            user.ID,
		Provider:          model.ProviderGoogle,
		ProviderAccountID: identity.Subject,
	}
	// the linkage already exists after the first sign-in
	if err := h.store.CreateCredential(r.Context(), cred); err != nil && !errors.Is(err, repository.ErrDuplicateCredential) {
		slog.Error("credential link failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse("Internal server error"))
		return
	}

	token, _, err := h.sessions.Issue(&model.Identity{ID: user.ID, Name: user.Name, Email: user.Email}, identity.AccessToken)
	if err != nil {
		slog.Error("session issue failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse("Internal server error"))
		return
	}

	target := ""
	if cb, err := r.Cookie(callbackCookieName); err == nil {
		target = cb.Value
	}

	http.SetCookie(w, h.sessions.SessionCookie(token))
	h.clearOAuthCookie(w, stateCookieName)
	h.clearOAuthCookie(w, callbackCookieName)
	http.Redirect(w, r, h.sessions.ResolveRedirect(target), http.StatusFound)
}

// HandleSession handles GET /auth/session: validates the cookie, re-signs the
// claims, and returns the session view. An unauthenticated caller gets an
// empty object, not an error.
func (h *SessionHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.sessions.CookieName())
	if err != nil || cookie.Value == "" {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}

	token, view, err := h.sessions.Refresh(cookie.Value)
	if err != nil {
		http.SetCookie(w, h.sessions.ClearedCookie())
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}

	http.SetCookie(w, h.sessions.SessionCookie(token))
	writeJSON(w, http.StatusOK, view)
}

// HandleSignOut handles POST /auth/signout: destruction is client-side
// discard of the cookie plus token expiry.
func (h *SessionHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessions.ClearedCookie())
	writeJSON(w, http.StatusOK, map[string]string{"url": h.sessions.Origin() + "/"})
}

func (h *SessionHandler) setOAuthCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   oauthCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *SessionHandler) clearOAuthCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
