package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gochop/gochop-auth/internal/middleware"
	"github.com/gochop/gochop-auth/internal/model"
	"github.com/gochop/gochop-auth/internal/service"
)

// AuthHandler handles HTTP requests for registration and credential
// verification.
type AuthHandler struct {
	auth   *service.AuthService
	admins *service.AdminResolver
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, admins *service.AdminResolver) *AuthHandler {
	return &AuthHandler{auth: auth, admins: admins}
}

// HandleRegister handles POST /auth/register requests. Rate gating happens in
// middleware before this runs.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse("invalid request body"))
		return
	}

	user, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case service.IsValidationError(err):
			writeJSON(w, http.StatusBadRequest, messageResponse(err.Error()))
		case errors.Is(err, service.ErrEmailTaken):
			writeJSON(w, http.StatusBadRequest, messageResponse("User with this email already exists"))
		default:
			slog.Error("registration failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, messageResponse("Internal server error"))
		}
		return
	}

	writeJSON(w, http.StatusCreated, model.UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	})
}

// HandleVerifyCredentials handles POST /auth/verify-credentials requests.
// Used by the login flow; not meant for arbitrary clients.
func (h *AuthHandler) HandleVerifyCredentials(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var req model.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse("invalid request body"))
		return
	}

	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse("Email and password are required"))
		return
	}

	identity, err := h.auth.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, messageResponse("Invalid credentials"))
			return
		}
		slog.Error("credential verification failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse("Internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, model.VerifiedUserResponse{
		ID:      identity.ID,
		Name:    identity.Name,
		Email:   identity.Email,
		IsAdmin: h.admins.IsAdmin(identity.Email),
	})
}

// HandleMe handles GET /auth/me requests for bearer-authenticated callers.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, messageResponse("unauthorized"))
		return
	}

	writeJSON(w, http.StatusOK, model.VerifiedUserResponse{
		ID:      claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
		IsAdmin: claims.IsAdmin,
	})
}
