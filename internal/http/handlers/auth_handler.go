package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"

	"github.com/evacdesk/rollcall/internal/http/response"
	"github.com/evacdesk/rollcall/internal/platform/auth"
	"github.com/evacdesk/rollcall/internal/repo/postgres"
	"github.com/evacdesk/rollcall/pkg/logger"
)

// AuthHandler mints admin tokens for the upload/reset surface.
type AuthHandler struct {
	admins   postgres.AdminRepo
	tokens   *auth.Authenticator
	tokenTTL time.Duration
}

func NewAuthHandler(admins postgres.AdminRepo, tokens *auth.Authenticator, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{admins: admins, tokens: tokens, tokenTTL: tokenTTL}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.login)
	return r
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		response.BadRequest(w, "email and password are required")
		return
	}

	admin, err := h.admins.FindByEmail(r.Context(), email)
	if err != nil {
		response.Domain(w, r, err)
		return
	}
	if admin == nil {
		response.Unauthorized(w, "invalid credentials")
		return
	}

	match, err := argon2id.ComparePasswordAndHash(req.Password, admin.PasswordHash)
	if err != nil || !match {
		response.Unauthorized(w, "invalid credentials")
		return
	}

	token, err := h.tokens.NewAdminToken(admin.Email, h.tokenTTL)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to sign token", "error", err)
		response.InternalError(w, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_in": int(h.tokenTTL.Seconds()),
	})
}
