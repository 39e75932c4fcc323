package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sentipulse/sentipulse/internal/auth"
	"log/slog"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	config auth.Config
	logger *slog.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(config auth.Config, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		config: config,
		logger: logger,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !h.config.VerifyPassword(req.Password) {
		h.logger.Warn("failed login attempt", "ip", r.RemoteAddr)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken("admin", h.config.JWTSecret, h.config.TokenDuration)
	if err != nil {
		h.logger.Error("failed to generate token", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("successful login", "ip", r.RemoteAddr)

	writeJSON(w, h.logger, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.config.TokenDuration),
	})
}

// ValidateResponse confirms a token is still valid.
type ValidateResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id"`
}

// ValidateToken handles GET /api/auth/validate. It runs behind the auth
// middleware, so reaching it means the token checked out.
func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, _ := auth.GetUserIDFromContext(r.Context())
	writeJSON(w, h.logger, http.StatusOK, ValidateResponse{Valid: true, UserID: userID})
}
