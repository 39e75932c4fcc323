package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const userIDContextKey contextKey = "userID"

// Config holds authentication configuration
type Config struct {
	JWTSecret         string
	AdminPassword     string
	AdminPasswordHash string
	TokenDuration     time.Duration
}

// LoadConfigFromEnv loads auth config from environment variables
func LoadConfigFromEnv() Config {
	secret := os.Getenv("ADMIN_JWT_SECRET")
	if secret == "" {
		secret = "change-this-secret" // Default (should be changed)
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin" // Default (should be changed)
	}

	return Config{
		JWTSecret:         secret,
		AdminPassword:     password,
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		TokenDuration:     24 * time.Hour,
	}
}

// VerifyPassword checks a login attempt against the configured credential.
// A bcrypt hash, when set, takes precedence over the plaintext password.
func (c Config) VerifyPassword(password string) bool {
	if c.AdminPasswordHash != "" {
		return CheckPassword(password, c.AdminPasswordHash)
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(c.AdminPassword)) == 1
}

// Claims represents the JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateToken creates a new JWT token
func GenerateToken(userID string, secret string, duration time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "sentipulse",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken validates a JWT token and returns the user ID
func ValidateToken(tokenString string, secret string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims.UserID, nil
	}

	return "", fmt.Errorf("invalid token")
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares a password with a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Middleware validates JWT bearer tokens on protected routes
func Middleware(config Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			userID, err := ValidateToken(parts[1], config.JWTSecret)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok
}
