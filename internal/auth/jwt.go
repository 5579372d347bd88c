// Package auth - jwt.go handles session token creation, signing, and
// verification using a shared HS256 secret, including startup secret
// validation and claims parsing.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/resource-share/resource-share/internal/config"
)

// Verification failure modes. Callers must be able to tell an expired token
// (valid signature, validity window passed — prompt a re-login) from an
// invalid one (reject outright).
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

var (
	jwtSecret     string
	jwtSecretOnce sync.Once
	jwtSecretErr  error
)

// Claims is the session token payload: subject=username plus a role claim.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// generateRandomSecret creates a cryptographically secure random secret
func generateRandomSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to a less secure but functional secret
		return fmt.Sprintf("dev-fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}

// InitSecret installs the signing secret loaded from configuration. In
// production an empty secret is a fatal startup error; in dev mode a random
// secret is generated so local runs work without setup, at the cost of
// sessions not surviving restarts. Call this once at application startup.
func InitSecret(secret string) error {
	jwtSecretOnce.Do(func() {
		if secret == "" {
			if config.IsDevMode() {
				jwtSecret = generateRandomSecret()
				slog.Warn("RSP_AUTH_JWT_SECRET not set; using auto-generated secret for development")
				slog.Warn("sessions will not persist across restarts; set RSP_AUTH_JWT_SECRET for persistent sessions")
			} else {
				jwtSecretErr = errors.New("RSP_AUTH_JWT_SECRET is required in production; generate one with: openssl rand -hex 32")
			}
			return
		}

		if len(secret) < 32 {
			jwtSecretErr = fmt.Errorf("jwt secret is %d characters; at least 32 are required", len(secret))
			return
		}

		jwtSecret = secret
	})

	return jwtSecretErr
}

func signingSecret() (string, error) {
	if jwtSecret == "" {
		return "", errors.New("jwt secret not initialised; call auth.InitSecret at startup")
	}
	return jwtSecret, nil
}

// GenerateToken mints a signed session token for the given username and role,
// valid for ttl from now.
func GenerateToken(username, role string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 5 * time.Hour
	}

	now := time.Now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "resource-share",
		},
	}

	secret, err := signingSecret()
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses and verifies a session token, returning its claims.
// Returns ErrTokenExpired when the signature is valid but the token has
// expired, and ErrTokenInvalid for every other failure.
func ValidateToken(tokenString string) (*Claims, error) {
	secret, err := signingSecret()
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
