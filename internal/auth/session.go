// Package auth handles OAuth flows, token storage, and API sessions.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/glassdesk/glassdesk/internal/core"
)

// SessionManager issues and validates the JWTs that scope API requests
// to a user
type SessionManager struct {
	secret []byte
	expiry time.Duration
}

// NewSessionManager creates a session manager
func NewSessionManager(secret string, expiry time.Duration) *SessionManager {
	if expiry == 0 {
		expiry = 24 * time.Hour
	}
	return &SessionManager{
		secret: []byte(secret),
		expiry: expiry,
	}
}

// sessionClaims are the JWT claims carried by a session token
type sessionClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Issue creates a signed session token for a user
func (s *SessionManager) Issue(userID string) (string, error) {
	now := time.Now().UTC()
	claims := sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "glassdesk",
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Validate parses a session token and returns the user ID it carries
func (s *SessionManager) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrAuthenticationFailed, err)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", core.ErrAuthenticationFailed
	}

	return claims.UserID, nil
}
