package utils

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	secretMu     sync.RWMutex
	jwtSecretKey []byte
)

const AccessTokenTTL = 15 * time.Minute // Access token lives for 15 minutes

// Claims defines the JWT claims structure. Tokens are issued by the auth service;
// this service only verifies them.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"` // User role for authorization
	jwt.RegisteredClaims
}

// SetJWTSecret installs the HMAC key shared with the token issuer.
func SetJWTSecret(secret string) {
	secretMu.Lock()
	jwtSecretKey = []byte(secret)
	secretMu.Unlock()
}

func currentSecret() ([]byte, error) {
	secretMu.RLock()
	defer secretMu.RUnlock()
	if len(jwtSecretKey) == 0 {
		return nil, fmt.Errorf("jwt secret is not configured")
	}
	return jwtSecretKey, nil
}

// GenerateAccessToken creates a new JWT access token for a given user ID, username, and role.
func GenerateAccessToken(userID int64, username string, role string) (string, error) {
	secret, err := currentSecret()
	if err != nil {
		return "", err
	}
	expirationTime := time.Now().Add(AccessTokenTTL)
	claims := &Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "bizhub-backend",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token string.
// It returns the claims if the token is valid, otherwise an error.
func ValidateToken(tokenString string) (*Claims, error) {
	secret, err := currentSecret()
	if err != nil {
		return nil, err
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
