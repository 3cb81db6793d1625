package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultAccessTTL = 15 * time.Minute

// ErrInvalidToken covers every verification failure: bad signature, expired,
// malformed, wrong type. Callers must not learn which one occurred.
var ErrInvalidToken = errors.New("invalid token")

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("access token secret is required")
	}
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}, nil
}

func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

func (t *TokenIssuer) Issue(userID string, role Role) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(t.ttl).Unix(),
		"typ":  "access",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	encoded, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return encoded, nil
}

func (t *TokenIssuer) Verify(raw string) (Identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	if tokenType, _ := claims["typ"].(string); tokenType != "access" {
		return Identity{}, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	roleClaim, _ := claims["role"].(string)
	role := Role(roleClaim)
	if sub == "" || !role.Valid() {
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: sub, Role: role}, nil
}
