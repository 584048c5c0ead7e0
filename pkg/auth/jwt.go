package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenValidator verifies bearer tokens and extracts the reader identity.
type TokenValidator struct {
	secret []byte
	issuer string
}

func NewTokenValidator(secret, issuer string) *TokenValidator {
	return &TokenValidator{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Validate parses and verifies a token and returns its subject, the reader
// id. Only HS256 tokens from the configured issuer are accepted.
func (v *TokenValidator) Validate(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return v.secret, nil
		},
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return subject, nil
}

// Issue mints a token for a reader id. Used by tests and the local
// development login stub.
func (v *TokenValidator) Issue(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString(v.secret)
}
