package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/consolelogkochan/dev-cockpit/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTokenTTL = 24 * time.Hour

type sessionClaims struct {
	Admin bool `json:"adm"`
	jwt.RegisteredClaims
}

// tokenIssuer signs and verifies HS256 session tokens.
type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenIssuer(secret string, ttl time.Duration) (tokenIssuer, error) {
	if secret == "" {
		return tokenIssuer{}, errors.New("JWT_SECRET is required")
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return tokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (t tokenIssuer) issue(user *models.User) (string, error) {
	now := t.now()
	claims := sessionClaims{
		Admin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// parse verifies the token and returns the user id it was issued for.
func (t tokenIssuer) parse(raw string) (uuid.UUID, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return uuid.Nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("token subject: %w", err)
	}
	return userID, nil
}
