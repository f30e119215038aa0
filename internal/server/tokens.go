package server

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const tokenIssuer = "comhodl-api"

var errInvalidToken = errors.New("invalid token")

// Claims carries the user id in the subject.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens. Revoked token ids are kept
// in memory until the token would have expired anyway.
type Tokens struct {
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	revoked *cache.Cache
}

func NewTokens(secret string, ttl time.Duration, now func() time.Time) *Tokens {
	if now == nil {
		now = time.Now
	}
	return &Tokens{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     now,
		revoked: cache.New(ttl, 10*time.Minute),
	}
}

// Issue returns a signed token for the user and its expiry.
func (t *Tokens) Issue(userID int64, email string) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, exp, nil
}

func (t *Tokens) parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if _, revoked := t.revoked.Get(claims.ID); revoked {
		return nil, fmt.Errorf("%w: revoked", errInvalidToken)
	}
	return claims, nil
}

// Verify returns the user id carried by a valid, unrevoked token.
func (t *Tokens) Verify(token string) (int64, error) {
	claims, err := t.parse(token)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject", errInvalidToken)
	}
	return id, nil
}

// Revoke invalidates token. Revoking an invalid token is a no-op.
func (t *Tokens) Revoke(token string) {
	claims, err := t.parse(token)
	if err != nil {
		return
	}
	remaining := claims.ExpiresAt.Sub(t.now())
	if remaining <= 0 {
		return
	}
	t.revoked.Set(claims.ID, struct{}{}, remaining)
}
