package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ProductHub/internal/user"
)

type TokenMaker struct {
	secret []byte
	issuer string
}

func NewTokenMaker(secret string) *TokenMaker {
	return &TokenMaker{
		secret: []byte(secret),
		issuer: "producthub",
	}
}

type Claims struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Role     user.Role `json:"role"`
	jwt.RegisteredClaims
}

func (t *TokenMaker) New(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID:   id.ID,
		Username: id.Username,
		Role:     id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *TokenMaker) Parse(tokenStr string) (Claims, error) {
	var c Claims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return Claims{}, errors.New("invalid token")
	}

	// Every token this service mints carries the issuer; absence is as
	// invalid as a mismatch.
	if c.Issuer != t.issuer {
		return Claims{}, errors.New("invalid issuer")
	}

	return c, nil
}
