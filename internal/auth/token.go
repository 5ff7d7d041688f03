// Package auth issues and verifies the two credentials of the live
// channel handshake: long-lived viewer session tokens (JWT) and the
// short-lived, single-use channel handles they are exchanged for.
package auth

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrWrongRoom    = errors.New("token not valid for this room")
)

// TokenIssuer mints and verifies room-scoped viewer session tokens.
// Tokens are HS256 JWTs carrying the room code in a "room" claim; a
// token for one room grants nothing in another.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

// Mint creates a session token entitling the bearer to observe roomCode
// for ttl.
func (i *TokenIssuer) Mint(roomCode string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := gojwt.MapClaims{
		"room": roomCode,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
		"jti":  uuid.NewString(),
	}
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks the token's signature and expiry and that it is scoped
// to roomCode. The token value itself must never be logged by callers.
func (i *TokenIssuer) Verify(token, roomCode string) error {
	parsed, err := gojwt.Parse(token, func(t *gojwt.Token) (any, error) {
		return i.secret, nil
	}, gojwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}

	claims, ok := parsed.Claims.(gojwt.MapClaims)
	if !ok {
		return ErrInvalidToken
	}
	room, _ := claims["room"].(string)
	if room == "" || room != roomCode {
		return ErrWrongRoom
	}
	return nil
}
