// Package auth provides the token signer and credential verifier used by
// the session services.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/gophgate/internal/common"
)

// TokenType distinguishes access tokens from refresh tokens inside claims.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims carries the registered claims plus the owner and token type.
// RegisteredClaims.ID is a random value so two tokens issued in the same
// second for the same user never collide.
type Claims struct {
	jwt.RegisteredClaims
	UserID string    `json:"uid"`
	Type   TokenType `json:"typ"`
}

// TokenSigner signs claims into opaque strings and verifies them back.
type TokenSigner interface {
	Sign(claims Claims, ttl time.Duration) (string, error)
	Verify(token string) (*Claims, error)
}

// JWTSigner implements TokenSigner with HS256.
type JWTSigner struct {
	secret []byte
	now    func() time.Time
}

// NewJWTSigner returns a signer bound to secret.
func NewJWTSigner(secret []byte) *JWTSigner {
	return &JWTSigner{secret: secret, now: time.Now}
}

// Sign stamps iat, exp and a random jti on claims and returns the signed token.
func (s *JWTSigner) Sign(claims Claims, ttl time.Duration) (string, error) {
	jti, err := common.MakeRandHexString(16)
	if err != nil {
		return "", fmt.Errorf("generate jti: %w", err)
	}

	now := s.now()
	claims.ID = jti
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks signature, algorithm and expiry. An expired token yields
// common.ErrTokenExpired, any other failure common.ErrTokenMalformed.
func (s *JWTSigner) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrTokenMalformed
	}

	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrTokenMalformed
	}

	return claims, nil
}
