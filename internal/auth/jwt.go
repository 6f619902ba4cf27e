// Package auth mints and verifies the bearer tokens the local identity
// provider attaches to a signed-in identity.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims are the claims carried by tokens minted for a signed-in identity.
type IdentityClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenMinter issues and verifies HS256 identity tokens. The issuer doubles
// as the audience since the tokens never leave the application.
type TokenMinter struct {
	secret string
	issuer string
	ttl    time.Duration
}

// NewTokenMinter creates a TokenMinter. A zero ttl defaults to 15 minutes.
func NewTokenMinter(secret, issuer string, ttl time.Duration) TokenMinter {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	return TokenMinter{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
	}
}

// MintIdentityToken issues a token for the given identity id and email.
func (m *TokenMinter) MintIdentityToken(uid, email string) (string, error) {
	now := time.Now()
	claims := IdentityClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.issuer},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenStr, err := token.SignedString([]byte(m.secret))
	if err != nil {
		return "", err
	}

	return tokenStr, nil
}

// VerifyIdentityToken validates a token minted by this minter and returns its claims.
func (m *TokenMinter) VerifyIdentityToken(tokenString string) (*IdentityClaims, error) {
	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return []byte(m.secret), nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithAudience(m.issuer),
		jwt.WithIssuer(m.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
