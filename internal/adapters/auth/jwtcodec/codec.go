// Package jwtcodec implementa auth.TokenCodec con JWT HS256 (github.com/golang-jwt/jwt/v5).
package jwtcodec

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-care-api/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

type Config struct {
	Secret string
	Issuer string
}

type Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

var _ auth.TokenCodec = (*Codec)(nil)

func New(cfg Config) (*Codec, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("jwtcodec: secret is required")
	}
	return &Codec{
		secret: []byte(cfg.Secret),
		issuer: strings.TrimSpace(cfg.Issuer),
		now:    time.Now,
	}, nil
}

// sessionClaims: iat estándar va en segundos; iat_ms conserva milisegundos para
// poder comparar contra revocaciones por usuario dentro del mismo segundo.
type sessionClaims struct {
	Email      string `json:"email,omitempty"`
	Role       string `json:"role"`
	IssuedAtMs int64  `json:"iat_ms,omitempty"`
	jwt.RegisteredClaims
}

func (c *Codec) Sign(claims auth.Claims) (string, error) {
	if strings.TrimSpace(claims.UserID) == "" || strings.TrimSpace(claims.TokenID) == "" {
		return "", errors.New("jwtcodec: subject and token id are required")
	}
	if claims.ExpiresAt.IsZero() {
		return "", errors.New("jwtcodec: expiry is required")
	}
	iat := claims.IssuedAt
	if iat.IsZero() {
		iat = c.now()
	}

	sc := sessionClaims{
		Email:      claims.Email,
		Role:       claims.Role,
		IssuedAtMs: iat.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID,
			ID:        claims.TokenID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sc).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("jwtcodec: sign: %w", err)
	}
	return signed, nil
}

// Parse valida firma, algoritmo, issuer y expiración. Cualquier falla es auth.ErrInvalidToken.
func (c *Codec) Parse(token string) (auth.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	var sc sessionClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), &sc, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}
	if strings.TrimSpace(sc.Subject) == "" || strings.TrimSpace(sc.ID) == "" {
		return auth.Claims{}, fmt.Errorf("%w: missing sub or jti", auth.ErrInvalidToken)
	}

	out := auth.Claims{
		UserID:  sc.Subject,
		Email:   sc.Email,
		Role:    sc.Role,
		TokenID: sc.ID,
	}
	if sc.ExpiresAt != nil {
		out.ExpiresAt = sc.ExpiresAt.Time
	}
	switch {
	case sc.IssuedAtMs > 0:
		out.IssuedAt = time.UnixMilli(sc.IssuedAtMs)
	case sc.IssuedAt != nil:
		out.IssuedAt = sc.IssuedAt.Time
	}
	return out, nil
}
