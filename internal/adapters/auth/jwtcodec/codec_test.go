package jwtcodec

import (
	"strings"
	"testing"
	"time"

	"pet-care-api/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCodec(t *testing.T, secret, issuer string, now time.Time) *Codec {
	t.Helper()
	c, err := New(Config{Secret: secret, Issuer: issuer})
	require.NoError(t, err)
	c.now = func() time.Time { return now }
	return c
}

func TestCodec_SignParse(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 250*int(time.Millisecond), time.UTC)
	c := newCodec(t, "s3cret", "pet-care-api", now)

	token, err := c.Sign(auth.Claims{
		UserID:    "u1",
		Email:     "a@x.com",
		Role:      "VET",
		TokenID:   "jti-1",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."))

	got, err := c.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, "VET", got.Role)
	assert.Equal(t, "jti-1", got.TokenID)
	assert.True(t, got.IssuedAt.Equal(now), "iat keeps milliseconds: %s", got.IssuedAt)
	assert.True(t, got.ExpiresAt.Equal(now.Add(time.Hour)))
}

func TestCodec_Rejects(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	c := newCodec(t, "s3cret", "pet-care-api", now)
	valid := auth.Claims{UserID: "u1", Role: "USER", TokenID: "j", IssuedAt: now, ExpiresAt: now.Add(time.Minute)}

	token, err := c.Sign(valid)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := newCodec(t, "other", "pet-care-api", now)
		_, err := other.Parse(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := newCodec(t, "s3cret", "someone-else", now)
		_, err := other.Parse(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := newCodec(t, "s3cret", "pet-care-api", now.Add(2*time.Minute))
		_, err := later.Parse(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := c.Parse("not.a.jwt")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("alg none", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "u1", "jti": "j", "iss": "pet-care-api", "exp": now.Add(time.Minute).Unix(),
		})
		s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = c.Parse(s)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("missing jti", func(t *testing.T) {
		raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "u1", "iss": "pet-care-api", "exp": now.Add(time.Minute).Unix(),
		})
		s, err := raw.SignedString([]byte("s3cret"))
		require.NoError(t, err)
		_, err = c.Parse(s)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestCodec_SignValidation(t *testing.T) {
	c := newCodec(t, "s3cret", "", time.Now())

	_, err := c.Sign(auth.Claims{TokenID: "j", ExpiresAt: time.Now().Add(time.Minute)})
	assert.Error(t, err)
	_, err = c.Sign(auth.Claims{UserID: "u", TokenID: "j"})
	assert.Error(t, err)

	_, err = New(Config{Secret: " "})
	assert.Error(t, err)
}
