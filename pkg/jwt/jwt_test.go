package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eatgreet/eatgreet/pkg/jwt"
)

type accountClaims struct {
	jwt.StandardClaims
	Role           string `json:"role,omitempty"`
	RestaurantName string `json:"restaurant_name,omitempty"`
}

func TestService(t *testing.T) {
	t.Parallel()

	svc, err := jwt.New([]byte("test-signing-key"))
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		claims := accountClaims{
			StandardClaims: jwt.StandardClaims{
				Subject:   "64f0c2a9b1e4d35f9a1b2c3d",
				ExpiresAt: time.Now().Add(time.Hour).Unix(),
			},
			Role:           "admin",
			RestaurantName: "Cestro Kitchen",
		}

		token, err := svc.Generate(claims)
		require.NoError(t, err)

		var parsed accountClaims
		require.NoError(t, svc.Parse(token, &parsed))
		assert.Equal(t, claims, parsed)
	})

	t.Run("rejects tampered token", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Generate(accountClaims{Role: "admin"})
		require.NoError(t, err)

		tampered := token[:len(token)-2] + "xx"
		err = svc.Parse(tampered, &accountClaims{})
		assert.ErrorIs(t, err, jwt.ErrSignatureMismatch)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Generate(accountClaims{
			StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(-time.Minute).Unix()},
		})
		require.NoError(t, err)

		err = svc.Parse(token, &accountClaims{})
		assert.ErrorIs(t, err, jwt.ErrExpiredToken)
	})

	t.Run("rejects wrong key", func(t *testing.T) {
		t.Parallel()

		other, err := jwt.New([]byte("another-key"))
		require.NoError(t, err)

		token, err := svc.Generate(accountClaims{Role: "staff"})
		require.NoError(t, err)

		err = other.Parse(token, &accountClaims{})
		assert.ErrorIs(t, err, jwt.ErrSignatureMismatch)
	})

	t.Run("rejects malformed token", func(t *testing.T) {
		t.Parallel()

		err := svc.Parse("not-a-token", &accountClaims{})
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("requires signing key", func(t *testing.T) {
		t.Parallel()

		_, err := jwt.New(nil)
		assert.ErrorIs(t, err, jwt.ErrInvalidSigningKey)
	})
}
