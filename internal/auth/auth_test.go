package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("", "s3cret"))
}

func TestJWT(t *testing.T) {
	secret := []byte("test-secret")
	token, err := SignJWT(secret, AdminSubject, time.Hour)
	require.NoError(t, err)

	sub, err := ParseJWT(secret, token)
	require.NoError(t, err)
	assert.Equal(t, AdminSubject, sub)

	_, err = ParseJWT([]byte("other"), token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := SignJWT(secret, AdminSubject, -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(secret, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseJWT(secret, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
