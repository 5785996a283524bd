package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$2a$"))
	assert.True(t, CheckPasswordHash("s3cret!", hash))
	assert.False(t, CheckPasswordHash("S3cret!", hash))
	assert.False(t, CheckPasswordHash("s3cret!", "not-a-bcrypt-hash"))
}

func TestHashPassword_Length(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", MaxPasswordLength))
	assert.NoError(t, err)

	_, err = HashPassword(strings.Repeat("x", MaxPasswordLength+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}
