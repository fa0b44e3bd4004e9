package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	assert.True(t, Verify(hash, "correct horse battery staple"))
	assert.False(t, Verify(hash, "wrong password"))
}

func TestHashesAreSalted(t *testing.T) {
	first, err := Hash("same password")
	require.NoError(t, err)
	second, err := Hash("same password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	assert.False(t, Verify("not-a-hash", "password"))
	assert.False(t, Verify("$argon2id$v=19$garbage", "password"))
}
