package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c, err := New(testKey)
	require.NoError(t, err)

	encrypted, err := c.Encrypt("1//refresh-token-value")
	require.NoError(t, err)
	assert.NotEqual(t, "1//refresh-token-value", encrypted)

	plain, err := c.Decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "1//refresh-token-value", plain)
}

func TestEncryptProducesFreshNonce(t *testing.T) {
	c, err := New(testKey)
	require.NoError(t, err)

	a, err := c.Encrypt("same plaintext")
	require.NoError(t, err)
	b, err := c.Encrypt("same plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestNewRejectsShortKey(t *testing.T) {
	_, err := New("too-short")
	assert.Error(t, err)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	c, err := New(testKey)
	require.NoError(t, err)

	encrypted, err := c.Encrypt("secret")
	require.NoError(t, err)

	_, err = c.Decrypt(encrypted[:len(encrypted)-4] + "AAAA")
	assert.Error(t, err)

	_, err = c.Decrypt("not base64!!!")
	assert.Error(t, err)
}
