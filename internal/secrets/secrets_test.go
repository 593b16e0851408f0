package secrets

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) string {
	key := make([]byte, 32)
	for i := range key {
		key[i] = b
	}
	return base64.StdEncoding.EncodeToString(key)
}

func TestSealOpenRoundTrip(t *testing.T) {
	c, err := NewCipher(testKey(1))
	require.NoError(t, err)

	sealed, err := c.Seal("access-token-secret-value")
	require.NoError(t, err)
	assert.NotEqual(t, "access-token-secret-value", sealed)

	opened, err := c.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "access-token-secret-value", opened)
}

func TestSealRandomizesNonce(t *testing.T) {
	c, err := NewCipher(testKey(1))
	require.NoError(t, err)

	a, err := c.Seal("same plaintext")
	require.NoError(t, err)
	b, err := c.Seal("same plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestOpenWithWrongKeyFails(t *testing.T) {
	sealer, err := NewCipher(testKey(1))
	require.NoError(t, err)
	opener, err := NewCipher(testKey(2))
	require.NoError(t, err)

	sealed, err := sealer.Seal("token")
	require.NoError(t, err)

	_, err = opener.Open(sealed)
	assert.Error(t, err)
}

func TestOpenRejectsGarbage(t *testing.T) {
	c, err := NewCipher(testKey(1))
	require.NoError(t, err)

	_, err = c.Open("not base64!!!")
	assert.Error(t, err)

	_, err = c.Open(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
}

func TestNewCipherRejectsBadKeys(t *testing.T) {
	_, err := NewCipher("not base64!!!")
	assert.Error(t, err)

	_, err = NewCipher(base64.StdEncoding.EncodeToString([]byte("too short")))
	assert.Error(t, err)
}
