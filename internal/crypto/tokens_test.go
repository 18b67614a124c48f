package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCipher_RoundTrip(t *testing.T) {
	c, err := NewTokenCipher("a-secret-that-is-long-enough-to-matter")
	require.NoError(t, err)

	sealed, err := c.Encrypt("discord-access-token")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "discord-access-token")

	again, err := c.Encrypt("discord-access-token")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per call")

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "discord-access-token", plain)
}

func TestTokenCipher_WrongKeyAndTampering(t *testing.T) {
	a, err := NewTokenCipher("key-a")
	require.NoError(t, err)
	b, err := NewTokenCipher("key-b")
	require.NoError(t, err)

	sealed, err := a.Encrypt("refresh")
	require.NoError(t, err)

	_, err = b.Decrypt(sealed)
	assert.ErrorIs(t, err, ErrMalformedCiphertext)

	_, err = a.Decrypt("!!not base64!!")
	assert.ErrorIs(t, err, ErrMalformedCiphertext)

	_, err = a.Decrypt("v1.c2hvcnQ")
	assert.ErrorIs(t, err, ErrMalformedCiphertext)

	_, err = a.Decrypt(strings.TrimPrefix(sealed, "v1."))
	assert.ErrorIs(t, err, ErrMalformedCiphertext, "unversioned values are rejected")
}

func TestTokenCipher_RejectsEveryTamperedByte(t *testing.T) {
	c, err := NewTokenCipher("key-a")
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		sealed, err := c.Encrypt("refresh-token")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(sealed, "v1."))

		raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(sealed, "v1."))
		require.NoError(t, err)
		for pos := range raw {
			tampered := append([]byte(nil), raw...)
			tampered[pos] ^= 0x01
			_, err := c.Decrypt("v1." + base64.RawURLEncoding.EncodeToString(tampered))
			require.ErrorIs(t, err, ErrMalformedCiphertext, "byte %d", pos)
		}
	}
}

func TestTokenCipher_RejectsNonCanonicalEncoding(t *testing.T) {
	c, err := NewTokenCipher("key-a")
	require.NoError(t, err)

	sealed, err := c.Encrypt("refresh-token")
	require.NoError(t, err)
	payload := strings.TrimPrefix(sealed, "v1.")

	// 24+13+16 = 53 bytes leaves two unused bits in the last character.
	last := strings.IndexByte(alphabet, payload[len(payload)-1])
	require.GreaterOrEqual(t, last, 0)
	sibling := alphabet[last^0x01]
	_, err = c.Decrypt("v1." + payload[:len(payload)-1] + string(sibling))
	assert.ErrorIs(t, err, ErrMalformedCiphertext)
}

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

func TestTokenCipher_Pointers(t *testing.T) {
	c, err := NewTokenCipher("k")
	require.NoError(t, err)

	p, err := c.EncryptPtr("")
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = c.EncryptPtr("tok")
	require.NoError(t, err)
	require.NotNil(t, p)

	plain, err := c.DecryptPtr(p)
	require.NoError(t, err)
	assert.Equal(t, "tok", plain)

	plain, err = c.DecryptPtr(nil)
	require.NoError(t, err)
	assert.Empty(t, plain)
}

func TestNewTokenCipher_EmptySecret(t *testing.T) {
	_, err := NewTokenCipher("")
	assert.Error(t, err)
}
