package tokencrypt

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString(make([]byte, 32))
}

func TestCrypter_RoundTrip(t *testing.T) {
	c, err := New(testKey())
	require.NoError(t, err)

	enc, err := c.Encrypt("shpat_0123456789abcdef")
	require.NoError(t, err)
	assert.NotEqual(t, "shpat_0123456789abcdef", enc)

	dec, err := c.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "shpat_0123456789abcdef", dec)
}

func TestCrypter_NoncesDiffer(t *testing.T) {
	c, err := New(testKey())
	require.NoError(t, err)

	a, err := c.Encrypt("token")
	require.NoError(t, err)
	b, err := c.Encrypt("token")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCrypter_RejectsTamperedCiphertext(t *testing.T) {
	c, err := New(testKey())
	require.NoError(t, err)

	enc, err := c.Encrypt("token")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(enc)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff

	_, err = c.Decrypt(base64.StdEncoding.EncodeToString(raw))
	require.Error(t, err)
}

func TestNew_BadKey(t *testing.T) {
	_, err := New("not base64!!")
	require.Error(t, err)

	short := base64.StdEncoding.EncodeToString(make([]byte, 16))
	_, err = New(short)
	require.Error(t, err)
}

func TestCrypter_DecryptGarbage(t *testing.T) {
	c, err := New(testKey())
	require.NoError(t, err)

	_, err = c.Decrypt("AAAA")
	require.Error(t, err)

	_, err = c.Decrypt("%%%")
	require.Error(t, err)
}
