package service

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAESKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func newTestCipher(t *testing.T) *AESEncryptionService {
	t.Helper()
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)
	return svc
}

func TestNewAESEncryptionService_KeyValidation(t *testing.T) {
	for _, key := range []string{"", "shortkey", testAESKey[:62], "zz" + testAESKey[2:]} {
		_, err := NewAESEncryptionService(key)
		assert.Error(t, err, "key %q", key)
	}

	_, err := NewAESEncryptionService(" " + testAESKey + "\n")
	assert.NoError(t, err, "surrounding whitespace from env files is ignored")
}

func TestAESEncryptionService_PayoutDestinations(t *testing.T) {
	svc := newTestCipher(t)

	for _, plaintext := range []string{"0012345678 45", "4111 1111 1111 1111 exp 12/27", ""} {
		sealed, err := svc.Encrypt(plaintext)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(sealed, "v1."))
		if plaintext != "" {
			assert.NotContains(t, sealed, plaintext)
		}

		opened, err := svc.Decrypt(sealed)
		require.NoError(t, err)
		assert.Equal(t, plaintext, opened)
	}
}

func TestAESEncryptionService_FreshNoncePerValue(t *testing.T) {
	svc := newTestCipher(t)

	c1, err := svc.Encrypt("0012345678 45")
	require.NoError(t, err)
	c2, err := svc.Encrypt("0012345678 45")
	require.NoError(t, err)
	assert.NotEqual(t, c1, c2)
}

func TestAESEncryptionService_Decrypt_Rejects(t *testing.T) {
	svc := newTestCipher(t)
	sealed, err := svc.Encrypt("0012345678 45")
	require.NoError(t, err)

	other, err := NewAESEncryptionService("abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789")
	require.NoError(t, err)
	_, err = other.Decrypt(sealed)
	assert.Error(t, err, "wrong key")

	last := sealed[len(sealed)-1]
	flipped := byte('A')
	if last == 'A' {
		flipped = 'B'
	}
	_, err = svc.Decrypt(sealed[:len(sealed)-1] + string(flipped))
	assert.Error(t, err, "tampered")

	_, err = svc.Decrypt(strings.TrimPrefix(sealed, "v1."))
	assert.ErrorIs(t, err, errCiphertextVersion)

	_, err = svc.Decrypt("v1.!!!")
	assert.Error(t, err, "not base64")

	_, err = svc.Decrypt("v1.AAAA")
	assert.Error(t, err, "too short")
}

func TestAESEncryptionService_BoundToPayoutDestinations(t *testing.T) {
	// Same key, no associated data: must not open.
	key, err := hex.DecodeString(testAESKey)
	require.NoError(t, err)
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	aead, err := cipher.NewGCM(block)
	require.NoError(t, err)

	nonce := make([]byte, aead.NonceSize())
	foreign := "v1." + base64.RawURLEncoding.EncodeToString(aead.Seal(nonce, nonce, []byte("0012345678"), nil))

	_, err = newTestCipher(t).Decrypt(foreign)
	assert.Error(t, err)
}
