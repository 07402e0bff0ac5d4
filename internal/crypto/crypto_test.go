package crypto

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadHash(t *testing.T) {
	payload := []byte(`{"product_id":"p1","price_usd":1.5}`)

	hash := PayloadHash(payload)
	assert.Len(t, hash, 64)
	assert.Equal(t, hash, PayloadHash(payload))
	assert.NotEqual(t, hash, PayloadHash([]byte(`{"product_id":"p1","price_usd":1.6}`)))

	assert.NoError(t, VerifyPayloadHash(payload, hash))
	assert.NoError(t, VerifyPayloadHash(payload, ""))
	assert.ErrorIs(t, VerifyPayloadHash([]byte(`{}`), hash), ErrHashMismatch)
}

func TestSealOpen(t *testing.T) {
	key := make([]byte, KeySize)
	_, _ = rand.Read(key)

	plaintext := []byte("archived events batch")

	sealed, err := Seal(plaintext, key)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(sealed, plaintext))

	// Каждый вызов использует новый nonce
	sealed2, err := Seal(plaintext, key)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, sealed2)

	opened, err := Open(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestSeal_Errors(t *testing.T) {
	key := make([]byte, KeySize)

	tests := []struct {
		name      string
		errMsg    string
		plaintext []byte
		key       []byte
	}{
		{
			name:      "empty plaintext",
			plaintext: []byte{},
			key:       key,
			errMsg:    "plaintext cannot be empty",
		},
		{
			name:      "short key",
			plaintext: []byte("test"),
			key:       make([]byte, 16),
			errMsg:    "encryption key must be 32 bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Seal(tt.plaintext, tt.key)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	key := make([]byte, KeySize)
	otherKey := bytes.Repeat([]byte{1}, KeySize)

	sealed, err := Seal([]byte("data"), key)
	require.NoError(t, err)

	_, err = Open(sealed, otherKey)
	assert.Error(t, err)

	tampered := append([]byte{}, sealed...)
	tampered[len(tampered)-1] ^= 0xff
	_, err = Open(tampered, key)
	assert.Error(t, err)

	_, err = Open([]byte("short"), key)
	assert.Error(t, err)

	_, err = Open(sealed, make([]byte, 8))
	assert.Error(t, err)
}

func TestParseKey(t *testing.T) {
	key := bytes.Repeat([]byte{7}, KeySize)

	parsed, err := ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	_, err = ParseKey("zz")
	assert.Error(t, err)

	_, err = ParseKey(hex.EncodeToString(key[:10]))
	assert.Error(t, err)
}

func TestDeriveArchiveKey(t *testing.T) {
	k1, err := DeriveArchiveKey("correct horse", "store-1")
	require.NoError(t, err)
	assert.Len(t, k1, KeySize)

	k2, err := DeriveArchiveKey("correct horse", "store-1")
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	k3, err := DeriveArchiveKey("correct horse", "store-2")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)

	_, err = DeriveArchiveKey("", "store-1")
	assert.Error(t, err)
	_, err = DeriveArchiveKey("pass", "")
	assert.Error(t, err)
}
