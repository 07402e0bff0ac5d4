package crypto

import (
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/blake2b"
)

// ErrHashMismatch возвращается, если payload не соответствует заявленному хешу
var ErrHashMismatch = errors.New("payload hash mismatch")

// PayloadHash возвращает hex-encoded BLAKE2b-256 от payload события
// Вычисляется на устройстве при добавлении события и проверяется сервером
func PayloadHash(payload []byte) string {
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// VerifyPayloadHash проверяет payload против хеша
// Пустой хеш допускается: старые клиенты его не передают
func VerifyPayloadHash(payload []byte, hash string) error {
	if hash == "" {
		return nil
	}
	if PayloadHash(payload) != hash {
		return ErrHashMismatch
	}
	return nil
}
