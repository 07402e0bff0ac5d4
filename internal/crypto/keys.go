package crypto

import (
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id
const (
	// Argon2Time - количество итераций (time cost)
	Argon2Time = 1
	// Argon2Memory - объем памяти в KB (64MB = 64*1024 KB)
	Argon2Memory = 64 * 1024
	// Argon2Threads - количество параллельных потоков
	Argon2Threads = 4
)

// DeriveArchiveKey выводит ключ шифрования архива из парольной фразы.
// Соль привязана к магазину, поэтому все устройства магазина получают один ключ.
func DeriveArchiveKey(passphrase, storeID string) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}
	if storeID == "" {
		return nil, fmt.Errorf("store id cannot be empty")
	}

	salt := []byte("posync-archive:" + storeID)
	return argon2.IDKey([]byte(passphrase), salt, Argon2Time, Argon2Memory, Argon2Threads, KeySize), nil
}
