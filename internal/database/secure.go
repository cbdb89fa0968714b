package walletstatedb

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	scryptN   = 1 << 15
	scryptR   = 8
	scryptP   = 1
	keyLength = 32
	saltSize  = 32
	ivSize    = 12
)

// encrypt seals plaintext under a key derived from password. The result is
// base64(salt):base64(iv):base64(ciphertext).
func encrypt(plaintext string, password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key, err := deriveKey(password, salt)
	if err != nil {
		return "", err
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	ciphertext := aesgcm.Seal(nil, iv, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(salt) + ":" +
		base64.StdEncoding.EncodeToString(iv) + ":" +
		base64.StdEncoding.EncodeToString(ciphertext), nil
}

func decrypt(envelope string, password string) (string, error) {
	parts := strings.Split(envelope, ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid ciphertext format")
	}

	var raw [3][]byte
	for i, part := range parts {
		b, err := base64.StdEncoding.DecodeString(part)
		if err != nil {
			return "", fmt.Errorf("invalid ciphertext encoding: %w", err)
		}
		raw[i] = b
	}
	salt, iv, encryptedData := raw[0], raw[1], raw[2]
	if len(iv) != ivSize {
		return "", fmt.Errorf("invalid iv length %d", len(iv))
	}

	key, err := deriveKey(password, salt)
	if err != nil {
		return "", err
	}
	aesgcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	plaintext, err := aesgcm.Open(nil, iv, encryptedData, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

func deriveKey(password string, salt []byte) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
