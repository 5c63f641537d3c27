package mycipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/carebase/emrbackend/lib/myerrors"
)

type aesGcmCipher struct {
	key []byte
}

// NewAesGcmCipher expects a 64-char hex-encoded 256-bit key.
func NewAesGcmCipher(hexKey string) (*aesGcmCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("error decoding cipher key: %s", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("cipher key must be 32 bytes, got %d", len(key))
	}

	return &aesGcmCipher{
		key: key,
	}, nil
}

func (c aesGcmCipher) Encrypt(plaintext string) (string, error) {
	gcm, err := c.newGcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	_, err = io.ReadFull(rand.Reader, nonce)
	if err != nil {
		return "", fmt.Errorf("error creating nonce: %s", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c aesGcmCipher) Decrypt(ciphertext string) (string, error) {
	gcm, err := c.newGcm()
	if err != nil {
		return "", err
	}

	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", myerrors.NewDecryptionError(fmt.Errorf("error decoding ciphertext: %s", err))
	}
	if len(sealed) < gcm.NonceSize() {
		return "", myerrors.NewDecryptionError(fmt.Errorf("ciphertext too short"))
	}

	nonce, payload := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, payload, nil)
	if err != nil {
		return "", myerrors.NewDecryptionError(fmt.Errorf("error decrypting: %s", err))
	}

	return string(plaintext), nil
}

func (c aesGcmCipher) newGcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("error creating cipher: %s", err)
	}

	return cipher.NewGCM(block)
}
