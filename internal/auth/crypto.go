package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

// Plex tokens are encrypted at rest. Encrypted values carry an "enc::"
// prefix so plaintext rows from older installs still decrypt as themselves.
const encPrefix = "enc::"

var ErrDecrypt = errors.New("decryption failed")

type Cipher struct {
	key [32]byte
}

func NewCipher(secret string) *Cipher {
	c := &Cipher{}
	c.key = sha256.Sum256([]byte(secret))
	return c
}

func (c *Cipher) Encrypt(plaintext string) (string, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", err
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &c.key)
	return encPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *Cipher) Decrypt(value string) (string, error) {
	if !strings.HasPrefix(value, encPrefix) {
		return value, nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, encPrefix))
	if err != nil || len(raw) < 24 {
		return "", ErrDecrypt
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	opened, ok := secretbox.Open(nil, raw[24:], &nonce, &c.key)
	if !ok {
		return "", ErrDecrypt
	}
	return string(opened), nil
}
