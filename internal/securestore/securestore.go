package securestore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// Store seals small payloads with AES-256-GCM. The random nonce is
// prepended to the ciphertext, so no nonce bookkeeping is needed.
type Store struct {
	key []byte
}

var (
	ErrInvalidKey        = errors.New("encryption key must be 32 bytes (AES-256)")
	ErrInvalidCiphertext = errors.New("ciphertext too short")
)

func New(key []byte) (*Store, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}
	return &Store{key: key}, nil
}

func (s *Store) Encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return aesGCM.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *Store) Decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aesGCM.NonceSize() {
		return nil, ErrInvalidCiphertext
	}
	nonce := ciphertext[:aesGCM.NonceSize()]
	data := ciphertext[aesGCM.NonceSize():]
	return aesGCM.Open(nil, nonce, data, nil)
}

// EncryptString seals a string and returns base64 for storage in text
// columns.
func (s *Store) EncryptString(plaintext string) (string, error) {
	sealed, err := s.Encrypt([]byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *Store) DecryptString(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	plain, err := s.Decrypt(sealed)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
