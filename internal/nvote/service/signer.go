package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const signerInfo = "ballotbox nvote hmac v1"

// Signer computes the keyed hash of Nvote messages. The HMAC key is derived
// from the configured secret and never leaves the process.
type Signer struct {
	key []byte
}

func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("nvote secret is required")
	}
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(signerInfo)), key); err != nil {
		return nil, fmt.Errorf("derive nvote key: %w", err)
	}
	return &Signer{key: key}, nil
}

func (s *Signer) Sign(message string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares in constant time.
func (s *Signer) Verify(message, hash string) bool {
	got, err := hex.DecodeString(hash)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(message))
	return hmac.Equal(mac.Sum(nil), got)
}
