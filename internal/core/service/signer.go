package service

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"imgforge/internal/core/domain"
)

// HMACSigner derives request tokens from the canonical path with a
// keyed hash. The leading slash is stripped before hashing so signed
// links verify regardless of how the transport presents the path.
type HMACSigner struct {
	key  []byte
	algo func() hash.Hash
}

// NewHMACSigner builds a signer for the configured algorithm and key.
// Supported algorithms: sha1, sha256 (default), sha512.
func NewHMACSigner(cfg domain.SignConfig) (*HMACSigner, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("signature key must not be empty")
	}

	var algo func() hash.Hash
	switch strings.ToLower(cfg.Algorithm) {
	case "sha1":
		algo = sha1.New
	case "", "sha256":
		algo = sha256.New
	case "sha512":
		algo = sha512.New
	default:
		return nil, fmt.Errorf("unsupported signature algorithm %q", cfg.Algorithm)
	}

	return &HMACSigner{key: []byte(cfg.Key), algo: algo}, nil
}

// CreateToken derives the hex token for a path.
func (s *HMACSigner) CreateToken(path string) string {
	mac := hmac.New(s.algo, s.key)
	mac.Write([]byte(strings.TrimPrefix(path, "/")))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyToken checks a presented token against a freshly computed one
// in constant time.
func (s *HMACSigner) VerifyToken(token, path string) bool {
	expected := s.CreateToken(path)
	return hmac.Equal([]byte(token), []byte(expected))
}
