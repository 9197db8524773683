// Copyright 2024-2026 Aiku AI

// Package credential derives the salted password hashes expected by the
// administrative user-creation API.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/pbkdf2"
)

// Fixed derivation parameters. The target API verifies credentials with
// exactly these values, so they are not configurable.
const (
	Algorithm  = "PBKDF2WithHmacSHA256"
	SaltSize   = 16
	KeySize    = 32
	Iterations = 10000
)

// ErrHashingUnavailable is returned when the primitives needed to derive a
// credential cannot be used in this runtime.
var ErrHashingUnavailable = errors.New("password hashing unavailable")

// Credential is a freshly derived salt/hash pair. It never holds the
// plaintext it was derived from.
type Credential struct {
	Salt       []byte
	Hash       []byte
	Iterations int
	Algorithm  string
}

// EncodedSalt returns the salt in standard base64.
func (c *Credential) EncodedSalt() string {
	return base64.StdEncoding.EncodeToString(c.Salt)
}

// EncodedHash returns the derived hash in standard base64.
func (c *Credential) EncodedHash() string {
	return base64.StdEncoding.EncodeToString(c.Hash)
}

// MarshalZerologObject only exposes the derivation parameters.
func (c *Credential) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", c.Algorithm).Int("iterations", c.Iterations)
}

// String keeps the salt and hash out of accidental %v formatting.
func (c *Credential) String() string {
	return fmt.Sprintf("credential(%s, %d iterations)", c.Algorithm, c.Iterations)
}

// Hasher derives credentials. The zero value is not usable; use NewHasher.
type Hasher struct {
	random io.Reader
}

// NewHasher returns a Hasher reading salts from crypto/rand.
func NewHasher() *Hasher {
	return &Hasher{random: rand.Reader}
}

// NewHasherWithSource returns a Hasher reading salts from src.
func NewHasherWithSource(src io.Reader) *Hasher {
	return &Hasher{random: src}
}

// Hash derives a credential from plaintext with a fresh random salt.
func (h *Hasher) Hash(plaintext string) (*Credential, error) {
	if h == nil || h.random == nil {
		return nil, fmt.Errorf("%w: no randomness source", ErrHashingUnavailable)
	}
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(h.random, salt); err != nil {
		return nil, fmt.Errorf("%w: failed to read salt: %w", ErrHashingUnavailable, err)
	}
	return &Credential{
		Salt:       salt,
		Hash:       derive(plaintext, salt, Iterations),
		Iterations: Iterations,
		Algorithm:  Algorithm,
	}, nil
}

// SelfTest derives one throwaway credential so a broken randomness source
// is detected at startup instead of on the first provisioning request.
func (h *Hasher) SelfTest() error {
	cred, err := h.Hash("self-test")
	if err != nil {
		return err
	}
	if len(cred.Hash) != KeySize {
		return fmt.Errorf("%w: derived %d bytes instead of %d", ErrHashingUnavailable, len(cred.Hash), KeySize)
	}
	return nil
}

func derive(plaintext string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(plaintext), salt, iterations, KeySize, sha256.New)
}
