// Copyright 2024-2026 Aiku AI

package credential

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"testing"
	"testing/iotest"
)

func TestHash_SizesAndParameters(t *testing.T) {
	t.Parallel()
	cred, err := NewHasher().Hash("s3cret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if len(cred.Salt) != SaltSize {
		t.Errorf("salt length: got %d, want %d", len(cred.Salt), SaltSize)
	}
	if len(cred.Hash) != KeySize {
		t.Errorf("hash length: got %d, want %d", len(cred.Hash), KeySize)
	}
	if cred.Iterations != 10000 {
		t.Errorf("iterations: got %d, want 10000", cred.Iterations)
	}
	if cred.Algorithm != "PBKDF2WithHmacSHA256" {
		t.Errorf("algorithm: got %q", cred.Algorithm)
	}
}

func TestHash_FreshSaltPerCall(t *testing.T) {
	t.Parallel()
	h := NewHasher()
	first, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	second, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if bytes.Equal(first.Salt, second.Salt) {
		t.Error("two calls produced the same salt")
	}
	if bytes.Equal(first.Hash, second.Hash) {
		t.Error("different salts produced the same hash")
	}
}

func TestHash_DeterministicForSameSalt(t *testing.T) {
	t.Parallel()
	salt := bytes.Repeat([]byte{0x2a}, SaltSize)
	a, err := NewHasherWithSource(bytes.NewReader(salt)).Hash("s3cret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := NewHasherWithSource(bytes.NewReader(salt)).Hash("s3cret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !bytes.Equal(a.Hash, b.Hash) {
		t.Error("same salt and password should derive the same hash")
	}
	if !bytes.Equal(a.Salt, salt) {
		t.Errorf("salt: got %x, want %x", a.Salt, salt)
	}
}

func TestDerive_KnownVectors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		iterations int
		want       string
	}{
		{
			name:       "one iteration",
			iterations: 1,
			want:       "120fb6cffcf8b32c43e7225256c4f837a86548c92ccc35480805987cb70be17b",
		},
		{
			name:       "two iterations",
			iterations: 2,
			want:       "ae4d0c95af6b46d32d0adff928f06dd02a303f8ef3c251dfd6e2d85a95474c43",
		},
		{
			name:       "4096 iterations",
			iterations: 4096,
			want:       "c5e478d59288c841aa530db6845c4c8d962893a001ce4e11a4963873aa98134a",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := hex.EncodeToString(derive("password", []byte("salt"), tt.iterations))
			if got != tt.want {
				t.Errorf("derive: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHash_RandomFailure(t *testing.T) {
	t.Parallel()
	h := NewHasherWithSource(iotest.ErrReader(errors.New("entropy exhausted")))
	cred, err := h.Hash("s3cret")
	if cred != nil {
		t.Error("expected nil credential on failure")
	}
	if !errors.Is(err, ErrHashingUnavailable) {
		t.Fatalf("expected ErrHashingUnavailable, got %v", err)
	}
	if strings.Contains(err.Error(), "s3cret") {
		t.Error("error message leaks the plaintext")
	}
}

func TestHash_ShortRandomRead(t *testing.T) {
	t.Parallel()
	h := NewHasherWithSource(bytes.NewReader([]byte{1, 2, 3}))
	if _, err := h.Hash("x"); !errors.Is(err, ErrHashingUnavailable) {
		t.Fatalf("expected ErrHashingUnavailable, got %v", err)
	}
}

func TestHash_NilHasher(t *testing.T) {
	t.Parallel()
	var h *Hasher
	if _, err := h.Hash("x"); !errors.Is(err, ErrHashingUnavailable) {
		t.Fatalf("expected ErrHashingUnavailable, got %v", err)
	}
}

func TestSelfTest(t *testing.T) {
	t.Parallel()
	if err := NewHasher().SelfTest(); err != nil {
		t.Fatalf("SelfTest: %v", err)
	}
	broken := NewHasherWithSource(iotest.ErrReader(errors.New("no entropy")))
	if err := broken.SelfTest(); !errors.Is(err, ErrHashingUnavailable) {
		t.Fatalf("expected ErrHashingUnavailable, got %v", err)
	}
}

func TestCredential_Encoding(t *testing.T) {
	t.Parallel()
	cred := &Credential{Salt: []byte{0, 1, 2}, Hash: []byte{0xff, 0xfe}}
	if got, want := cred.EncodedSalt(), base64.StdEncoding.EncodeToString([]byte{0, 1, 2}); got != want {
		t.Errorf("EncodedSalt: got %q, want %q", got, want)
	}
	if got, want := cred.EncodedHash(), base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe}); got != want {
		t.Errorf("EncodedHash: got %q, want %q", got, want)
	}
}

func TestCredential_StringHidesMaterial(t *testing.T) {
	t.Parallel()
	cred, err := NewHasherWithSource(bytes.NewReader(bytes.Repeat([]byte{7}, SaltSize))).Hash("s3cret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	formatted := fmt.Sprintf("%v", cred)
	if strings.Contains(formatted, cred.EncodedSalt()) || strings.Contains(formatted, cred.EncodedHash()) {
		t.Errorf("formatted credential exposes salt or hash: %s", formatted)
	}
}
