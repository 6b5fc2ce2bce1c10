package cookies

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const sealInfo = "nullscape-admin cookie seal v1"

// Sealed encrypts cookie values at rest with XChaCha20-Poly1305.
// The key is derived from a secret via HKDF-SHA256; the cookie name is bound as AAD.
type Sealed struct {
	inner Store
	key   []byte
}

// NewSealed wraps inner so that values are sealed with a key derived from secret.
func NewSealed(inner Store, secret []byte) (*Sealed, error) {
	if len(secret) == 0 {
		return nil, errors.New("cookie secret is empty")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := hkdf.New(sha256.New, secret, nil, []byte(sealInfo)).Read(key); err != nil {
		return nil, err
	}
	return &Sealed{inner: inner, key: key}, nil
}

func (s *Sealed) seal(name, value string) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out := make([]byte, 0, len(nonce)+len(value)+aead.Overhead())
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, []byte(value), []byte(name))
	return base64.RawURLEncoding.EncodeToString(out), nil
}

func (s *Sealed) open(name, sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("cookie %s: %w", name, err)
	}
	if len(raw) < chacha20poly1305.NonceSizeX {
		return "", fmt.Errorf("cookie %s: sealed value too short", name)
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	pt, err := aead.Open(nil, raw[:chacha20poly1305.NonceSizeX], raw[chacha20poly1305.NonceSizeX:], []byte(name))
	if err != nil {
		return "", fmt.Errorf("cookie %s: %w", name, err)
	}
	return string(pt), nil
}

func (s *Sealed) Get(ctx context.Context, name string) (string, error) {
	v, err := s.inner.Get(ctx, name)
	if err != nil {
		return "", err
	}
	return s.open(name, v)
}

func (s *Sealed) Set(ctx context.Context, c Cookie) error {
	v, err := s.seal(c.Name, c.Value)
	if err != nil {
		return err
	}
	c.Value = v
	return s.inner.Set(ctx, c)
}

func (s *Sealed) Remove(ctx context.Context, name string) error {
	return s.inner.Remove(ctx, name)
}
