// Package security seals stored credential payloads with an application key.
package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	envelopePrefix    = "modules.credential.v1:"
	envelopeAlgorithm = "aes-256-gcm"
)

type Option func(*AppKey)

// AppKey encrypts with AES-GCM. Key material that is not 16, 24 or 32 bytes
// long is hashed with SHA-256.
type AppKey struct {
	key     []byte
	keyID   string
	version int
}

type envelope struct {
	KeyID      string `json:"kid"`
	Version    int    `json:"ver"`
	Algorithm  string `json:"alg"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

func WithKeyID(id string) Option {
	return func(key *AppKey) {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			key.keyID = trimmed
		}
	}
}

func WithVersion(version int) Option {
	return func(key *AppKey) {
		if version > 0 {
			key.version = version
		}
	}
}

func NewAppKey(material []byte, opts ...Option) (*AppKey, error) {
	trimmed := bytes.TrimSpace(material)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("security: key material is required")
	}
	key := &AppKey{
		key:     normalizeKey(trimmed),
		keyID:   "app-key",
		version: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(key)
		}
	}
	return key, nil
}

func NewAppKeyFromString(material string, opts ...Option) (*AppKey, error) {
	return NewAppKey([]byte(material), opts...)
}

func (k *AppKey) Seal(plaintext []byte) ([]byte, error) {
	if k == nil {
		return nil, fmt.Errorf("security: app key is nil")
	}
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("security: plaintext is required")
	}
	gcm, err := k.aead()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("security: nonce generation failed: %w", err)
	}

	data, err := json.Marshal(envelope{
		KeyID:      k.keyID,
		Version:    k.version,
		Algorithm:  envelopeAlgorithm,
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(gcm.Seal(nil, nonce, plaintext, nil)),
	})
	if err != nil {
		return nil, fmt.Errorf("security: encode envelope: %w", err)
	}
	return append([]byte(envelopePrefix), data...), nil
}

func (k *AppKey) Open(sealed []byte) ([]byte, error) {
	if k == nil {
		return nil, fmt.Errorf("security: app key is nil")
	}
	if !IsSealed(sealed) {
		return nil, fmt.Errorf("security: payload is not sealed")
	}

	var parsed envelope
	if err := json.Unmarshal(bytes.TrimPrefix(sealed, []byte(envelopePrefix)), &parsed); err != nil {
		return nil, fmt.Errorf("security: decode envelope: %w", err)
	}
	if parsed.Algorithm != envelopeAlgorithm {
		return nil, fmt.Errorf("security: unsupported algorithm %q", parsed.Algorithm)
	}
	if parsed.KeyID != k.keyID {
		return nil, fmt.Errorf("security: key id mismatch: got %q want %q", parsed.KeyID, k.keyID)
	}
	if parsed.Version != k.version {
		return nil, fmt.Errorf("security: key version mismatch: got %d want %d", parsed.Version, k.version)
	}

	nonce, err := base64.StdEncoding.DecodeString(parsed.Nonce)
	if err != nil {
		return nil, fmt.Errorf("security: decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(parsed.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("security: decode ciphertext: %w", err)
	}
	gcm, err := k.aead()
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("security: invalid nonce length %d", len(nonce))
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("security: decrypt payload: %w", err)
	}
	return plaintext, nil
}

func (k *AppKey) KeyID() string {
	if k == nil {
		return ""
	}
	return k.keyID
}

func (k *AppKey) Version() int {
	if k == nil {
		return 0
	}
	return k.version
}

// IsSealed reports whether payload carries the envelope prefix.
func IsSealed(payload []byte) bool {
	return bytes.HasPrefix(payload, []byte(envelopePrefix))
}

func (k *AppKey) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(k.key)
	if err != nil {
		return nil, fmt.Errorf("security: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("security: create gcm: %w", err)
	}
	return gcm, nil
}

func normalizeKey(value []byte) []byte {
	if len(value) == 16 || len(value) == 24 || len(value) == 32 {
		return append([]byte(nil), value...)
	}
	sum := sha256.Sum256(value)
	return sum[:]
}
