package security

import (
	"fmt"

	"github.com/lunchpaillola/api-module-library/core"
)

const CredentialPayloadFormatSealedV1 = "module_credential_sealed"

// SealedCredentialCodec encrypts the output of an inner codec. Payloads
// written before sealing was enabled are still decoded by the inner codec.
type SealedCredentialCodec struct {
	key   *AppKey
	inner core.CredentialCodec
}

// NewSealedCredentialCodec wraps inner, or the JSON codec when inner is nil.
func NewSealedCredentialCodec(key *AppKey, inner core.CredentialCodec) (*SealedCredentialCodec, error) {
	if key == nil {
		return nil, fmt.Errorf("security: app key is required")
	}
	if inner == nil {
		inner = core.JSONCredentialCodec{}
	}
	return &SealedCredentialCodec{key: key, inner: inner}, nil
}

func (c *SealedCredentialCodec) Format() string {
	return CredentialPayloadFormatSealedV1
}

func (c *SealedCredentialCodec) Version() int {
	return c.inner.Version()
}

func (c *SealedCredentialCodec) Encode(properties map[string]string) ([]byte, error) {
	plaintext, err := c.inner.Encode(properties)
	if err != nil {
		return nil, err
	}
	return c.key.Seal(plaintext)
}

func (c *SealedCredentialCodec) Decode(payload []byte) (map[string]string, error) {
	if !IsSealed(payload) {
		return c.inner.Decode(payload)
	}
	plaintext, err := c.key.Open(payload)
	if err != nil {
		return nil, err
	}
	return c.inner.Decode(plaintext)
}

var _ core.CredentialCodec = (*SealedCredentialCodec)(nil)
