package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	CredentialPayloadFormatJSONV1 = "module_credential_json"
	CredentialPayloadVersionV1    = 1
)

// CredentialCodec serializes the persisted API properties of a credential.
type CredentialCodec interface {
	Format() string
	Version() int
	Encode(properties map[string]string) ([]byte, error)
	Decode(payload []byte) (map[string]string, error)
}

type JSONCredentialCodec struct{}

func (JSONCredentialCodec) Format() string {
	return CredentialPayloadFormatJSONV1
}

func (JSONCredentialCodec) Version() int {
	return CredentialPayloadVersionV1
}

type jsonCredentialPayload struct {
	Version    int               `json:"version"`
	Properties map[string]string `json:"properties"`
}

func (JSONCredentialCodec) Encode(properties map[string]string) ([]byte, error) {
	payload := jsonCredentialPayload{
		Version:    CredentialPayloadVersionV1,
		Properties: map[string]string{},
	}
	for key, value := range properties {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		payload.Properties[key] = value
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("core: encode credential payload: %w", err)
	}
	return encoded, nil
}

func (JSONCredentialCodec) Decode(payload []byte) (map[string]string, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("core: credential payload is empty")
	}
	decoded := jsonCredentialPayload{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("core: decode credential payload: %w", err)
	}
	if decoded.Version != CredentialPayloadVersionV1 {
		return nil, fmt.Errorf("core: unsupported credential payload version %d", decoded.Version)
	}
	return copyStringMap(decoded.Properties), nil
}
