package sqlstore

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lunchpaillola/api-module-library/core"
)

func newCredentialRecord(in core.SaveCredentialInput, codec core.CredentialCodec, now time.Time) (*credentialRecord, error) {
	payload, err := codec.Encode(in.Properties)
	if err != nil {
		return nil, err
	}
	return &credentialRecord{
		ID:             uuid.NewString(),
		ModuleName:     strings.TrimSpace(in.ModuleName),
		UserID:         strings.TrimSpace(in.UserID),
		ExternalID:     strings.TrimSpace(in.ExternalID),
		AuthIsValid:    in.AuthIsValid,
		Payload:        payload,
		PayloadFormat:  codec.Format(),
		PayloadVersion: codec.Version(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (r *credentialRecord) toDomain(codec core.CredentialCodec) (core.Credential, error) {
	if r == nil {
		return core.Credential{}, nil
	}
	properties, err := codec.Decode(r.Payload)
	if err != nil {
		return core.Credential{}, err
	}
	return core.Credential{
		ID:          r.ID,
		ModuleName:  r.ModuleName,
		UserID:      r.UserID,
		ExternalID:  r.ExternalID,
		AuthIsValid: r.AuthIsValid,
		Properties:  properties,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

func newEntityRecord(in core.CreateEntityInput, now time.Time) *entityRecord {
	return &entityRecord{
		ID:           uuid.NewString(),
		ModuleName:   strings.TrimSpace(in.ModuleName),
		UserID:       strings.TrimSpace(in.UserID),
		ExternalID:   strings.TrimSpace(in.ExternalID),
		CredentialID: optionalString(in.CredentialID),
		Name:         strings.TrimSpace(in.Name),
		Details:      copyAnyMap(in.Details),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (r *entityRecord) toDomain() core.Entity {
	if r == nil {
		return core.Entity{}
	}
	entity := core.Entity{
		ID:         r.ID,
		ModuleName: r.ModuleName,
		UserID:     r.UserID,
		ExternalID: r.ExternalID,
		Name:       r.Name,
		Details:    copyAnyMap(r.Details),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.CredentialID != nil {
		entity.CredentialID = *r.CredentialID
	}
	return entity
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func copyAnyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func mergeProperties(current map[string]string, updates map[string]string) map[string]string {
	out := make(map[string]string, len(current)+len(updates))
	for key, value := range current {
		out[key] = value
	}
	for key, value := range updates {
		out[key] = value
	}
	return out
}
