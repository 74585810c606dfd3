package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type credentialRecord struct {
	bun.BaseModel `bun:"table:module_credentials,alias:mc"`

	ID             string    `bun:"id,pk"`
	ModuleName     string    `bun:"module_name,notnull"`
	UserID         string    `bun:"user_id,notnull"`
	ExternalID     string    `bun:"external_id,notnull"`
	AuthIsValid    bool      `bun:"auth_is_valid,notnull"`
	Payload        []byte    `bun:"payload,notnull"`
	PayloadFormat  string    `bun:"payload_format,notnull"`
	PayloadVersion int       `bun:"payload_version,notnull"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type entityRecord struct {
	bun.BaseModel `bun:"table:module_entities,alias:me"`

	ID           string         `bun:"id,pk"`
	ModuleName   string         `bun:"module_name,notnull"`
	UserID       string         `bun:"user_id,notnull"`
	ExternalID   string         `bun:"external_id,notnull"`
	CredentialID *string        `bun:"credential_id"`
	Name         string         `bun:"name,notnull"`
	Details      map[string]any `bun:"details,type:jsonb,notnull"`
	CreatedAt    time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
