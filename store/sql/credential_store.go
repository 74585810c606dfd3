package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/lunchpaillola/api-module-library/core"
	"github.com/uptrace/bun"
)

// CredentialStore persists credentials with their API properties encoded by
// a core.CredentialCodec into the payload column.
type CredentialStore struct {
	db    *bun.DB
	repo  repository.Repository[*credentialRecord]
	codec core.CredentialCodec
}

func NewCredentialStore(db *bun.DB, codec core.CredentialCodec) (*CredentialStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	if codec == nil {
		codec = core.JSONCredentialCodec{}
	}
	repo := repository.NewRepository[*credentialRecord](db, credentialHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid credential repository wiring: %w", err)
		}
	}
	return &CredentialStore{db: db, repo: repo, codec: codec}, nil
}

func (s *CredentialStore) Create(ctx context.Context, in core.SaveCredentialInput) (core.Credential, error) {
	if s == nil || s.repo == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	if err := in.Validate(); err != nil {
		return core.Credential{}, err
	}
	record, err := newCredentialRecord(in, s.codec, time.Now().UTC())
	if err != nil {
		return core.Credential{}, err
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.Credential{}, err
	}
	return created.toDomain(s.codec)
}

// Update merges in.Properties over the stored ones. Empty user and external
// ids keep their stored values.
func (s *CredentialStore) Update(ctx context.Context, id string, in core.SaveCredentialInput) (core.Credential, error) {
	if s == nil || s.repo == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	current, err := s.getRecord(ctx, trimmedID)
	if err != nil {
		return core.Credential{}, err
	}
	properties, err := s.codec.Decode(current.Payload)
	if err != nil {
		return core.Credential{}, err
	}
	payload, err := s.codec.Encode(mergeProperties(properties, in.Properties))
	if err != nil {
		return core.Credential{}, err
	}
	if value := strings.TrimSpace(in.UserID); value != "" {
		current.UserID = value
	}
	if value := strings.TrimSpace(in.ExternalID); value != "" {
		current.ExternalID = value
	}
	current.AuthIsValid = in.AuthIsValid
	current.Payload = payload
	current.PayloadFormat = s.codec.Format()
	current.PayloadVersion = s.codec.Version()
	current.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, current, repository.UpdateByID(trimmedID))
	if err != nil {
		return core.Credential{}, err
	}
	return updated.toDomain(s.codec)
}

func (s *CredentialStore) Get(ctx context.Context, id string) (core.Credential, error) {
	if s == nil || s.db == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	record, err := s.getRecord(ctx, strings.TrimSpace(id))
	if err != nil {
		return core.Credential{}, err
	}
	return record.toDomain(s.codec)
}

func (s *CredentialStore) Find(ctx context.Context, query core.CredentialQuery) ([]core.Credential, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: credential store is not configured")
	}
	criteria := []repository.SelectCriteria{}
	criteria = appendMatch(criteria, "module_name", query.ModuleName)
	criteria = appendMatch(criteria, "user_id", query.UserID)
	criteria = appendMatch(criteria, "external_id", query.ExternalID)
	criteria = append(criteria, repository.OrderBy("created_at ASC"))

	records, _, err := s.repo.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}
	out := make([]core.Credential, 0, len(records))
	for _, record := range records {
		credential, decodeErr := record.toDomain(s.codec)
		if decodeErr != nil {
			return nil, decodeErr
		}
		out = append(out, credential)
	}
	return out, nil
}

func (s *CredentialStore) SetAuthValid(ctx context.Context, id string, valid bool) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: credential store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	res, err := s.db.NewUpdate().
		Model((*credentialRecord)(nil)).
		Set("auth_is_valid = ?", valid).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", trimmedID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, core.ErrCredentialNotFound, trimmedID)
}

// Delete removes the credential; entity links are cleared by the schema.
func (s *CredentialStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: credential store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if _, err := s.db.NewUpdate().
		Model((*entityRecord)(nil)).
		Set("credential_id = NULL").
		Set("updated_at = ?", time.Now().UTC()).
		Where("credential_id = ?", trimmedID).
		Exec(ctx); err != nil {
		return err
	}
	res, err := s.db.NewDelete().
		Model((*credentialRecord)(nil)).
		Where("id = ?", trimmedID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, core.ErrCredentialNotFound, trimmedID)
}

func (s *CredentialStore) getRecord(ctx context.Context, id string) (*credentialRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("sqlstore: credential id is required")
	}
	record := &credentialRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sqlstore: %w: %s", core.ErrCredentialNotFound, id)
		}
		return nil, err
	}
	return record, nil
}

func appendMatch(criteria []repository.SelectCriteria, column string, value string) []repository.SelectCriteria {
	value = strings.TrimSpace(value)
	if value == "" {
		return criteria
	}
	return append(criteria, repository.SelectBy(column, "=", value))
}

func requireAffected(res sql.Result, sentinel error, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("sqlstore: %w: %s", sentinel, id)
	}
	return nil
}
