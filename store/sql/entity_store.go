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

type EntityStore struct {
	db   *bun.DB
	repo repository.Repository[*entityRecord]
}

func NewEntityStore(db *bun.DB) (*EntityStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*entityRecord](db, entityHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid entity repository wiring: %w", err)
		}
	}
	return &EntityStore{db: db, repo: repo}, nil
}

func (s *EntityStore) Create(ctx context.Context, in core.CreateEntityInput) (core.Entity, error) {
	if s == nil || s.repo == nil {
		return core.Entity{}, fmt.Errorf("sqlstore: entity store is not configured")
	}
	if err := in.Validate(); err != nil {
		return core.Entity{}, err
	}
	created, err := s.repo.Create(ctx, newEntityRecord(in, time.Now().UTC()))
	if err != nil {
		return core.Entity{}, err
	}
	return created.toDomain(), nil
}

func (s *EntityStore) Get(ctx context.Context, id string) (core.Entity, error) {
	if s == nil || s.db == nil {
		return core.Entity{}, fmt.Errorf("sqlstore: entity store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return core.Entity{}, fmt.Errorf("sqlstore: entity id is required")
	}
	record := &entityRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", trimmedID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Entity{}, fmt.Errorf("sqlstore: %w: %s", core.ErrEntityNotFound, trimmedID)
		}
		return core.Entity{}, err
	}
	return record.toDomain(), nil
}

func (s *EntityStore) Find(ctx context.Context, query core.EntityQuery) ([]core.Entity, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: entity store is not configured")
	}
	criteria := []repository.SelectCriteria{}
	criteria = appendMatch(criteria, "module_name", query.ModuleName)
	criteria = appendMatch(criteria, "user_id", query.UserID)
	criteria = appendMatch(criteria, "external_id", query.ExternalID)
	return s.list(ctx, criteria...)
}

func (s *EntityStore) FindByCredential(ctx context.Context, credentialID string) ([]core.Entity, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: entity store is not configured")
	}
	credentialID = strings.TrimSpace(credentialID)
	if credentialID == "" {
		return nil, fmt.Errorf("sqlstore: credential id is required")
	}
	return s.list(ctx, repository.SelectBy("credential_id", "=", credentialID))
}

// SetCredential links the entity to credentialID; an empty id clears the link.
func (s *EntityStore) SetCredential(ctx context.Context, id string, credentialID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: entity store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	res, err := s.db.NewUpdate().
		Model((*entityRecord)(nil)).
		Set("credential_id = ?", optionalString(credentialID)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", trimmedID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, core.ErrEntityNotFound, trimmedID)
}

func (s *EntityStore) list(ctx context.Context, criteria ...repository.SelectCriteria) ([]core.Entity, error) {
	criteria = append(criteria, repository.OrderBy("created_at ASC"))
	records, _, err := s.repo.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}
	out := make([]core.Entity, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}
