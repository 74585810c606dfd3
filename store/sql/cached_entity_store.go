package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/lunchpaillola/api-module-library/core"
)

const entityCacheKeyPrefix = "api-modules::entity::v1"

// CachedEntityStore serves Get from a cache and drops the cached entry when
// the entity's credential link changes. The other methods pass through.
type CachedEntityStore struct {
	base  core.EntityStore
	cache repositorycache.CacheService
}

func NewCachedEntityStore(base core.EntityStore, cacheService repositorycache.CacheService) (*CachedEntityStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base entity store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: entity cache service is required")
	}
	return &CachedEntityStore{base: base, cache: cacheService}, nil
}

// EntityCacheKey returns api-modules::entity::v1::<entity_id> with the id
// URL-path escaped.
func EntityCacheKey(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("sqlstore: entity id is required")
	}
	return entityCacheKeyPrefix + "::" + url.PathEscape(id), nil
}

func (s *CachedEntityStore) Create(ctx context.Context, in core.CreateEntityInput) (core.Entity, error) {
	if s == nil || s.base == nil {
		return core.Entity{}, fmt.Errorf("sqlstore: cached entity store is not configured")
	}
	return s.base.Create(ctx, in)
}

func (s *CachedEntityStore) Get(ctx context.Context, id string) (core.Entity, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Entity{}, fmt.Errorf("sqlstore: cached entity store is not configured")
	}
	cacheKey, err := EntityCacheKey(id)
	if err != nil {
		return core.Entity{}, err
	}
	entity, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.Entity, error) {
		return s.base.Get(ctx, strings.TrimSpace(id))
	})
	if err != nil {
		return core.Entity{}, err
	}
	entity.Details = copyAnyMap(entity.Details)
	return entity, nil
}

func (s *CachedEntityStore) Find(ctx context.Context, query core.EntityQuery) ([]core.Entity, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached entity store is not configured")
	}
	return s.base.Find(ctx, query)
}

func (s *CachedEntityStore) FindByCredential(ctx context.Context, credentialID string) ([]core.Entity, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached entity store is not configured")
	}
	return s.base.FindByCredential(ctx, credentialID)
}

func (s *CachedEntityStore) SetCredential(ctx context.Context, id string, credentialID string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached entity store is not configured")
	}
	if err := s.base.SetCredential(ctx, id, credentialID); err != nil {
		return err
	}
	cacheKey, err := EntityCacheKey(id)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}
