package apimodules

import (
	"context"
	"fmt"
	"strings"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/lunchpaillola/api-module-library/core"
	"github.com/lunchpaillola/api-module-library/security"
	sqlstore "github.com/lunchpaillola/api-module-library/store/sql"
)

// SetupOptions configures Setup. An empty Database.DSN keeps credentials,
// entities and oauth states in memory. A CredentialKey seals stored
// credential payloads.
type SetupOptions struct {
	EnvFiles       []string
	Runtime        Config
	Database       sqlstore.PersistenceConfig
	CredentialKey  string
	EntityCacheTTL time.Duration
	Transport      core.TransportAdapter
	States         core.OAuthStateStore
	Logger         core.Logger
	LoggerProvider core.LoggerProvider
	Extra          []core.ModuleFactory
}

// Runtime is a wired set of registry, configuration, stores and facade.
type Runtime struct {
	Config      Config
	Registry    *core.ModuleRegistry
	Credentials core.CredentialStore
	Entities    core.EntityStore
	States      core.OAuthStateStore
	Loader      *core.ModuleLoader
	Facade      *Facade

	closers []func() error
}

func Setup(ctx context.Context, options SetupOptions) (*Runtime, error) {
	registry, err := NewDefaultRegistry(options.Extra...)
	if err != nil {
		return nil, err
	}
	cfg, err := LoadConfig(ctx, registry, options.Runtime, options.EnvFiles...)
	if err != nil {
		return nil, err
	}

	runtime := &Runtime{Config: cfg, Registry: registry}
	if strings.TrimSpace(options.Database.DSN) == "" {
		runtime.Credentials = core.NewMemoryCredentialStore()
		runtime.Entities = core.NewMemoryEntityStore()
	} else {
		client, err := sqlstore.Open(ctx, options.Database)
		if err != nil {
			return nil, err
		}
		runtime.closers = append(runtime.closers, client.Close)
		codec, err := credentialCodec(options.CredentialKey)
		if err != nil {
			_ = runtime.Close()
			return nil, err
		}
		factory, err := sqlstore.NewRepositoryFactoryWithCodec(client, codec)
		if err != nil {
			_ = runtime.Close()
			return nil, err
		}
		runtime.Credentials = factory.CredentialStore()
		runtime.Entities = factory.EntityStore()
		runtime.States = factory.StateStore()
	}

	if options.EntityCacheTTL > 0 {
		cacheConfig := repositorycache.DefaultConfig()
		cacheConfig.TTL = options.EntityCacheTTL
		cacheService, err := repositorycache.NewCacheService(cacheConfig)
		if err != nil {
			_ = runtime.Close()
			return nil, fmt.Errorf("apimodules: entity cache: %w", err)
		}
		cached, err := sqlstore.NewCachedEntityStore(runtime.Entities, cacheService)
		if err != nil {
			_ = runtime.Close()
			return nil, err
		}
		runtime.Entities = cached
	}

	if options.States != nil {
		runtime.States = options.States
	}
	if runtime.States == nil {
		runtime.States = core.NewMemoryOAuthStateStore(0)
	}
	runtime.Loader, err = core.NewModuleLoader(registry, cfg, core.ManagerDeps{
		Credentials:    runtime.Credentials,
		Entities:       runtime.Entities,
		States:         runtime.States,
		Transport:      options.Transport,
		Logger:         options.Logger,
		LoggerProvider: options.LoggerProvider,
	})
	if err != nil {
		_ = runtime.Close()
		return nil, err
	}
	runtime.Facade, err = NewFacade(runtime.Loader)
	if err != nil {
		_ = runtime.Close()
		return nil, err
	}
	return runtime, nil
}

func credentialCodec(material string) (core.CredentialCodec, error) {
	if strings.TrimSpace(material) == "" {
		return core.JSONCredentialCodec{}, nil
	}
	key, err := security.NewAppKeyFromString(material)
	if err != nil {
		return nil, err
	}
	return security.NewSealedCredentialCodec(key, core.JSONCredentialCodec{})
}

// Close releases the database connection, if any.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}
