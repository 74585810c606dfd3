package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/lunchpaillola/api-module-library/core"
	"github.com/uptrace/bun"
)

// RepositoryFactory builds the credential, entity and oauth state stores
// over one bun db.
type RepositoryFactory struct {
	db *bun.DB

	credentialStore *CredentialStore
	entityStore     *EntityStore
	stateStore      *OAuthStateStore
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	return newRepositoryFactory(client, nil)
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	return newRepositoryFactory(db, nil)
}

// NewRepositoryFactoryWithCodec stores credential properties with codec
// instead of the default JSON codec.
func NewRepositoryFactoryWithCodec(persistenceClient any, codec core.CredentialCodec) (*RepositoryFactory, error) {
	return newRepositoryFactory(persistenceClient, codec)
}

func newRepositoryFactory(persistenceClient any, codec core.CredentialCodec) (*RepositoryFactory, error) {
	db, err := resolveBunDB(persistenceClient)
	if err != nil {
		return nil, err
	}
	if codec == nil {
		codec = core.JSONCredentialCodec{}
	}
	credentialStore, err := NewCredentialStore(db, codec)
	if err != nil {
		return nil, err
	}
	entityStore, err := NewEntityStore(db)
	if err != nil {
		return nil, err
	}
	stateStore, err := NewOAuthStateStore(db, core.DefaultOAuthStateTTL)
	if err != nil {
		return nil, err
	}
	return &RepositoryFactory{
		db:              db,
		credentialStore: credentialStore,
		entityStore:     entityStore,
		stateStore:      stateStore,
	}, nil
}

func (f *RepositoryFactory) CredentialStore() core.CredentialStore {
	if f == nil {
		return nil
	}
	return f.credentialStore
}

func (f *RepositoryFactory) EntityStore() core.EntityStore {
	if f == nil {
		return nil
	}
	return f.entityStore
}

func (f *RepositoryFactory) StateStore() core.OAuthStateStore {
	if f == nil {
		return nil
	}
	return f.stateStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		if typed == nil {
			return nil, fmt.Errorf("sqlstore: persistence client is required")
		}
		return typed, nil
	case *persistence.Client:
		if typed == nil {
			return nil, fmt.Errorf("sqlstore: persistence client is required")
		}
		return requireDB(typed.DB())
	case interface{ DB() *bun.DB }:
		return requireDB(typed.DB())
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}

func requireDB(db *bun.DB) (*bun.DB, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
	}
	return db, nil
}
