package core

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryCredentialStore struct {
	mu      sync.RWMutex
	records map[string]Credential
	now     func() time.Time
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{
		records: map[string]Credential{},
		now:     time.Now,
	}
}

func (s *MemoryCredentialStore) Create(_ context.Context, in SaveCredentialInput) (Credential, error) {
	if err := in.Validate(); err != nil {
		return Credential{}, err
	}
	now := s.now().UTC()
	record := Credential{
		ID:          uuid.NewString(),
		ModuleName:  strings.TrimSpace(in.ModuleName),
		UserID:      strings.TrimSpace(in.UserID),
		ExternalID:  strings.TrimSpace(in.ExternalID),
		AuthIsValid: in.AuthIsValid,
		Properties:  copyStringMap(in.Properties),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.mu.Lock()
	s.records[record.ID] = record
	s.mu.Unlock()
	return cloneCredential(record), nil
}

func (s *MemoryCredentialStore) Update(_ context.Context, id string, in SaveCredentialInput) (Credential, error) {
	id = strings.TrimSpace(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return Credential{}, ErrCredentialNotFound
	}
	if value := strings.TrimSpace(in.ExternalID); value != "" {
		record.ExternalID = value
	}
	if value := strings.TrimSpace(in.UserID); value != "" {
		record.UserID = value
	}
	for key, value := range in.Properties {
		if record.Properties == nil {
			record.Properties = map[string]string{}
		}
		record.Properties[key] = value
	}
	record.AuthIsValid = in.AuthIsValid
	record.UpdatedAt = s.now().UTC()
	s.records[id] = record
	return cloneCredential(record), nil
}

func (s *MemoryCredentialStore) Get(_ context.Context, id string) (Credential, error) {
	s.mu.RLock()
	record, ok := s.records[strings.TrimSpace(id)]
	s.mu.RUnlock()
	if !ok {
		return Credential{}, ErrCredentialNotFound
	}
	return cloneCredential(record), nil
}

func (s *MemoryCredentialStore) Find(_ context.Context, query CredentialQuery) ([]Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Credential, 0)
	for _, record := range s.records {
		if query.matches(record) {
			out = append(out, cloneCredential(record))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryCredentialStore) SetAuthValid(_ context.Context, id string, valid bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[strings.TrimSpace(id)]
	if !ok {
		return ErrCredentialNotFound
	}
	record.AuthIsValid = valid
	record.UpdatedAt = s.now().UTC()
	s.records[record.ID] = record
	return nil
}

func (s *MemoryCredentialStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id = strings.TrimSpace(id)
	if _, ok := s.records[id]; !ok {
		return ErrCredentialNotFound
	}
	delete(s.records, id)
	return nil
}

type MemoryEntityStore struct {
	mu      sync.RWMutex
	records map[string]Entity
	now     func() time.Time
}

func NewMemoryEntityStore() *MemoryEntityStore {
	return &MemoryEntityStore{
		records: map[string]Entity{},
		now:     time.Now,
	}
}

func (s *MemoryEntityStore) Create(_ context.Context, in CreateEntityInput) (Entity, error) {
	if err := in.Validate(); err != nil {
		return Entity{}, err
	}
	now := s.now().UTC()
	record := Entity{
		ID:           uuid.NewString(),
		ModuleName:   strings.TrimSpace(in.ModuleName),
		UserID:       strings.TrimSpace(in.UserID),
		ExternalID:   strings.TrimSpace(in.ExternalID),
		CredentialID: strings.TrimSpace(in.CredentialID),
		Name:         strings.TrimSpace(in.Name),
		Details:      copyAnyMap(in.Details),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.mu.Lock()
	s.records[record.ID] = record
	s.mu.Unlock()
	return cloneEntity(record), nil
}

func (s *MemoryEntityStore) Get(_ context.Context, id string) (Entity, error) {
	s.mu.RLock()
	record, ok := s.records[strings.TrimSpace(id)]
	s.mu.RUnlock()
	if !ok {
		return Entity{}, ErrEntityNotFound
	}
	return cloneEntity(record), nil
}

func (s *MemoryEntityStore) Find(_ context.Context, query EntityQuery) ([]Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entity, 0)
	for _, record := range s.records {
		if query.matches(record) {
			out = append(out, cloneEntity(record))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryEntityStore) FindByCredential(_ context.Context, credentialID string) ([]Entity, error) {
	credentialID = strings.TrimSpace(credentialID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entity, 0)
	if credentialID == "" {
		return out, nil
	}
	for _, record := range s.records {
		if record.CredentialID == credentialID {
			out = append(out, cloneEntity(record))
		}
	}
	return out, nil
}

func (s *MemoryEntityStore) SetCredential(_ context.Context, id string, credentialID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[strings.TrimSpace(id)]
	if !ok {
		return ErrEntityNotFound
	}
	record.CredentialID = strings.TrimSpace(credentialID)
	record.UpdatedAt = s.now().UTC()
	s.records[record.ID] = record
	return nil
}

func cloneCredential(record Credential) Credential {
	record.Properties = copyStringMap(record.Properties)
	return record
}

func cloneEntity(record Entity) Entity {
	record.Details = copyAnyMap(record.Details)
	return record
}
