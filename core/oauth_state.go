package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultOAuthStateTTL = 15 * time.Minute

var (
	ErrOAuthStateNotFound = errors.New("core: oauth state not found")
	ErrOAuthStateExpired  = errors.New("core: oauth state expired")
)

// OAuthStateRecord binds an authorization redirect to the user that started it.
type OAuthStateRecord struct {
	State       string
	ModuleName  string
	UserID      string
	RedirectURI string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Normalize trims the state and fills missing timestamps from now and ttl.
func (r OAuthStateRecord) Normalize(now time.Time, ttl time.Duration) (OAuthStateRecord, error) {
	r.State = strings.TrimSpace(r.State)
	if r.State == "" {
		return OAuthStateRecord{}, fmt.Errorf("core: oauth state is required")
	}
	if ttl <= 0 {
		ttl = DefaultOAuthStateTTL
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now.UTC()
	}
	if r.ExpiresAt.IsZero() {
		r.ExpiresAt = r.CreatedAt.Add(ttl)
	}
	return r, nil
}

func (r OAuthStateRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// MemoryOAuthStateStore keeps states for a single process. Expired entries
// are dropped whenever a new state is saved.
type MemoryOAuthStateStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]OAuthStateRecord
}

func NewMemoryOAuthStateStore(ttl time.Duration) *MemoryOAuthStateStore {
	if ttl <= 0 {
		ttl = DefaultOAuthStateTTL
	}
	return &MemoryOAuthStateStore{
		ttl:     ttl,
		now:     time.Now,
		entries: map[string]OAuthStateRecord{},
	}
}

func (s *MemoryOAuthStateStore) Save(_ context.Context, record OAuthStateRecord) error {
	if s == nil {
		return fmt.Errorf("core: oauth state store is not configured")
	}
	now := s.now().UTC()
	record, err := record.Normalize(now, s.ttl)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.entries {
		if entry.Expired(now) {
			delete(s.entries, key)
		}
	}
	s.entries[record.State] = record
	return nil
}

// Consume returns the record once; a second call for the same state fails.
func (s *MemoryOAuthStateStore) Consume(_ context.Context, state string) (OAuthStateRecord, error) {
	if s == nil {
		return OAuthStateRecord{}, fmt.Errorf("core: oauth state store is not configured")
	}
	state = strings.TrimSpace(state)
	if state == "" {
		return OAuthStateRecord{}, fmt.Errorf("core: oauth state is required")
	}

	s.mu.Lock()
	record, ok := s.entries[state]
	delete(s.entries, state)
	s.mu.Unlock()

	if !ok {
		return OAuthStateRecord{}, ErrOAuthStateNotFound
	}
	if record.Expired(s.now().UTC()) {
		return OAuthStateRecord{}, ErrOAuthStateExpired
	}
	return record, nil
}

// Len reports how many states are held, expired ones included.
func (s *MemoryOAuthStateStore) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func NewOAuthState() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
