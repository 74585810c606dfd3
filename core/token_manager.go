package core

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

const (
	AuthHeaderBearer         = "Bearer"
	AuthHeaderZohoOAuthToken = "Zoho-oauthtoken"
)

type TokenEvent string

const (
	TokenEventUpdated      TokenEvent = "token_updated"
	TokenEventDeauthorized TokenEvent = "token_deauthorized"
	TokenEventInvalidAuth  TokenEvent = "invalid_auth"
)

type TokenSnapshot struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
	State        AuthState
}

type TokenObserver interface {
	OnTokenEvent(ctx context.Context, event TokenEvent, snapshot TokenSnapshot)
}

type TokenObserverFunc func(ctx context.Context, event TokenEvent, snapshot TokenSnapshot)

func (fn TokenObserverFunc) OnTokenEvent(ctx context.Context, event TokenEvent, snapshot TokenSnapshot) {
	if fn != nil {
		fn(ctx, event, snapshot)
	}
}

type TokenManagerOptions struct {
	HeaderScheme string
	AccessToken  string
	RefreshToken string
	Now          func() time.Time
}

// TokenManager owns the access/refresh token pair of one API instance and its
// auth state. The pair is always replaced under one lock; observers run after
// the lock is released.
type TokenManager struct {
	mu        sync.RWMutex
	token     oauth2.Token
	state     AuthState
	scheme    string
	observers []TokenObserver
	now       func() time.Time
}

func NewTokenManager(options TokenManagerOptions) *TokenManager {
	scheme := strings.TrimSpace(options.HeaderScheme)
	if scheme == "" {
		scheme = AuthHeaderBearer
	}
	now := options.Now
	if now == nil {
		now = time.Now
	}
	manager := &TokenManager{
		state:  AuthStateUnauthenticated,
		scheme: scheme,
		now:    now,
	}
	if access := strings.TrimSpace(options.AccessToken); access != "" {
		manager.token = oauth2.Token{
			AccessToken:  access,
			RefreshToken: strings.TrimSpace(options.RefreshToken),
			TokenType:    scheme,
		}
		manager.state = AuthStateAuthenticated
	} else if refresh := strings.TrimSpace(options.RefreshToken); refresh != "" {
		manager.token = oauth2.Token{RefreshToken: refresh}
		manager.state = AuthStateExpired
	}
	return manager
}

func (m *TokenManager) Subscribe(observer TokenObserver) {
	if m == nil || observer == nil {
		return
	}
	m.mu.Lock()
	m.observers = append(m.observers, observer)
	m.mu.Unlock()
}

// SetTokens stores a new token pair. An empty refresh token keeps the
// previous one.
func (m *TokenManager) SetTokens(ctx context.Context, tokens TokenResponse) error {
	if m == nil {
		return nil
	}
	access := strings.TrimSpace(tokens.AccessToken)
	if access == "" {
		return BadInput("access token is required", nil)
	}
	m.mu.Lock()
	if err := ValidateAuthStateTransition(m.state, AuthStateAuthenticated); err != nil {
		m.mu.Unlock()
		return err
	}
	refresh := strings.TrimSpace(tokens.RefreshToken)
	if refresh == "" {
		refresh = m.token.RefreshToken
	}
	next := oauth2.Token{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    firstNonEmpty(tokens.TokenType, m.scheme),
	}
	if tokens.ExpiresIn > 0 {
		next.Expiry = m.now().UTC().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	}
	if len(tokens.Raw) > 0 {
		next = *next.WithExtra(copyAnyMap(tokens.Raw))
	}
	m.token = next
	m.state = AuthStateAuthenticated
	snapshot := m.snapshotLocked()
	observers := m.observersLocked()
	m.mu.Unlock()

	notify(ctx, observers, TokenEventUpdated, snapshot)
	return nil
}

// MarkExpired records that the vendor rejected the current access token.
func (m *TokenManager) MarkExpired() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ValidateAuthStateTransition(m.state, AuthStateExpired); err != nil {
		return err
	}
	m.state = AuthStateExpired
	return nil
}

// Deauthorize wipes both tokens and notifies observers.
func (m *TokenManager) Deauthorize(ctx context.Context) error {
	if m == nil {
		return nil
	}
	snapshot, observers, err := m.clear()
	if err != nil {
		return err
	}
	notify(ctx, observers, TokenEventDeauthorized, snapshot)
	return nil
}

// Clear wipes both tokens without notifying observers.
func (m *TokenManager) Clear() error {
	if m == nil {
		return nil
	}
	_, _, err := m.clear()
	return err
}

// MarkInvalid notifies observers that the stored credentials were rejected.
func (m *TokenManager) MarkInvalid(ctx context.Context) {
	if m == nil {
		return
	}
	m.mu.RLock()
	snapshot := m.snapshotLocked()
	observers := m.observersLocked()
	m.mu.RUnlock()
	notify(ctx, observers, TokenEventInvalidAuth, snapshot)
}

func (m *TokenManager) State() AuthState {
	if m == nil {
		return AuthStateUnauthenticated
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *TokenManager) Snapshot() TokenSnapshot {
	if m == nil {
		return TokenSnapshot{State: AuthStateUnauthenticated}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *TokenManager) AccessToken() string {
	return m.Snapshot().AccessToken
}

func (m *TokenManager) RefreshToken() string {
	return m.Snapshot().RefreshToken
}

func (m *TokenManager) HeaderScheme() string {
	if m == nil {
		return AuthHeaderBearer
	}
	return m.scheme
}

// AuthorizationHeader returns the header value for the current access token.
func (m *TokenManager) AuthorizationHeader() (string, bool) {
	access := m.AccessToken()
	if access == "" {
		return "", false
	}
	return m.HeaderScheme() + " " + access, true
}

func (m *TokenManager) clear() (TokenSnapshot, []TokenObserver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ValidateAuthStateTransition(m.state, AuthStateDeauthorized); err != nil {
		return TokenSnapshot{}, nil, err
	}
	m.token = oauth2.Token{}
	m.state = AuthStateDeauthorized
	return m.snapshotLocked(), m.observersLocked(), nil
}

func (m *TokenManager) snapshotLocked() TokenSnapshot {
	return TokenSnapshot{
		AccessToken:  m.token.AccessToken,
		RefreshToken: m.token.RefreshToken,
		TokenType:    m.token.TokenType,
		Expiry:       m.token.Expiry,
		State:        m.state,
	}
}

func (m *TokenManager) observersLocked() []TokenObserver {
	return append([]TokenObserver(nil), m.observers...)
}

func notify(ctx context.Context, observers []TokenObserver, event TokenEvent, snapshot TokenSnapshot) {
	for _, observer := range observers {
		observer.OnTokenEvent(ctx, event, snapshot)
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
