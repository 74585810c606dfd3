package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

type ManagerDeps struct {
	Config         ModuleConfig
	Credentials    CredentialStore
	Entities       EntityStore
	States         OAuthStateStore
	Transport      TransportAdapter
	Logger         Logger
	LoggerProvider LoggerProvider
}

type LoadRequest struct {
	UserID       string
	EntityID     string
	CredentialID string
}

// Manager drives one Definition for one user: it rebuilds the API from the
// persisted credential, runs the authorization callback and keeps the
// credential in sync with token events.
type Manager[A API] struct {
	def    Definition[A]
	deps   ManagerDeps
	api    A
	logger Logger
	userID string

	mu         sync.RWMutex
	credential *Credential
	entity     *Entity
}

func NewManager[A API](ctx context.Context, def Definition[A], deps ManagerDeps, req LoadRequest) (*Manager[A], error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if deps.Credentials == nil || deps.Entities == nil {
		return nil, fmt.Errorf("core: manager %s requires credential and entity stores", def.Name)
	}

	m := &Manager[A]{
		def:    def,
		deps:   deps,
		logger: ResolveLogger("modules."+def.ModuleName(), deps.LoggerProvider, deps.Logger),
		userID: strings.TrimSpace(req.UserID),
	}

	credentialID := strings.TrimSpace(req.CredentialID)
	if entityID := strings.TrimSpace(req.EntityID); entityID != "" {
		entity, err := deps.Entities.Get(ctx, entityID)
		if err != nil {
			return nil, err
		}
		m.entity = &entity
		if m.userID == "" {
			m.userID = entity.UserID
		}
		if credentialID == "" {
			credentialID = entity.CredentialID
		}
	}
	if m.userID == "" {
		return nil, BadInput("user id is required", map[string]any{"module": def.ModuleName()})
	}

	properties := map[string]string{}
	if credentialID != "" {
		credential, err := deps.Credentials.Get(ctx, credentialID)
		if err != nil {
			return nil, err
		}
		if credential.UserID != m.userID {
			return nil, Conflict("credential belongs to another user", map[string]any{
				"module":        def.ModuleName(),
				"credential_id": credential.ID,
			})
		}
		m.credential = &credential
		properties = copyStringMap(credential.Properties)
	}

	api, err := def.NewAPI(APIParams{
		Config:     deps.Config,
		Properties: properties,
		Transport:  deps.Transport,
		Logger:     m.logger,
	})
	if err != nil {
		return nil, err
	}
	m.api = api
	api.Tokens().Subscribe(m)
	return m, nil
}

func (m *Manager[A]) API() A {
	return m.api
}

func (m *Manager[A]) Name() string {
	return m.def.ModuleName()
}

func (m *Manager[A]) UserID() string {
	return m.userID
}

func (m *Manager[A]) CredentialID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.credential == nil {
		return ""
	}
	return m.credential.ID
}

func (m *Manager[A]) EntityID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.entity == nil {
		return ""
	}
	return m.entity.ID
}

// AuthorizationRequirements returns the URL the user must visit. With a
// state store configured an empty state is generated and remembered.
func (m *Manager[A]) AuthorizationRequirements(ctx context.Context, state string) (AuthorizationRequirements, error) {
	state = strings.TrimSpace(state)
	if state == "" && m.deps.States != nil {
		state = NewOAuthState()
	}
	if state != "" && m.deps.States != nil {
		if err := m.deps.States.Save(ctx, OAuthStateRecord{
			State:       state,
			ModuleName:  m.Name(),
			UserID:      m.userID,
			RedirectURI: m.deps.Config.RedirectURI,
		}); err != nil {
			return AuthorizationRequirements{}, err
		}
	}
	return AuthorizationRequirements{
		URL:   m.api.AuthorizationURI(state),
		Type:  AuthTypeOAuth2,
		State: state,
	}, nil
}

func (m *Manager[A]) ProcessAuthorizationCallback(ctx context.Context, params CallbackParams) (result AuthorizationResult, err error) {
	startedAt := time.Now()
	defer func() {
		LogOperation(ctx, m.logger, startedAt, "process_authorization_callback", err, map[string]any{
			"module":  m.Name(),
			"user_id": m.userID,
		})
	}()

	if err = m.verifyState(ctx, params.State); err != nil {
		return AuthorizationResult{}, err
	}
	if err = m.def.Auth.GetToken(ctx, m.api, params); err != nil {
		return AuthorizationResult{}, err
	}

	credentialDetails, err := m.def.Auth.GetCredentialDetails(ctx, m.api, m.userID)
	if err != nil {
		return AuthorizationResult{}, err
	}
	credential, err := m.updateOrCreateCredential(ctx, credentialDetails)
	if err != nil {
		return AuthorizationResult{}, err
	}

	entityDetails, err := m.def.Auth.GetEntityDetails(ctx, m.api, params, m.userID)
	if err != nil {
		return AuthorizationResult{}, err
	}
	entity, err := m.findOrCreateEntity(ctx, entityDetails, credential.ID)
	if err != nil {
		return AuthorizationResult{}, err
	}

	return AuthorizationResult{
		CredentialID: credential.ID,
		EntityID:     entity.ID,
		Type:         AuthTypeOAuth2,
	}, nil
}

// TestAuth runs the definition's test request and reports whether the
// stored credentials still work.
func (m *Manager[A]) TestAuth(ctx context.Context) bool {
	if m.def.Auth.TestAuthRequest == nil {
		return false
	}
	if err := m.def.Auth.TestAuthRequest(ctx, m.api); err != nil {
		LogWithLevel(ctx, m.logger, "error", "auth test failed", map[string]any{
			"module":  m.Name(),
			"user_id": m.userID,
			"error":   err.Error(),
		})
		return false
	}
	return true
}

func (m *Manager[A]) Refresh(ctx context.Context) error {
	refresher, ok := any(m.api).(Refresher)
	if !ok {
		return BadInput("module does not support token refresh", map[string]any{"module": m.Name()})
	}
	_, err := refresher.RefreshAccessToken(ctx)
	return err
}

// Deauthorize wipes the API tokens, deletes the credential and unlinks any
// entity that referenced it.
func (m *Manager[A]) Deauthorize(ctx context.Context) error {
	if err := m.api.Tokens().Clear(); err != nil {
		return err
	}
	return m.dropCredential(ctx)
}

// OnTokenEvent keeps the loaded credential in sync with the API tokens.
func (m *Manager[A]) OnTokenEvent(ctx context.Context, event TokenEvent, _ TokenSnapshot) {
	credentialID := m.CredentialID()
	var err error
	switch event {
	case TokenEventUpdated:
		if credentialID == "" {
			return
		}
		_, err = m.persistCredential(ctx, credentialID, "")
	case TokenEventDeauthorized:
		err = m.dropCredential(ctx)
	case TokenEventInvalidAuth:
		if credentialID == "" {
			return
		}
		err = m.deps.Credentials.SetAuthValid(ctx, credentialID, false)
	}
	if err != nil {
		LogWithLevel(ctx, m.logger, "error", "token event handling failed", map[string]any{
			"module": m.Name(),
			"event":  string(event),
			"error":  err.Error(),
		})
		return
	}
	LogWithLevel(ctx, m.logger, "debug", "token event handled", map[string]any{
		"module": m.Name(),
		"event":  string(event),
	})
}

// verifyState consumes the callback state. With a store configured a
// missing state is rejected unless the module has no consent URL, in which
// case no state was ever handed to the vendor.
func (m *Manager[A]) verifyState(ctx context.Context, state string) error {
	if m.deps.States == nil {
		return nil
	}
	state = strings.TrimSpace(state)
	if state == "" {
		if m.api.AuthorizationURI("") == "" {
			return nil
		}
		return BadInput("oauth state is required", map[string]any{"module": m.Name()})
	}
	record, err := m.deps.States.Consume(ctx, state)
	if err != nil {
		return BadInput("invalid oauth state", map[string]any{"module": m.Name(), "error": err.Error()})
	}
	if record.ModuleName != m.Name() || record.UserID != m.userID {
		return BadInput("oauth state does not match this authorization", map[string]any{"module": m.Name()})
	}
	return nil
}

func (m *Manager[A]) updateOrCreateCredential(ctx context.Context, details IdentityDetails) (Credential, error) {
	externalID := strings.TrimSpace(details.Identifiers.ExternalID)
	if externalID == "" {
		return Credential{}, BadInput("credential identifier is required", map[string]any{"module": m.Name()})
	}
	matches, err := m.deps.Credentials.Find(ctx, CredentialQuery{
		ModuleName: m.Name(),
		ExternalID: externalID,
	})
	if err != nil {
		return Credential{}, err
	}
	switch len(matches) {
	case 0:
		properties := persistable(m.def.Auth.PropertiesToPersist.Credential, m.api.Properties())
		credential, err := m.deps.Credentials.Create(ctx, SaveCredentialInput{
			ModuleName:  m.Name(),
			UserID:      m.userID,
			ExternalID:  externalID,
			AuthIsValid: true,
			Properties:  properties,
		})
		if err != nil {
			return Credential{}, err
		}
		m.setCredential(&credential)
		return credential, nil
	case 1:
		if matches[0].UserID != m.userID {
			return Credential{}, Conflict("credential identifier belongs to another user", map[string]any{
				"module":      m.Name(),
				"external_id": externalID,
			})
		}
		return m.persistCredential(ctx, matches[0].ID, externalID)
	default:
		return Credential{}, Conflict("multiple credentials found for identifier", map[string]any{
			"module":      m.Name(),
			"external_id": externalID,
			"count":       len(matches),
		})
	}
}

func (m *Manager[A]) persistCredential(ctx context.Context, id string, externalID string) (Credential, error) {
	properties := persistable(m.def.Auth.PropertiesToPersist.Credential, m.api.Properties())
	credential, err := m.deps.Credentials.Update(ctx, id, SaveCredentialInput{
		ModuleName:  m.Name(),
		UserID:      m.userID,
		ExternalID:  externalID,
		AuthIsValid: true,
		Properties:  properties,
	})
	if err != nil {
		return Credential{}, err
	}
	m.setCredential(&credential)
	return credential, nil
}

func (m *Manager[A]) findOrCreateEntity(ctx context.Context, details IdentityDetails, credentialID string) (Entity, error) {
	externalID := strings.TrimSpace(details.Identifiers.ExternalID)
	if externalID == "" {
		return Entity{}, BadInput("entity identifier is required", map[string]any{"module": m.Name()})
	}
	userID := firstNonEmpty(details.Identifiers.UserID, m.userID)
	matches, err := m.deps.Entities.Find(ctx, EntityQuery{
		ModuleName: m.Name(),
		UserID:     userID,
		ExternalID: externalID,
	})
	if err != nil {
		return Entity{}, err
	}
	switch len(matches) {
	case 0:
		entity, err := m.deps.Entities.Create(ctx, CreateEntityInput{
			ModuleName:   m.Name(),
			UserID:       userID,
			ExternalID:   externalID,
			CredentialID: credentialID,
			Name:         entityName(details.Details),
			Details:      persistableDetails(m.def.Auth.PropertiesToPersist.Entity, details.Details),
		})
		if err != nil {
			return Entity{}, err
		}
		m.setEntity(&entity)
		return entity, nil
	case 1:
		entity := matches[0]
		if entity.CredentialID != credentialID {
			if err := m.deps.Entities.SetCredential(ctx, entity.ID, credentialID); err != nil {
				return Entity{}, err
			}
			entity.CredentialID = credentialID
		}
		m.setEntity(&entity)
		return entity, nil
	default:
		return Entity{}, Conflict("multiple entities found for identifier", map[string]any{
			"module":      m.Name(),
			"external_id": externalID,
			"count":       len(matches),
		})
	}
}

func (m *Manager[A]) dropCredential(ctx context.Context) error {
	credentialID := m.CredentialID()
	if credentialID == "" {
		return nil
	}
	linked, err := m.deps.Entities.FindByCredential(ctx, credentialID)
	if err != nil {
		return err
	}
	for _, entity := range linked {
		if err := m.deps.Entities.SetCredential(ctx, entity.ID, ""); err != nil {
			return err
		}
	}
	if err := m.deps.Credentials.Delete(ctx, credentialID); err != nil && !errors.Is(err, ErrCredentialNotFound) {
		return err
	}
	m.mu.Lock()
	m.credential = nil
	if m.entity != nil {
		m.entity.CredentialID = ""
	}
	m.mu.Unlock()
	LogWithLevel(ctx, m.logger, "info", "module deauthorized", map[string]any{
		"module":        m.Name(),
		"credential_id": credentialID,
	})
	return nil
}

func (m *Manager[A]) setCredential(credential *Credential) {
	m.mu.Lock()
	m.credential = credential
	m.mu.Unlock()
}

func (m *Manager[A]) setEntity(entity *Entity) {
	m.mu.Lock()
	m.entity = entity
	m.mu.Unlock()
}

func entityName(details map[string]any) string {
	for _, key := range []string{"name", "userName", "username", "email"} {
		if value, ok := details[key].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func persistableDetails(keys []string, details map[string]any) map[string]any {
	if len(keys) == 0 {
		return copyAnyMap(details)
	}
	out := map[string]any{}
	for _, key := range keys {
		if value, ok := details[key]; ok {
			out[key] = value
		}
	}
	return out
}
