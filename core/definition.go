package core

import (
	"context"
	"fmt"
	"strings"
)

// API is implemented by every vendor client.
type API interface {
	Tokens() *TokenManager
	AuthorizationURI(state string) string
	// Properties returns the values a credential may persist, keyed the
	// way PersistedProperties names them.
	Properties() map[string]string
}

// Refresher is implemented by clients that can renew their access token.
type Refresher interface {
	RefreshAccessToken(ctx context.Context) (TokenResponse, error)
}

// APIParams rebuilds an API instance from configuration and persisted
// credential properties.
type APIParams struct {
	Config     ModuleConfig
	Properties map[string]string
	Transport  TransportAdapter
	Logger     Logger
}

func (p APIParams) Property(key string) string {
	if len(p.Properties) == 0 {
		return ""
	}
	return strings.TrimSpace(p.Properties[key])
}

type AuthMethods[A API] struct {
	GetToken             func(ctx context.Context, api A, params CallbackParams) error
	GetEntityDetails     func(ctx context.Context, api A, params CallbackParams, userID string) (IdentityDetails, error)
	GetCredentialDetails func(ctx context.Context, api A, userID string) (IdentityDetails, error)
	PropertiesToPersist  PersistedProperties
	TestAuthRequest      func(ctx context.Context, api A) error
}

// Definition describes how a host drives one vendor module.
type Definition[A API] struct {
	Name      string
	ModelName string
	EnvPrefix string
	NewAPI    func(params APIParams) (A, error)
	Auth      AuthMethods[A]
}

func (d Definition[A]) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("core: definition name is required")
	}
	if d.NewAPI == nil {
		return fmt.Errorf("core: definition %s: api constructor is required", d.Name)
	}
	if d.Auth.GetToken == nil {
		return fmt.Errorf("core: definition %s: get token is required", d.Name)
	}
	if d.Auth.GetEntityDetails == nil {
		return fmt.Errorf("core: definition %s: entity details are required", d.Name)
	}
	if d.Auth.GetCredentialDetails == nil {
		return fmt.Errorf("core: definition %s: credential details are required", d.Name)
	}
	return nil
}

func (d Definition[A]) ModuleName() string {
	return strings.TrimSpace(d.Name)
}

func (d Definition[A]) Prefix() string {
	if prefix := strings.TrimSpace(d.EnvPrefix); prefix != "" {
		return strings.ToUpper(prefix)
	}
	return strings.ToUpper(d.ModuleName())
}

// NewModule makes every Definition usable as a ModuleFactory.
func (d Definition[A]) NewModule(ctx context.Context, deps ManagerDeps, req LoadRequest) (Module, error) {
	manager, err := NewManager(ctx, d, deps, req)
	if err != nil {
		return nil, err
	}
	return manager, nil
}

// persistable filters the API properties down to the named keys.
func persistable(keys []string, properties map[string]string) map[string]string {
	out := map[string]string{}
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if value, ok := properties[key]; ok {
			out[key] = value
		}
	}
	return out
}
