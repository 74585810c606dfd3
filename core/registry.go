package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Module is the type-erased view of a Manager used by hosts that drive any
// vendor by name.
type Module interface {
	Name() string
	UserID() string
	CredentialID() string
	EntityID() string
	AuthorizationRequirements(ctx context.Context, state string) (AuthorizationRequirements, error)
	ProcessAuthorizationCallback(ctx context.Context, params CallbackParams) (AuthorizationResult, error)
	TestAuth(ctx context.Context) bool
	Refresh(ctx context.Context) error
	Deauthorize(ctx context.Context) error
}

type ModuleFactory interface {
	ModuleName() string
	Prefix() string
	NewModule(ctx context.Context, deps ManagerDeps, req LoadRequest) (Module, error)
}

type ModuleRegistry struct {
	mu        sync.RWMutex
	factories map[string]ModuleFactory
}

func NewModuleRegistry() *ModuleRegistry {
	return &ModuleRegistry{factories: make(map[string]ModuleFactory)}
}

func (r *ModuleRegistry) Register(factory ModuleFactory) error {
	if factory == nil {
		return fmt.Errorf("core: module factory is nil")
	}
	name := strings.TrimSpace(factory.ModuleName())
	if name == "" {
		return fmt.Errorf("core: module name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("core: module already registered: %s", name)
	}
	r.factories[name] = factory
	return nil
}

func (r *ModuleRegistry) Get(name string) (ModuleFactory, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	return factory, ok
}

func (r *ModuleRegistry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Prefixes maps module names to their environment variable prefix.
func (r *ModuleRegistry) Prefixes() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.factories))
	for name, factory := range r.factories {
		out[name] = factory.Prefix()
	}
	return out
}
