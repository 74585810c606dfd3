package core

import (
	"context"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ModuleOpener opens a registered module for one user.
type ModuleOpener interface {
	OpenModule(ctx context.Context, name string, req LoadRequest) (Module, error)
}

// ModuleLoader resolves factories from a registry and hands each one the
// module section of Config.
type ModuleLoader struct {
	registry *ModuleRegistry
	config   Config
	deps     ManagerDeps
}

func NewModuleLoader(registry *ModuleRegistry, config Config, deps ManagerDeps) (*ModuleLoader, error) {
	if registry == nil {
		return nil, BadInput("module registry is required", nil)
	}
	if deps.Credentials == nil || deps.Entities == nil {
		return nil, BadInput("credential and entity stores are required", nil)
	}
	return &ModuleLoader{registry: registry, config: config, deps: deps}, nil
}

func (l *ModuleLoader) OpenModule(ctx context.Context, name string, req LoadRequest) (Module, error) {
	factory, ok := l.registry.Get(name)
	if !ok {
		return nil, newModuleError("module is not registered", goerrors.CategoryNotFound, http.StatusNotFound, map[string]any{
			"module": strings.TrimSpace(name),
		})
	}
	deps := l.deps
	deps.Config = l.config.Module(factory.ModuleName())
	return factory.NewModule(ctx, deps, req)
}

func (l *ModuleLoader) Registry() *ModuleRegistry {
	return l.registry
}

func (l *ModuleLoader) Config() Config {
	return l.config
}

var _ ModuleOpener = (*ModuleLoader)(nil)
