package apimodules

import "github.com/lunchpaillola/api-module-library/core"

type Config = core.Config

type ModuleConfig = core.ModuleConfig

type Module = core.Module

type ModuleFactory = core.ModuleFactory

type ModuleRegistry = core.ModuleRegistry

type ModuleLoader = core.ModuleLoader

type ManagerDeps = core.ManagerDeps
type LoadRequest = core.LoadRequest
type CredentialStore = core.CredentialStore
type EntityStore = core.EntityStore
type OAuthStateStore = core.OAuthStateStore
type TransportAdapter = core.TransportAdapter

type CallbackParams = core.CallbackParams

type AuthorizationRequirements = core.AuthorizationRequirements

type AuthorizationResult = core.AuthorizationResult

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewModuleRegistry() *ModuleRegistry {
	return core.NewModuleRegistry()
}

func NewModuleLoader(registry *ModuleRegistry, cfg Config, deps ManagerDeps) (*ModuleLoader, error) {
	return core.NewModuleLoader(registry, cfg, deps)
}
