package apimodules

import (
	"fmt"

	modulecommand "github.com/lunchpaillola/api-module-library/command"
	"github.com/lunchpaillola/api-module-library/core"
	modulequery "github.com/lunchpaillola/api-module-library/query"
)

type Commands struct {
	ProcessCallback *modulecommand.ProcessCallbackCommand
	Refresh         *modulecommand.RefreshCommand
	Deauthorize     *modulecommand.DeauthorizeCommand
}

type Queries struct {
	AuthorizationRequirements *modulequery.AuthorizationRequirementsQuery
	TestAuth                  *modulequery.TestAuthQuery
	ListModules               *modulequery.ListModulesQuery
}

// Facade bundles the module commands and queries over one loader.
type Facade struct {
	loader   *core.ModuleLoader
	commands Commands
	queries  Queries
}

func NewFacade(loader *core.ModuleLoader) (*Facade, error) {
	if loader == nil {
		return nil, fmt.Errorf("apimodules: module loader is required")
	}
	return &Facade{
		loader: loader,
		commands: Commands{
			ProcessCallback: modulecommand.NewProcessCallbackCommand(loader),
			Refresh:         modulecommand.NewRefreshCommand(loader),
			Deauthorize:     modulecommand.NewDeauthorizeCommand(loader),
		},
		queries: Queries{
			AuthorizationRequirements: modulequery.NewAuthorizationRequirementsQuery(loader),
			TestAuth:                  modulequery.NewTestAuthQuery(loader),
			ListModules:               modulequery.NewListModulesQuery(loader.Registry()),
		},
	}, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Loader() *core.ModuleLoader {
	if f == nil {
		return nil
	}
	return f.loader
}
