package apimodules

import (
	"github.com/lunchpaillola/api-module-library/core"
	"github.com/lunchpaillola/api-module-library/providers/asana"
	"github.com/lunchpaillola/api-module-library/providers/miro"
	"github.com/lunchpaillola/api-module-library/providers/unbabel"
	"github.com/lunchpaillola/api-module-library/providers/zohocrm"
	"github.com/lunchpaillola/api-module-library/providers/zoom"
)

func AsanaClient(cfg asana.Config) (*asana.Client, error) {
	return asana.New(cfg)
}

func MiroClient(cfg miro.Config) (*miro.Client, error) {
	return miro.New(cfg)
}

func ZohoCRMClient(cfg zohocrm.Config) (*zohocrm.Client, error) {
	return zohocrm.New(cfg)
}

func UnbabelClient(cfg unbabel.Config) (*unbabel.Client, error) {
	return unbabel.New(cfg)
}

func ZoomClient(cfg zoom.Config) (*zoom.Client, error) {
	return zoom.New(cfg)
}

// DefaultModules returns the factory of every bundled vendor module.
func DefaultModules() []core.ModuleFactory {
	return []core.ModuleFactory{
		asana.NewDefinition(),
		miro.NewDefinition(),
		zohocrm.NewDefinition(),
		unbabel.NewDefinition(),
		zoom.NewDefinition(),
	}
}

// NewDefaultRegistry registers the bundled modules followed by extra.
func NewDefaultRegistry(extra ...core.ModuleFactory) (*core.ModuleRegistry, error) {
	registry := core.NewModuleRegistry()
	if err := RegisterModules(registry, DefaultModules()...); err != nil {
		return nil, err
	}
	if err := RegisterModules(registry, extra...); err != nil {
		return nil, err
	}
	return registry, nil
}

func RegisterModules(registry *core.ModuleRegistry, factories ...core.ModuleFactory) error {
	for _, factory := range factories {
		if err := registry.Register(factory); err != nil {
			return err
		}
	}
	return nil
}
