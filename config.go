package apimodules

import (
	"context"

	"github.com/lunchpaillola/api-module-library/core"
)

// LoadConfig reads module settings from the environment (seeded from the
// given dotenv files) for every module in registry, then layers runtime on
// top of the loaded values.
func LoadConfig(ctx context.Context, registry *core.ModuleRegistry, runtime Config, envFiles ...string) (Config, error) {
	prefixes := map[string]string{}
	if registry != nil {
		prefixes = registry.Prefixes()
	}
	return loadConfig(ctx, core.NewEnvConfigLoader(prefixes, envFiles...), runtime)
}

func loadConfig(ctx context.Context, loader core.RawConfigLoader, runtime Config) (Config, error) {
	defaults := DefaultConfig()
	loaded, err := core.NewCfgxConfigProvider(loader).Load(ctx, defaults)
	if err != nil {
		return Config{}, err
	}
	return core.GoOptionsResolver{}.Resolve(defaults, loaded, runtime)
}
