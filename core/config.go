package core

import (
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ModuleConfig holds the OAuth application settings for one vendor module.
type ModuleConfig struct {
	ClientID     string            `koanf:"client_id" mapstructure:"client_id"`
	ClientSecret string            `koanf:"client_secret" mapstructure:"client_secret"`
	Scope        string            `koanf:"scope" mapstructure:"scope"`
	RedirectURI  string            `koanf:"redirect_uri" mapstructure:"redirect_uri"`
	Extra        map[string]string `koanf:"extra" mapstructure:"extra"`
}

type Config struct {
	ServiceName     string                  `koanf:"service_name" mapstructure:"service_name"`
	RedirectBaseURL string                  `koanf:"redirect_base_url" mapstructure:"redirect_base_url"`
	Modules         map[string]ModuleConfig `koanf:"modules" mapstructure:"modules"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "api-modules",
		Modules:     map[string]ModuleConfig{},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	for _, name := range c.ModuleNames() {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("core: module name is required")
		}
		if err := c.Modules[name].Validate(); err != nil {
			return fmt.Errorf("core: module %q: %w", name, err)
		}
	}
	return nil
}

// Validate only checks shape. Whether a module needs a secret or a redirect
// is decided by the module constructor.
func (m ModuleConfig) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.RedirectURI, validation.When(m.RedirectURI != "", validation.By(requireAbsoluteURL))),
	)
}

// Module returns the settings for name with the redirect URI resolved
// against RedirectBaseURL when the module does not set its own.
func (c Config) Module(name string) ModuleConfig {
	name = strings.TrimSpace(name)
	module := c.Modules[name]
	module.Extra = copyStringMap(module.Extra)
	if strings.TrimSpace(module.RedirectURI) == "" && strings.TrimSpace(c.RedirectBaseURL) != "" {
		module.RedirectURI = strings.TrimRight(strings.TrimSpace(c.RedirectBaseURL), "/") + "/" + name
	}
	return module
}

func (c Config) ModuleNames() []string {
	names := make([]string, 0, len(c.Modules))
	for name := range c.Modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func requireAbsoluteURL(value any) error {
	raw, _ := value.(string)
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return fmt.Errorf("must be an absolute http(s) url")
	}
	return nil
}
