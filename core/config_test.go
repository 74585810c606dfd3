package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig_ModuleResolvesRedirectFromBase(t *testing.T) {
	cfg := Config{
		ServiceName:     "api-modules",
		RedirectBaseURL: "https://host.test/redirect/",
		Modules: map[string]ModuleConfig{
			"asana": {ClientID: "cid"},
			"miro":  {ClientID: "mid", RedirectURI: "https://custom.test/cb"},
		},
	}
	if got := cfg.Module("asana").RedirectURI; got != "https://host.test/redirect/asana" {
		t.Fatalf("expected derived redirect, got %q", got)
	}
	if got := cfg.Module("miro").RedirectURI; got != "https://custom.test/cb" {
		t.Fatalf("expected explicit redirect kept, got %q", got)
	}
	if got := cfg.Module("zoom").RedirectURI; got != "https://host.test/redirect/zoom" {
		t.Fatalf("expected redirect for unconfigured module, got %q", got)
	}
}

func TestConfig_ValidateRejectsRelativeRedirect(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Modules["asana"] = ModuleConfig{RedirectURI: "/callback"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected relative redirect to be rejected")
	}
	cfg.Modules["asana"] = ModuleConfig{RedirectURI: "https://host.test/callback"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	if err := (Config{}).Validate(); err == nil {
		t.Fatalf("expected missing service name to fail")
	}
}

func TestCfgxConfigProvider_LoadsModules(t *testing.T) {
	provider := NewCfgxConfigProvider(StaticRawConfigLoader{Values: map[string]any{
		"redirect_base_url": "https://host.test",
		"modules": map[string]any{
			"zoom": map[string]any{
				"client_id":     "zid",
				"client_secret": "zsecret",
			},
		},
	}})
	cfg, err := provider.Load(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServiceName != "api-modules" {
		t.Fatalf("expected default service name, got %q", cfg.ServiceName)
	}
	if cfg.Modules["zoom"].ClientSecret != "zsecret" {
		t.Fatalf("expected zoom secret loaded, got %#v", cfg.Modules["zoom"])
	}
}

func TestGoOptionsResolver_RuntimeOverridesLoaded(t *testing.T) {
	resolved, err := GoOptionsResolver{}.Resolve(
		DefaultConfig(),
		Config{ServiceName: "from-config", RedirectBaseURL: "https://config.test"},
		Config{ServiceName: "from-runtime"},
	)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.ServiceName != "from-runtime" {
		t.Fatalf("expected runtime service name, got %q", resolved.ServiceName)
	}
	if resolved.RedirectBaseURL != "https://config.test" {
		t.Fatalf("expected config redirect base, got %q", resolved.RedirectBaseURL)
	}
}

func TestEnvConfigLoader_ReadsPrefixedVariables(t *testing.T) {
	env := map[string]string{
		"REDIRECT_URI":        "https://host.test/redirect",
		"ASANA_CLIENT_ID":     "asana-id",
		"ASANA_CLIENT_SECRET": "asana-secret",
		"ZOHO_SCOPE":          "ZohoCRM.users.ALL",
		"UNBABEL_CUSTOMER_ID": " cust-9 ",
	}
	loader := NewEnvConfigLoader(map[string]string{"asana": "ASANA", "zohocrm": "ZOHO", "miro": "MIRO", "unbabel": "UNBABEL"})
	loader.Lookup = func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
	raw, err := loader.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	if raw["redirect_base_url"] != "https://host.test/redirect" {
		t.Fatalf("expected redirect base, got %#v", raw["redirect_base_url"])
	}
	modules, _ := raw["modules"].(map[string]any)
	asana, _ := modules["asana"].(map[string]any)
	if asana["client_id"] != "asana-id" || asana["client_secret"] != "asana-secret" {
		t.Fatalf("unexpected asana entry %#v", asana)
	}
	zoho, _ := modules["zohocrm"].(map[string]any)
	if zoho["scope"] != "ZohoCRM.users.ALL" {
		t.Fatalf("unexpected zoho entry %#v", zoho)
	}
	if _, ok := modules["miro"]; ok {
		t.Fatalf("expected miro skipped without variables")
	}
	unbabel, _ := modules["unbabel"].(map[string]any)
	extra, _ := unbabel["extra"].(map[string]any)
	if extra["customer_id"] != "cust-9" {
		t.Fatalf("expected customer id in extra, got %#v", unbabel)
	}
	if _, ok := asana["extra"]; ok {
		t.Fatalf("expected no extra for asana, got %#v", asana)
	}
}

func TestEnvConfigLoader_LoadsDotenvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("MODULECTL_TEST_CLIENT_ID=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("MODULECTL_TEST_CLIENT_ID") })

	loader := NewEnvConfigLoader(map[string]string{"test": "MODULECTL_TEST"}, path, filepath.Join(dir, "missing.env"))
	raw, err := loader.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	modules, _ := raw["modules"].(map[string]any)
	entry, _ := modules["test"].(map[string]any)
	if entry["client_id"] != "from-file" {
		t.Fatalf("expected dotenv value, got %#v", entry)
	}
}
