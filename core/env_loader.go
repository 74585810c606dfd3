package core

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const EnvRedirectURI = "REDIRECT_URI"

// envExtraSuffixes are module variables that land in ModuleConfig.Extra.
var envExtraSuffixes = map[string]string{
	"customer_id": "_CUSTOMER_ID",
}

// EnvConfigLoader reads module settings from the process environment,
// optionally seeded from dotenv files. Prefixes maps module name to the
// variable prefix, e.g. "asana" -> "ASANA".
type EnvConfigLoader struct {
	Files    []string
	Prefixes map[string]string
	Lookup   func(key string) (string, bool)
}

func NewEnvConfigLoader(prefixes map[string]string, files ...string) *EnvConfigLoader {
	return &EnvConfigLoader{
		Files:    append([]string(nil), files...),
		Prefixes: copyStringMap(prefixes),
	}
}

func (l *EnvConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if l == nil {
		return map[string]any{}, nil
	}
	if err := l.loadFiles(); err != nil {
		return nil, err
	}
	lookup := l.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	raw := map[string]any{}
	if value, ok := lookup(EnvRedirectURI); ok && strings.TrimSpace(value) != "" {
		raw["redirect_base_url"] = strings.TrimSpace(value)
	}
	modules := map[string]any{}
	for name, prefix := range l.Prefixes {
		prefix = strings.ToUpper(strings.TrimSpace(prefix))
		if prefix == "" {
			continue
		}
		entry := map[string]any{}
		for key, suffix := range map[string]string{
			"client_id":     "_CLIENT_ID",
			"client_secret": "_CLIENT_SECRET",
			"scope":         "_SCOPE",
			"redirect_uri":  "_REDIRECT_URI",
		} {
			if value, ok := lookup(prefix + suffix); ok && strings.TrimSpace(value) != "" {
				entry[key] = strings.TrimSpace(value)
			}
		}
		extra := map[string]any{}
		for key, suffix := range envExtraSuffixes {
			if value, ok := lookup(prefix + suffix); ok && strings.TrimSpace(value) != "" {
				extra[key] = strings.TrimSpace(value)
			}
		}
		if len(extra) > 0 {
			entry["extra"] = extra
		}
		if len(entry) > 0 {
			modules[name] = entry
		}
	}
	if len(modules) > 0 {
		raw["modules"] = modules
	}
	return raw, nil
}

func (l *EnvConfigLoader) loadFiles() error {
	files := make([]string, 0, len(l.Files))
	for _, file := range l.Files {
		if _, err := os.Stat(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		return nil
	}
	// godotenv never overrides variables already present in the environment.
	return godotenv.Load(files...)
}
