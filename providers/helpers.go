package providers

import (
	"net/url"
	"sort"
	"strings"

	"github.com/lunchpaillola/api-module-library/core"
	"github.com/lunchpaillola/api-module-library/transport"
)

func jsonHeaders() map[string]string {
	return map[string]string{
		"Content-Type": transport.ContentTypeJSON,
		"Accept":       transport.ContentTypeJSON,
	}
}

// mergeHeaders applies layers in order; later layers win.
func mergeHeaders(layers ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, layer := range layers {
		for key, value := range layer {
			if strings.TrimSpace(key) == "" {
				continue
			}
			out[key] = value
		}
	}
	return out
}

// JoinURL returns base + path, followed by "/" + id for each non-empty id.
func JoinURL(base string, path string, ids ...string) string {
	out := strings.TrimRight(base, "/") + path
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out += "/" + url.PathEscape(id)
		}
	}
	return out
}

// RequireID rejects an empty identifier before any network call.
func RequireID(module string, name string, value string) error {
	if strings.TrimSpace(value) == "" {
		return core.BadInput(name+" is required", map[string]any{"module": module, "field": name})
	}
	return nil
}

// Envelope wraps body under key, e.g. {"data": body}.
func Envelope(key string, body any) map[string]any {
	return map[string]any{key: body}
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
