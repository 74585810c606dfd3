package sqlstore

import "github.com/lunchpaillola/api-module-library/core"

var (
	_ core.CredentialStore = (*CredentialStore)(nil)
	_ core.EntityStore     = (*EntityStore)(nil)
	_ core.EntityStore     = (*CachedEntityStore)(nil)
	_ core.OAuthStateStore = (*OAuthStateStore)(nil)
)
