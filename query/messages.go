package query

import (
	"strings"

	"github.com/lunchpaillola/api-module-library/core"
)

const (
	TypeAuthorizationRequirements = "modules.query.authorization.requirements"
	TypeTestAuth                  = "modules.query.auth.test"
	TypeListModules               = "modules.query.modules.list"
)

type AuthorizationRequirementsMessage struct {
	Module string
	UserID string
	State  string
}

func (AuthorizationRequirementsMessage) Type() string { return TypeAuthorizationRequirements }

func (m AuthorizationRequirementsMessage) Validate() error {
	if strings.TrimSpace(m.Module) == "" {
		return queryValidationError("module", "module name is required")
	}
	if strings.TrimSpace(m.UserID) == "" {
		return queryValidationError("user_id", "user id is required")
	}
	return nil
}

type TestAuthMessage struct {
	Module       string
	EntityID     string
	CredentialID string
}

func (TestAuthMessage) Type() string { return TypeTestAuth }

func (m TestAuthMessage) Validate() error {
	if strings.TrimSpace(m.Module) == "" {
		return queryValidationError("module", "module name is required")
	}
	if strings.TrimSpace(m.EntityID) == "" && strings.TrimSpace(m.CredentialID) == "" {
		return queryValidationError("entity_id", "entity id or credential id is required")
	}
	return nil
}

func (m TestAuthMessage) loadRequest() core.LoadRequest {
	return core.LoadRequest{
		EntityID:     strings.TrimSpace(m.EntityID),
		CredentialID: strings.TrimSpace(m.CredentialID),
	}
}

// TestAuthResult reports whether the stored credential still authenticates.
type TestAuthResult struct {
	Module        string
	UserID        string
	CredentialID  string
	Authenticated bool
}

type ListModulesMessage struct{}

func (ListModulesMessage) Type() string { return TypeListModules }

func (ListModulesMessage) Validate() error { return nil }

type ModuleSummary struct {
	Name      string
	EnvPrefix string
}
