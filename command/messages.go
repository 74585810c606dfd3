package command

import (
	"strings"

	"github.com/lunchpaillola/api-module-library/core"
)

const (
	TypeProcessCallback = "modules.command.callback.process"
	TypeRefresh         = "modules.command.refresh"
	TypeDeauthorize     = "modules.command.deauthorize"
)

// Target names the module and the user, entity or credential to load it for.
type Target struct {
	Module       string
	UserID       string
	EntityID     string
	CredentialID string
}

func (t Target) LoadRequest() core.LoadRequest {
	return core.LoadRequest{
		UserID:       strings.TrimSpace(t.UserID),
		EntityID:     strings.TrimSpace(t.EntityID),
		CredentialID: strings.TrimSpace(t.CredentialID),
	}
}

func (t Target) validate(requireStored bool) error {
	if strings.TrimSpace(t.Module) == "" {
		return commandValidationError("module", "module name is required")
	}
	if requireStored && strings.TrimSpace(t.EntityID) == "" && strings.TrimSpace(t.CredentialID) == "" {
		return commandValidationError("entity_id", "entity id or credential id is required")
	}
	if !requireStored && strings.TrimSpace(t.UserID) == "" && strings.TrimSpace(t.EntityID) == "" {
		return commandValidationError("user_id", "user id or entity id is required")
	}
	return nil
}

type ProcessCallbackMessage struct {
	Target Target
	Params core.CallbackParams
}

func (ProcessCallbackMessage) Type() string { return TypeProcessCallback }

func (m ProcessCallbackMessage) Validate() error {
	return m.Target.validate(false)
}

type RefreshMessage struct {
	Target Target
}

func (RefreshMessage) Type() string { return TypeRefresh }

func (m RefreshMessage) Validate() error {
	return m.Target.validate(true)
}

type DeauthorizeMessage struct {
	Target Target
}

func (DeauthorizeMessage) Type() string { return TypeDeauthorize }

func (m DeauthorizeMessage) Validate() error {
	return m.Target.validate(true)
}
