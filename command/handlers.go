package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/lunchpaillola/api-module-library/core"
)

type ProcessCallbackCommand struct {
	opener core.ModuleOpener
}

func NewProcessCallbackCommand(opener core.ModuleOpener) *ProcessCallbackCommand {
	return &ProcessCallbackCommand{opener: opener}
}

// Execute stores the core.AuthorizationResult in the context result
// collector when one is present.
func (c *ProcessCallbackCommand) Execute(ctx context.Context, msg ProcessCallbackMessage) error {
	if c == nil || c.opener == nil {
		return commandDependencyError("command: module opener is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	module, err := c.opener.OpenModule(ctx, msg.Target.Module, msg.Target.LoadRequest())
	if err != nil {
		return err
	}
	out, err := module.ProcessAuthorizationCallback(ctx, msg.Params)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RefreshCommand struct {
	opener core.ModuleOpener
}

func NewRefreshCommand(opener core.ModuleOpener) *RefreshCommand {
	return &RefreshCommand{opener: opener}
}

func (c *RefreshCommand) Execute(ctx context.Context, msg RefreshMessage) error {
	if c == nil || c.opener == nil {
		return commandDependencyError("command: module opener is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	module, err := c.opener.OpenModule(ctx, msg.Target.Module, msg.Target.LoadRequest())
	if err != nil {
		return err
	}
	return module.Refresh(ctx)
}

type DeauthorizeCommand struct {
	opener core.ModuleOpener
}

func NewDeauthorizeCommand(opener core.ModuleOpener) *DeauthorizeCommand {
	return &DeauthorizeCommand{opener: opener}
}

func (c *DeauthorizeCommand) Execute(ctx context.Context, msg DeauthorizeMessage) error {
	if c == nil || c.opener == nil {
		return commandDependencyError("command: module opener is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	module, err := c.opener.OpenModule(ctx, msg.Target.Module, msg.Target.LoadRequest())
	if err != nil {
		return err
	}
	return module.Deauthorize(ctx)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
