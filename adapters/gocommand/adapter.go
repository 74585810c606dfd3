package gocommand

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	modulecommand "github.com/lunchpaillola/api-module-library/command"
	"github.com/lunchpaillola/api-module-library/core"
	modulequery "github.com/lunchpaillola/api-module-library/query"
)

var errRegistryMissing = errors.New("gocommand: registry is not configured")

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return errRegistryMissing
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) RegisterQuery(qry any) error {
	if a == nil || a.registry == nil {
		return errRegistryMissing
	}
	return a.registry.RegisterCommand(qry)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return errRegistryMissing
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return errRegistryMissing
	}
	return a.registry.Initialize()
}

func SubscribeCommand[T any](cmd command.Commander[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
}

func SubscribeQuery[T any, R any](qry command.Querier[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	return bind(adapter, "command", cmd, func() commanddispatcher.Subscription {
		return SubscribeCommand(cmd, runnerOpts...)
	})
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	return bind(adapter, "query", qry, func() commanddispatcher.Subscription {
		return SubscribeQuery(qry, runnerOpts...)
	})
}

// bind subscribes handler and registers it, dropping the subscription again
// when registration fails.
func bind(adapter *RegistryAdapter, kind string, handler any, subscribe func() commanddispatcher.Subscription) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, errRegistryMissing
	}
	if handler == nil {
		return nil, fmt.Errorf("gocommand: %s is required", kind)
	}
	subscription := subscribe()
	if err := adapter.registry.RegisterCommand(handler); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// RegisterModuleHandlers subscribes every module command and query to the
// global dispatcher and registers them with the adapter. Callers unsubscribe
// the returned subscriptions when done.
func RegisterModuleHandlers(
	adapter *RegistryAdapter,
	loader *core.ModuleLoader,
	runnerOpts ...runner.Option,
) ([]commanddispatcher.Subscription, error) {
	if loader == nil {
		return nil, fmt.Errorf("gocommand: module loader is required")
	}
	subscriptions := make([]commanddispatcher.Subscription, 0, 6)
	rollback := func(err error) ([]commanddispatcher.Subscription, error) {
		for _, subscription := range subscriptions {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	add := func(subscription commanddispatcher.Subscription, err error) error {
		if err != nil {
			return err
		}
		subscriptions = append(subscriptions, subscription)
		return nil
	}

	if err := add(RegisterAndSubscribe[modulecommand.ProcessCallbackMessage](adapter, modulecommand.NewProcessCallbackCommand(loader), runnerOpts...)); err != nil {
		return rollback(err)
	}
	if err := add(RegisterAndSubscribe[modulecommand.RefreshMessage](adapter, modulecommand.NewRefreshCommand(loader), runnerOpts...)); err != nil {
		return rollback(err)
	}
	if err := add(RegisterAndSubscribe[modulecommand.DeauthorizeMessage](adapter, modulecommand.NewDeauthorizeCommand(loader), runnerOpts...)); err != nil {
		return rollback(err)
	}
	if err := add(RegisterAndSubscribeQuery[modulequery.AuthorizationRequirementsMessage, core.AuthorizationRequirements](adapter, modulequery.NewAuthorizationRequirementsQuery(loader), runnerOpts...)); err != nil {
		return rollback(err)
	}
	if err := add(RegisterAndSubscribeQuery[modulequery.TestAuthMessage, modulequery.TestAuthResult](adapter, modulequery.NewTestAuthQuery(loader), runnerOpts...)); err != nil {
		return rollback(err)
	}
	if err := add(RegisterAndSubscribeQuery[modulequery.ListModulesMessage, []modulequery.ModuleSummary](adapter, modulequery.NewListModulesQuery(loader.Registry()), runnerOpts...)); err != nil {
		return rollback(err)
	}
	return subscriptions, nil
}
