package query

import (
	"context"

	"github.com/lunchpaillola/api-module-library/core"
)

type AuthorizationRequirementsQuery struct {
	opener core.ModuleOpener
}

func NewAuthorizationRequirementsQuery(opener core.ModuleOpener) *AuthorizationRequirementsQuery {
	return &AuthorizationRequirementsQuery{opener: opener}
}

func (q *AuthorizationRequirementsQuery) Query(
	ctx context.Context,
	msg AuthorizationRequirementsMessage,
) (core.AuthorizationRequirements, error) {
	if q == nil || q.opener == nil {
		return core.AuthorizationRequirements{}, queryDependencyError("query: module opener is required")
	}
	if err := msg.Validate(); err != nil {
		return core.AuthorizationRequirements{}, err
	}
	module, err := q.opener.OpenModule(ctx, msg.Module, core.LoadRequest{UserID: msg.UserID})
	if err != nil {
		return core.AuthorizationRequirements{}, err
	}
	return module.AuthorizationRequirements(ctx, msg.State)
}

type TestAuthQuery struct {
	opener core.ModuleOpener
}

func NewTestAuthQuery(opener core.ModuleOpener) *TestAuthQuery {
	return &TestAuthQuery{opener: opener}
}

func (q *TestAuthQuery) Query(ctx context.Context, msg TestAuthMessage) (TestAuthResult, error) {
	if q == nil || q.opener == nil {
		return TestAuthResult{}, queryDependencyError("query: module opener is required")
	}
	if err := msg.Validate(); err != nil {
		return TestAuthResult{}, err
	}
	module, err := q.opener.OpenModule(ctx, msg.Module, msg.loadRequest())
	if err != nil {
		return TestAuthResult{}, err
	}
	return TestAuthResult{
		Module:        module.Name(),
		UserID:        module.UserID(),
		CredentialID:  module.CredentialID(),
		Authenticated: module.TestAuth(ctx),
	}, nil
}

type ListModulesQuery struct {
	registry *core.ModuleRegistry
}

func NewListModulesQuery(registry *core.ModuleRegistry) *ListModulesQuery {
	return &ListModulesQuery{registry: registry}
}

// Query lists registered modules sorted by name.
func (q *ListModulesQuery) Query(_ context.Context, _ ListModulesMessage) ([]ModuleSummary, error) {
	if q == nil || q.registry == nil {
		return nil, queryDependencyError("query: module registry is required")
	}
	prefixes := q.registry.Prefixes()
	names := q.registry.Names()
	out := make([]ModuleSummary, 0, len(names))
	for _, name := range names {
		out = append(out, ModuleSummary{Name: name, EnvPrefix: prefixes[name]})
	}
	return out, nil
}
