package query

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/lunchpaillola/api-module-library/core"
)

type stubModule struct {
	name          string
	authenticated bool
}

func (m stubModule) Name() string         { return m.name }
func (m stubModule) UserID() string       { return "u1" }
func (m stubModule) CredentialID() string { return "cred-1" }
func (m stubModule) EntityID() string     { return "ent-1" }

func (m stubModule) AuthorizationRequirements(_ context.Context, state string) (core.AuthorizationRequirements, error) {
	return core.AuthorizationRequirements{URL: "https://vendor.test/auth?state=" + state, Type: core.AuthTypeOAuth2, State: state}, nil
}

func (m stubModule) ProcessAuthorizationCallback(context.Context, core.CallbackParams) (core.AuthorizationResult, error) {
	return core.AuthorizationResult{}, nil
}

func (m stubModule) TestAuth(context.Context) bool     { return m.authenticated }
func (m stubModule) Refresh(context.Context) error     { return nil }
func (m stubModule) Deauthorize(context.Context) error { return nil }

type stubOpener struct {
	module  core.Module
	err     error
	request core.LoadRequest
}

func (o *stubOpener) OpenModule(_ context.Context, _ string, req core.LoadRequest) (core.Module, error) {
	o.request = req
	if o.err != nil {
		return nil, o.err
	}
	return o.module, nil
}

type stubFactory struct {
	name   string
	prefix string
}

func (f stubFactory) ModuleName() string { return f.name }
func (f stubFactory) Prefix() string     { return f.prefix }

func (f stubFactory) NewModule(context.Context, core.ManagerDeps, core.LoadRequest) (core.Module, error) {
	return stubModule{name: f.name}, nil
}

func TestAuthorizationRequirementsQuery_OpensForUser(t *testing.T) {
	opener := &stubOpener{module: stubModule{name: "asana"}}
	out, err := NewAuthorizationRequirementsQuery(opener).Query(context.Background(), AuthorizationRequirementsMessage{
		Module: "asana",
		UserID: "u1",
		State:  "st",
	})
	if err != nil {
		t.Fatalf("query requirements: %v", err)
	}
	if out.Type != core.AuthTypeOAuth2 || out.URL != "https://vendor.test/auth?state=st" {
		t.Fatalf("unexpected requirements %#v", out)
	}
	if opener.request.UserID != "u1" {
		t.Fatalf("expected user id forwarded, got %#v", opener.request)
	}
}

func TestTestAuthQuery_ReportsModuleState(t *testing.T) {
	opener := &stubOpener{module: stubModule{name: "zoom", authenticated: true}}
	out, err := NewTestAuthQuery(opener).Query(context.Background(), TestAuthMessage{Module: "zoom", EntityID: " ent-1 "})
	if err != nil {
		t.Fatalf("query test auth: %v", err)
	}
	if !out.Authenticated || out.Module != "zoom" || out.CredentialID != "cred-1" {
		t.Fatalf("unexpected test auth result %#v", out)
	}
	if opener.request.EntityID != "ent-1" {
		t.Fatalf("expected trimmed entity id, got %q", opener.request.EntityID)
	}

	boom := errors.New("boom")
	if _, err := NewTestAuthQuery(&stubOpener{err: boom}).Query(context.Background(), TestAuthMessage{Module: "zoom", CredentialID: "c"}); !errors.Is(err, boom) {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestListModulesQuery_SortedSummaries(t *testing.T) {
	registry := core.NewModuleRegistry()
	for _, factory := range []stubFactory{{name: "zoom", prefix: "ZOOM"}, {name: "asana", prefix: "ASANA"}} {
		if err := registry.Register(factory); err != nil {
			t.Fatalf("register %s: %v", factory.name, err)
		}
	}
	out, err := NewListModulesQuery(registry).Query(context.Background(), ListModulesMessage{})
	if err != nil {
		t.Fatalf("list modules: %v", err)
	}
	if len(out) != 2 || out[0].Name != "asana" || out[1].EnvPrefix != "ZOOM" {
		t.Fatalf("unexpected modules %#v", out)
	}
}

func TestMessages_ValidateReturnsRichError(t *testing.T) {
	for name, err := range map[string]error{
		"requirements": (AuthorizationRequirementsMessage{Module: "asana"}).Validate(),
		"test auth":    (TestAuthMessage{Module: "asana"}).Validate(),
	} {
		var rich *goerrors.Error
		if !goerrors.As(err, &rich) {
			t.Fatalf("%s: expected go-errors envelope, got %T", name, err)
		}
		if rich.Category != goerrors.CategoryValidation {
			t.Fatalf("%s: expected validation category, got %q", name, rich.Category)
		}
		if rich.TextCode != core.ModuleErrorBadInput {
			t.Fatalf("%s: expected %q text code, got %q", name, core.ModuleErrorBadInput, rich.TextCode)
		}
	}
}

func TestQueries_NilDependenciesReturnRichError(t *testing.T) {
	var q *TestAuthQuery
	_, err := q.Query(context.Background(), TestAuthMessage{})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal dependency error, got %v", err)
	}
	if _, err := NewListModulesQuery(nil).Query(context.Background(), ListModulesMessage{}); err == nil {
		t.Fatalf("expected registry dependency error")
	}
}
