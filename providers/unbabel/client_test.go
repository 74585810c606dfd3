package unbabel

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/lunchpaillola/api-module-library/core"
	"github.com/lunchpaillola/api-module-library/providers/devkit"
)

const customerBase = "https://api.unbabel.com/projects/v0/customers/c-1"

func TestBaseURL_FollowsCustomerID(t *testing.T) {
	client, err := New(Config{CustomerID: "c-1"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.BaseURL() != customerBase+"/" {
		t.Fatalf("unexpected base url %s", client.BaseURL())
	}
	if client.AuthorizationURI("s") != "" {
		t.Fatalf("expected no authorization url for password grant module")
	}
	if _, err := New(Config{}); err != nil {
		t.Fatalf("expected lazy customer id, got %v", err)
	}
}

func TestAuthenticate_PasswordGrantFormAndIdentity(t *testing.T) {
	fake := devkit.NewFakeTransportAdapter("rest", devkit.JSONScript(200, `{"access_token":"a1","refresh_token":"r1","expires_in":300}`))
	client, _ := New(Config{Transport: fake})

	if _, err := client.Authenticate(context.Background(), Login{
		ClientID:   "cid",
		CustomerID: "c-1",
		Username:   "translator",
		Password:   "pw",
	}); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	req, _ := fake.LastRequest()
	if req.Method != http.MethodPost || req.URL != TokenURL {
		t.Fatalf("unexpected token request %s %s", req.Method, req.URL)
	}
	if req.Headers["Content-Type"] != "application/x-www-form-urlencoded" {
		t.Fatalf("expected form encoding, got %q", req.Headers["Content-Type"])
	}
	form, err := url.ParseQuery(string(req.Body))
	if err != nil {
		t.Fatalf("parse form: %v", err)
	}
	for key, value := range map[string]string{"grant_type": "password", "client_id": "cid", "username": "translator", "password": "pw"} {
		if form.Get(key) != value {
			t.Fatalf("expected %s=%q, got %q", key, value, form.Get(key))
		}
	}

	identity := client.GetTokenIdentity()
	if identity.Identifier != "cid:c-1:translator" || identity.Name != "translator" {
		t.Fatalf("unexpected identity %#v", identity)
	}
	props := client.Properties()
	if props["access_token"] != "a1" || props["customer_id"] != "c-1" || props["username"] != "translator" {
		t.Fatalf("unexpected properties %#v", props)
	}
}

func TestAuthenticate_RejectsIncompleteLogin(t *testing.T) {
	fake := devkit.NewFakeTransportAdapter("rest")
	client, _ := New(Config{Transport: fake})
	if _, err := client.Authenticate(context.Background(), Login{ClientID: "cid", Username: "u"}); err == nil {
		t.Fatalf("expected validation error")
	}
	if len(fake.Requests()) != 0 {
		t.Fatalf("expected no token request")
	}
}

func TestAuthenticate_FailureMarksInvalid(t *testing.T) {
	fake := devkit.NewFakeTransportAdapter("rest", devkit.JSONScript(401, `{"error":"invalid_grant"}`))
	client, _ := New(Config{Transport: fake})
	events := []core.TokenEvent{}
	client.Tokens().Subscribe(core.TokenObserverFunc(func(_ context.Context, event core.TokenEvent, _ core.TokenSnapshot) {
		events = append(events, event)
	}))

	_, err := client.Authenticate(context.Background(), Login{ClientID: "cid", CustomerID: "c-1", Username: "u", Password: "bad"})
	if err == nil {
		t.Fatalf("expected auth failure")
	}
	if len(events) != 1 || events[0] != core.TokenEventInvalidAuth {
		t.Fatalf("expected invalid auth event, got %v", events)
	}
}

func TestAuthenticate_FailureKeepsPreviousScope(t *testing.T) {
	fake := devkit.NewFakeTransportAdapter("rest", devkit.JSONScript(401, `{"error":"invalid_grant"}`))
	client, _ := New(Config{
		ClientID:     "c0",
		CustomerID:   "cust-0",
		Username:     "old",
		AccessToken:  "a",
		RefreshToken: "r",
		Transport:    fake,
	})

	_, err := client.Authenticate(context.Background(), Login{ClientID: "c1", CustomerID: "cust-1", Username: "new", Password: "bad"})
	if err == nil {
		t.Fatalf("expected auth failure")
	}
	if client.CustomerID() != "cust-0" || client.Username() != "old" || client.ClientID() != "c0" {
		t.Fatalf("expected previous scope kept, got customer=%s user=%s client=%s", client.CustomerID(), client.Username(), client.ClientID())
	}
	if client.BaseURL() != "https://api.unbabel.com/projects/v0/customers/cust-0/" {
		t.Fatalf("unexpected base url %s", client.BaseURL())
	}
	properties := client.Properties()
	if properties["customer_id"] != "cust-0" || properties["client_id"] != "c0" || properties["username"] != "old" {
		t.Fatalf("unexpected properties %#v", properties)
	}
	req, _ := fake.LastRequest()
	form, err := url.ParseQuery(string(req.Body))
	if err != nil || form.Get("client_id") != "c1" {
		t.Fatalf("expected grant sent with the new client id, got %s", req.Body)
	}
}

func TestResourceEndpoints(t *testing.T) {
	fake := devkit.NewFakeTransportAdapter("rest")
	client, _ := New(Config{CustomerID: "c-1", AccessToken: "a1", Transport: fake})
	ctx := context.Background()

	cases := []struct {
		call   func() error
		method string
		url    string
	}{
		{func() error { _, err := client.GetSupportedExtensions(ctx); return err }, http.MethodGet, customerBase + "/projects:supported-extensions"},
		{func() error { _, err := client.ListProjects(ctx, nil); return err }, http.MethodGet, customerBase + "/projects"},
		{func() error { _, err := client.CreateProject(ctx, map[string]any{"name": "p"}); return err }, http.MethodPost, customerBase + "/projects"},
		{func() error { _, err := client.GetProject(ctx, "p1"); return err }, http.MethodGet, customerBase + "/projects/p1"},
		{func() error { _, err := client.ListProjectFiles(ctx, "p1", nil); return err }, http.MethodGet, customerBase + "/projects/p1/files"},
		{func() error { _, err := client.GetProjectFile(ctx, "p1", "f1"); return err }, http.MethodGet, customerBase + "/projects/p1/files/f1"},
		{func() error { _, err := client.ListProjectOrders(ctx, "p1", nil); return err }, http.MethodGet, customerBase + "/projects/p1/orders"},
		{func() error { _, err := client.GetProjectOrder(ctx, "p1", "o1"); return err }, http.MethodGet, customerBase + "/projects/p1/orders/o1"},
		{func() error { _, err := client.ListOrderJobs(ctx, "p1", "o1", nil); return err }, http.MethodGet, customerBase + "/projects/p1/orders/o1/jobs"},
		{func() error { _, err := client.GetOrderJob(ctx, "p1", "o1", "j1"); return err }, http.MethodGet, customerBase + "/projects/p1/orders/o1/jobs/j1"},
	}
	for _, tc := range cases {
		if err := tc.call(); err != nil {
			t.Fatalf("%s %s: %v", tc.method, tc.url, err)
		}
		req, _ := fake.LastRequest()
		if req.Method != tc.method || req.URL != tc.url {
			t.Fatalf("expected %s %s, got %s %s", tc.method, tc.url, req.Method, req.URL)
		}
	}

	before := len(fake.Requests())
	if _, err := client.GetOrderJob(ctx, "p1", "", "j1"); err == nil {
		t.Fatalf("expected empty order id rejected")
	}
	unscoped, _ := New(Config{Transport: fake})
	if _, err := unscoped.ListProjects(ctx, nil); err == nil {
		t.Fatalf("expected missing customer id rejected")
	}
	if len(fake.Requests()) != before {
		t.Fatalf("expected no requests for rejected calls")
	}
}

func TestUnauthorizedCallRefreshesAndReplays(t *testing.T) {
	fake := devkit.NewFakeTransportAdapter("rest",
		devkit.JSONScript(401, `{"error":"expired"}`),
		devkit.JSONScript(200, `{"access_token":"fresh","refresh_token":"r2"}`),
		devkit.JSONScript(200, `{"extensions":["docx"]}`),
	)
	client, _ := New(Config{ClientID: "cid", CustomerID: "c-1", AccessToken: "stale", RefreshToken: "r1", Transport: fake})

	res, err := client.GetSupportedExtensions(context.Background())
	if err != nil {
		t.Fatalf("expected replay to succeed, got %v", err)
	}
	if string(res.Body) != `{"extensions":["docx"]}` {
		t.Fatalf("unexpected body %s", res.Body)
	}
	requests := fake.Requests()
	if len(requests) != 3 {
		t.Fatalf("expected call, refresh, replay; got %d requests", len(requests))
	}
	if requests[2].Headers["Authorization"] != "Bearer fresh" {
		t.Fatalf("expected replay with fresh token, got %q", requests[2].Headers["Authorization"])
	}
	if client.Tokens().State() != core.AuthStateAuthenticated {
		t.Fatalf("unexpected state %s", client.Tokens().State())
	}
}

func TestDefinition_CallbackDrivesManager(t *testing.T) {
	def := NewDefinition()
	fake := devkit.NewFakeTransportAdapter("rest", devkit.JSONScript(200, `{"access_token":"a1","refresh_token":"r1"}`))
	credentials := core.NewMemoryCredentialStore()
	entities := core.NewMemoryEntityStore()
	deps := core.ManagerDeps{Credentials: credentials, Entities: entities, Transport: fake}

	manager, err := core.NewManager(context.Background(), def, deps, core.LoadRequest{UserID: "user-1"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	requirements, err := manager.AuthorizationRequirements(context.Background(), "")
	if err != nil {
		t.Fatalf("requirements: %v", err)
	}
	if requirements.Type != core.AuthTypeOAuth2 || requirements.URL != "" {
		t.Fatalf("unexpected requirements %#v", requirements)
	}

	params := core.CallbackParams{Data: map[string]string{
		"client_id":   "cid",
		"customer_id": "c-1",
		"username":    "translator",
		"password":    "pw",
	}}
	first, err := manager.ProcessAuthorizationCallback(context.Background(), params)
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	second, err := manager.ProcessAuthorizationCallback(context.Background(), params)
	if err != nil {
		t.Fatalf("second callback: %v", err)
	}
	if first != second {
		t.Fatalf("expected idempotent callback, got %#v and %#v", first, second)
	}

	credential, err := credentials.Get(context.Background(), first.CredentialID)
	if err != nil {
		t.Fatalf("get credential: %v", err)
	}
	if credential.ExternalID != "cid:c-1:translator" || credential.Properties["customer_id"] != "c-1" {
		t.Fatalf("unexpected credential %#v", credential)
	}

	reloaded, err := core.NewManager(context.Background(), def, deps, core.LoadRequest{UserID: "user-1", EntityID: first.EntityID})
	if err != nil {
		t.Fatalf("reload manager: %v", err)
	}
	if reloaded.API().CustomerID() != "c-1" || reloaded.API().Tokens().AccessToken() != "a1" {
		t.Fatalf("expected api rebuilt from credential properties")
	}
}
