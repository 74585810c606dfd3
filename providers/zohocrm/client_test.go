package zohocrm

import (
	"context"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/lunchpaillola/api-module-library/core"
	"github.com/lunchpaillola/api-module-library/providers/devkit"
)

func newTestClient(t *testing.T, scripts ...devkit.TransportScript) (*Client, *devkit.FakeTransportAdapter) {
	t.Helper()
	fake := devkit.NewFakeTransportAdapter("rest", scripts...)
	client, err := New(Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		Scope:        "ZohoCRM.users.ALL,ZohoCRM.org.ALL",
		RedirectURI:  "https://host.test/zoho-crm",
		AccessToken:  "access-1",
		Transport:    fake,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, fake
}

func TestAuthorizationURI_RequestsOfflineAccess(t *testing.T) {
	client, _ := newTestClient(t)
	parsed, err := url.Parse(client.AuthorizationURI("s1"))
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if parsed.Host != "accounts.zoho.com" || parsed.Path != "/oauth/v2/auth" {
		t.Fatalf("unexpected authorize endpoint %s", parsed)
	}
	query := parsed.Query()
	if query.Get("access_type") != "offline" || query.Get("scope") != "ZohoCRM.users.ALL,ZohoCRM.org.ALL" {
		t.Fatalf("unexpected query %v", query)
	}
}

func TestGetTokenFromCode_SendsMultipartForm(t *testing.T) {
	client, fake := newTestClient(t, devkit.JSONScript(200, `{"access_token":"a2","refresh_token":"r2","expires_in":3600}`))

	if _, err := client.GetTokenFromCode(context.Background(), "code-1"); err != nil {
		t.Fatalf("get token: %v", err)
	}
	req, _ := fake.LastRequest()
	if req.URL != TokenURL {
		t.Fatalf("unexpected token url %s", req.URL)
	}
	mediaType, params, err := mime.ParseMediaType(req.Headers["Content-Type"])
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("expected multipart content type, got %q (%v)", req.Headers["Content-Type"], err)
	}
	form, err := multipart.NewReader(strings.NewReader(string(req.Body)), params["boundary"]).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read multipart form: %v", err)
	}
	want := map[string]string{
		"grant_type":    "authorization_code",
		"client_id":     "cid",
		"client_secret": "secret",
		"redirect_uri":  "https://host.test/zoho-crm",
		"scope":         "ZohoCRM.users.ALL,ZohoCRM.org.ALL",
		"code":          "code-1",
	}
	for key, value := range want {
		if got := form.Value[key]; len(got) != 1 || got[0] != value {
			t.Fatalf("expected field %s=%q, got %v", key, value, got)
		}
	}
	header, _ := client.Tokens().AuthorizationHeader()
	if header != "Zoho-oauthtoken a2" {
		t.Fatalf("unexpected authorization header %q", header)
	}
}

func TestResourceEndpoints(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	cases := []struct {
		call   func() error
		method string
		url    string
	}{
		{func() error { _, err := client.ListUsers(ctx, nil); return err }, http.MethodGet, BaseURL + "/users"},
		{func() error { _, err := client.GetUser(ctx, "u1"); return err }, http.MethodGet, BaseURL + "/users/u1"},
		{func() error { _, err := client.CreateUser(ctx, map[string]any{"users": []any{}}); return err }, http.MethodPost, BaseURL + "/users"},
		{func() error { _, err := client.UpdateUser(ctx, "u1", map[string]any{"users": []any{}}); return err }, http.MethodPut, BaseURL + "/users/u1"},
		{func() error { _, err := client.DeleteUser(ctx, "u1"); return err }, http.MethodDelete, BaseURL + "/users/u1"},
		{func() error { _, err := client.GetOrganization(ctx); return err }, http.MethodGet, BaseURL + "/org"},
		{func() error { _, err := client.ListRoles(ctx); return err }, http.MethodGet, BaseURL + "/settings/roles"},
		{func() error { _, err := client.GetRole(ctx, "r1"); return err }, http.MethodGet, BaseURL + "/settings/roles/r1"},
		{func() error { _, err := client.CreateRole(ctx, map[string]any{"roles": []any{}}); return err }, http.MethodPost, BaseURL + "/settings/roles"},
		{func() error { _, err := client.UpdateRole(ctx, "r1", map[string]any{"roles": []any{}}); return err }, http.MethodPut, BaseURL + "/settings/roles/r1"},
		{func() error { _, err := client.ListProfiles(ctx); return err }, http.MethodGet, BaseURL + "/settings/profiles"},
	}
	for _, tc := range cases {
		if err := tc.call(); err != nil {
			t.Fatalf("%s %s: %v", tc.method, tc.url, err)
		}
		req, _ := fake.LastRequest()
		if req.Method != tc.method || req.URL != tc.url {
			t.Fatalf("expected %s %s, got %s %s", tc.method, tc.url, req.Method, req.URL)
		}
		if req.Headers["Authorization"] != "Zoho-oauthtoken access-1" {
			t.Fatalf("unexpected auth header %q", req.Headers["Authorization"])
		}
	}
}

func TestDeleteRole_ReturnsVendorBodyUnmodified(t *testing.T) {
	body := `{"roles":[{"code":"SUCCESS","details":{"id":"r1"},"message":"Role deleted","status":"success"}]}`
	client, fake := newTestClient(t, devkit.JSONScript(200, body))

	res, err := client.DeleteRole(context.Background(), "r1", map[string]string{"transfer_to_id": "r0"})
	if err != nil {
		t.Fatalf("delete role: %v", err)
	}
	if string(res.Body) != body {
		t.Fatalf("expected body unmodified, got %s", res.Body)
	}
	req, _ := fake.LastRequest()
	if req.Method != http.MethodDelete || req.URL != BaseURL+"/settings/roles/r1" || req.Query["transfer_to_id"] != "r0" {
		t.Fatalf("unexpected request %s %s %#v", req.Method, req.URL, req.Query)
	}
}

func TestDefinition_CurrentUserIdentity(t *testing.T) {
	def := NewDefinition()
	if def.Prefix() != "ZOHO_CRM" {
		t.Fatalf("unexpected prefix %q", def.Prefix())
	}
	fake := devkit.NewFakeTransportAdapter("rest", devkit.JSONScript(200, `{"users":[{"id":"42","email":"owner@example.test"}]}`))
	api, err := def.NewAPI(core.APIParams{Properties: map[string]string{"access_token": "stored"}, Transport: fake})
	if err != nil {
		t.Fatalf("new api: %v", err)
	}
	details, err := def.Auth.GetEntityDetails(context.Background(), api, core.CallbackParams{}, "user-1")
	if err != nil {
		t.Fatalf("entity details: %v", err)
	}
	if details.Identifiers.ExternalID != "42" || details.Details["name"] != "owner@example.test" {
		t.Fatalf("unexpected details %#v", details)
	}
	req, _ := fake.LastRequest()
	if req.Query["type"] != "CurrentUser" {
		t.Fatalf("expected current user filter, got %#v", req.Query)
	}

	empty := devkit.NewFakeTransportAdapter("rest", devkit.JSONScript(200, `{"users":[]}`))
	api, _ = def.NewAPI(core.APIParams{Transport: empty})
	if _, err := def.Auth.GetCredentialDetails(context.Background(), api, "user-1"); err == nil {
		t.Fatalf("expected error when no current user is returned")
	}
}
