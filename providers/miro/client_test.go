package miro

import (
	"context"
	"net/http"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/lunchpaillola/api-module-library/core"
	"github.com/lunchpaillola/api-module-library/providers/devkit"
)

func newTestClient(t *testing.T, scripts ...devkit.TransportScript) (*Client, *devkit.FakeTransportAdapter) {
	t.Helper()
	fake := devkit.NewFakeTransportAdapter("rest", scripts...)
	client, err := New(Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURI:  "https://host.test/miro",
		AccessToken:  "access-1",
		Transport:    fake,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, fake
}

func TestNew_RequiresClientCredentials(t *testing.T) {
	_, err := New(Config{ClientID: "cid"})
	if err == nil {
		t.Fatalf("expected error for missing secret and redirect")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || len(richErr.AllValidationErrors()) != 2 {
		t.Fatalf("expected two field errors, got %v", err)
	}
}

func TestAuthorizationURI_UsesMiroAuthorizeEndpoint(t *testing.T) {
	client, _ := newTestClient(t)
	uri := client.AuthorizationURI("state-1")
	if !strings.HasPrefix(uri, AuthURL+"?") {
		t.Fatalf("unexpected authorize url %s", uri)
	}
	for _, part := range []string{"client_id=cid", "response_type=code", "state=state-1"} {
		if !strings.Contains(uri, part) {
			t.Fatalf("expected %q in %s", part, uri)
		}
	}
}

func TestGetTokenFromCode_SendsParametersInQuery(t *testing.T) {
	client, fake := newTestClient(t, devkit.JSONScript(200, `{"access_token":"a2","refresh_token":"r2","token_type":"bearer"}`))

	if _, err := client.GetTokenFromCode(context.Background(), "code-1"); err != nil {
		t.Fatalf("get token: %v", err)
	}
	req, _ := fake.LastRequest()
	if req.Method != http.MethodPost || req.URL != TokenURL {
		t.Fatalf("unexpected token request %s %s", req.Method, req.URL)
	}
	if len(req.Body) != 0 {
		t.Fatalf("expected empty body, got %s", req.Body)
	}
	want := map[string]string{
		"grant_type":    "authorization_code",
		"code":          "code-1",
		"client_id":     "cid",
		"client_secret": "secret",
		"redirect_uri":  "https://host.test/miro",
	}
	for key, value := range want {
		if req.Query[key] != value {
			t.Fatalf("expected query %s=%q, got %#v", key, value, req.Query)
		}
	}
	if client.Tokens().AccessToken() != "a2" || client.Tokens().RefreshToken() != "r2" {
		t.Fatalf("expected tokens replaced")
	}
}

func TestBoardEndpoints(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	cases := []struct {
		call   func() error
		method string
		url    string
	}{
		{func() error { _, err := client.CreateBoard(ctx, map[string]any{"name": "b"}); return err }, http.MethodPost, BaseURL + "/v2/boards"},
		{func() error { _, err := client.GetBoards(ctx, map[string]string{"limit": "10"}); return err }, http.MethodGet, BaseURL + "/v2/boards"},
		{func() error { _, err := client.GetBoard(ctx, "b1"); return err }, http.MethodGet, BaseURL + "/v2/boards/b1"},
		{func() error { _, err := client.UpdateBoard(ctx, "b1", map[string]any{"name": "c"}); return err }, http.MethodPatch, BaseURL + "/v2/boards/b1"},
		{func() error { _, err := client.DeleteBoard(ctx, "b1"); return err }, http.MethodDelete, BaseURL + "/v2/boards/b1"},
		{func() error { _, err := client.GetAllBoardMembers(ctx, "b1", nil); return err }, http.MethodGet, BaseURL + "/v2/boards/b1/members"},
		{func() error { _, err := client.GetAccessTokenContext(ctx); return err }, http.MethodGet, BaseURL + "/v1/oauth-token"},
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
	if _, err := client.GetBoards(ctx, map[string]string{"limit": "10"}); err != nil {
		t.Fatalf("get boards: %v", err)
	}
	req, _ := fake.LastRequest()
	if req.Query["limit"] != "10" {
		t.Fatalf("expected query passthrough, got %#v", req.Query)
	}

	before := len(fake.Requests())
	if _, err := client.GetAllBoardMembers(ctx, "", nil); err == nil {
		t.Fatalf("expected empty board id rejected")
	}
	if len(fake.Requests()) != before {
		t.Fatalf("expected no request for empty board id")
	}
}

func TestVerbFailuresCarryRequestFailedMessage(t *testing.T) {
	client, _ := newTestClient(t, devkit.JSONScript(404, `{"message":"not found"}`))

	_, err := client.GetBoard(context.Background(), "missing")
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected rich error, got %v", err)
	}
	if richErr.Message != "GET request failed" || richErr.Category != goerrors.CategoryNotFound {
		t.Fatalf("unexpected error %q (%s)", richErr.Message, richErr.Category)
	}
}

func TestDefinition_EntityFromTokenContext(t *testing.T) {
	def := NewDefinition()
	fake := devkit.NewFakeTransportAdapter("rest", devkit.JSONScript(200, `{
		"type":"user",
		"user":{"id":"u-9","name":"Grace"},
		"organization":{"id":"o-1","name":"Acme"}
	}`))
	api, err := def.NewAPI(core.APIParams{
		Config:     core.ModuleConfig{ClientID: "cid", ClientSecret: "secret", RedirectURI: "https://host.test/miro"},
		Properties: map[string]string{"access_token": "stored"},
		Transport:  fake,
	})
	if err != nil {
		t.Fatalf("new api: %v", err)
	}
	details, err := def.Auth.GetEntityDetails(context.Background(), api, core.CallbackParams{}, "user-1")
	if err != nil {
		t.Fatalf("entity details: %v", err)
	}
	if details.Identifiers.ExternalID != "u-9" {
		t.Fatalf("unexpected external id %q", details.Identifiers.ExternalID)
	}
	if details.Details["organizationName"] != "Acme" || details.Details["userName"] != "Grace" {
		t.Fatalf("unexpected details %#v", details.Details)
	}

	if _, err := def.NewAPI(core.APIParams{}); err == nil {
		t.Fatalf("expected missing config rejected")
	}
}
