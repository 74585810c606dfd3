package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lunchpaillola/api-module-library/core"
	"github.com/lunchpaillola/api-module-library/transport"
	"golang.org/x/oauth2"
)

// TokenEncoding selects how token endpoint parameters travel.
type TokenEncoding string

const (
	TokenEncodingJSON      TokenEncoding = "json"
	TokenEncodingForm      TokenEncoding = "form"
	TokenEncodingMultipart TokenEncoding = "multipart"
	TokenEncodingQuery     TokenEncoding = "query"
)

type ClientAuthStyle string

const (
	ClientAuthInBody ClientAuthStyle = "body"
	ClientAuthBasic  ClientAuthStyle = "basic"
)

const (
	defaultTokenRequestTimeout = 30 * time.Second
	maxTokenResponseBodyBytes  = 1 << 20 // 1 MiB
)

type OAuth2Config struct {
	Module       string
	AuthURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scope        string
	// AuthParams are appended to the authorization URL, e.g. access_type.
	AuthParams map[string]string
	// TokenParams are added to every token request.
	TokenParams   map[string]string
	TokenEncoding TokenEncoding
	ClientAuth    ClientAuthStyle
	HeaderScheme  string

	AccessToken  string
	RefreshToken string

	// RefreshOnUnauthorized refreshes once and replays once on a 401.
	RefreshOnUnauthorized bool
	TokenRequestTimeout   time.Duration

	Transport core.TransportAdapter
	Logger    core.Logger
}

// OAuth2Requester is the OAuth2 capability every vendor client composes.
type OAuth2Requester struct {
	mu        sync.RWMutex
	cfg       OAuth2Config
	oauth     oauth2.Config
	tokens    *core.TokenManager
	transport core.TransportAdapter
	logger    core.Logger
}

// Request is one vendor call. Headers override the JSON and token headers.
type Request struct {
	Method  string
	URL     string
	Query   map[string]string
	Body    any
	Headers map[string]string
}

func NewOAuth2Requester(cfg OAuth2Config) *OAuth2Requester {
	cfg.Module = strings.TrimSpace(cfg.Module)
	cfg.AuthURL = strings.TrimSpace(cfg.AuthURL)
	cfg.TokenURL = strings.TrimSpace(cfg.TokenURL)
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.ClientSecret = strings.TrimSpace(cfg.ClientSecret)
	cfg.RedirectURI = strings.TrimSpace(cfg.RedirectURI)
	cfg.Scope = strings.TrimSpace(cfg.Scope)
	if cfg.TokenEncoding == "" {
		cfg.TokenEncoding = TokenEncodingForm
	}
	if cfg.ClientAuth == "" {
		cfg.ClientAuth = ClientAuthInBody
	}
	if cfg.TokenRequestTimeout <= 0 {
		cfg.TokenRequestTimeout = defaultTokenRequestTimeout
	}
	adapter := cfg.Transport
	if adapter == nil {
		adapter = transport.NewRESTAdapter(nil)
	}

	oauthConfig := oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AuthURL,
			TokenURL: cfg.TokenURL,
		},
	}
	if cfg.Scope != "" {
		// vendors disagree on separators, so the scope string is sent verbatim
		oauthConfig.Scopes = []string{cfg.Scope}
	}

	return &OAuth2Requester{
		cfg:   cfg,
		oauth: oauthConfig,
		tokens: core.NewTokenManager(core.TokenManagerOptions{
			HeaderScheme: cfg.HeaderScheme,
			AccessToken:  cfg.AccessToken,
			RefreshToken: cfg.RefreshToken,
		}),
		transport: adapter,
		logger:    core.ResolveLogger("providers."+cfg.Module, nil, cfg.Logger),
	}
}

func (r *OAuth2Requester) Tokens() *core.TokenManager {
	return r.tokens
}

func (r *OAuth2Requester) Module() string {
	return r.cfg.Module
}

func (r *OAuth2Requester) ClientID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg.ClientID
}

// SetClientID replaces the client id for modules whose client id is only
// known at callback time.
func (r *OAuth2Requester) SetClientID(clientID string) {
	clientID = strings.TrimSpace(clientID)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.ClientID = clientID
	r.oauth.ClientID = clientID
}

func (r *OAuth2Requester) RedirectURI() string {
	return r.cfg.RedirectURI
}

// Properties returns the token pair in its persisted form.
func (r *OAuth2Requester) Properties() map[string]string {
	snapshot := r.tokens.Snapshot()
	return map[string]string{
		"access_token":  snapshot.AccessToken,
		"refresh_token": snapshot.RefreshToken,
	}
}

// AuthorizationURI builds the consent URL without any network call. An
// empty state is omitted.
func (r *OAuth2Requester) AuthorizationURI(state string) string {
	if r.cfg.AuthURL == "" {
		return ""
	}
	options := make([]oauth2.AuthCodeOption, 0, len(r.cfg.AuthParams))
	for _, key := range sortedKeys(r.cfg.AuthParams) {
		options = append(options, oauth2.SetAuthURLParam(key, r.cfg.AuthParams[key]))
	}
	r.mu.RLock()
	oauthConfig := r.oauth
	r.mu.RUnlock()
	return oauthConfig.AuthCodeURL(strings.TrimSpace(state), options...)
}

func (r *OAuth2Requester) GetTokenFromCode(ctx context.Context, code string) (core.TokenResponse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return core.TokenResponse{}, core.BadInput("authorization code is required", map[string]any{"module": r.cfg.Module})
	}
	fields := map[string]string{
		"grant_type": "authorization_code",
		"code":       code,
	}
	if r.cfg.RedirectURI != "" {
		fields["redirect_uri"] = r.cfg.RedirectURI
	}
	payload, err := r.requestToken(ctx, fields)
	if err != nil {
		return core.TokenResponse{}, err
	}
	tokens := payload.tokenResponse()
	if err := r.tokens.SetTokens(ctx, tokens); err != nil {
		return core.TokenResponse{}, err
	}
	return tokens, nil
}

// RefreshAccessToken exchanges the stored refresh token. A failed refresh
// deauthorizes the token manager.
func (r *OAuth2Requester) RefreshAccessToken(ctx context.Context) (core.TokenResponse, error) {
	refresh := r.tokens.RefreshToken()
	if refresh == "" {
		return core.TokenResponse{}, core.BadInput("refresh token is required", map[string]any{"module": r.cfg.Module})
	}
	fields := map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refresh,
	}
	if r.cfg.RedirectURI != "" {
		fields["redirect_uri"] = r.cfg.RedirectURI
	}
	payload, err := r.requestToken(ctx, fields)
	if err != nil {
		if deauthErr := r.tokens.Deauthorize(ctx); deauthErr != nil {
			r.log(ctx, "warn", "deauthorize after refresh failure", map[string]any{"error": deauthErr.Error()})
		}
		return core.TokenResponse{}, err
	}
	tokens := payload.tokenResponse()
	if err := r.tokens.SetTokens(ctx, tokens); err != nil {
		return core.TokenResponse{}, err
	}
	return tokens, nil
}

// GetTokenFromPassword runs the resource owner password grant.
func (r *OAuth2Requester) GetTokenFromPassword(ctx context.Context, username string, password string) (core.TokenResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return core.TokenResponse{}, core.BadInput("username and password are required", map[string]any{"module": r.cfg.Module})
	}
	payload, err := r.requestToken(ctx, map[string]string{
		"grant_type": "password",
		"username":   username,
		"password":   password,
	})
	if err != nil {
		r.tokens.MarkInvalid(ctx)
		return core.TokenResponse{}, err
	}
	tokens := payload.tokenResponse()
	if err := r.tokens.SetTokens(ctx, tokens); err != nil {
		return core.TokenResponse{}, err
	}
	return tokens, nil
}

func (r *OAuth2Requester) Get(ctx context.Context, url string, query map[string]string) (core.Response, error) {
	return r.Do(ctx, Request{Method: http.MethodGet, URL: url, Query: query})
}

func (r *OAuth2Requester) Post(ctx context.Context, url string, body any) (core.Response, error) {
	return r.Do(ctx, Request{Method: http.MethodPost, URL: url, Body: body})
}

func (r *OAuth2Requester) Put(ctx context.Context, url string, body any) (core.Response, error) {
	return r.Do(ctx, Request{Method: http.MethodPut, URL: url, Body: body})
}

func (r *OAuth2Requester) Patch(ctx context.Context, url string, body any) (core.Response, error) {
	return r.Do(ctx, Request{Method: http.MethodPatch, URL: url, Body: body})
}

func (r *OAuth2Requester) Delete(ctx context.Context, url string, query map[string]string) (core.Response, error) {
	return r.Do(ctx, Request{Method: http.MethodDelete, URL: url, Query: query})
}

// Do is the single boundary every vendor call passes through.
func (r *OAuth2Requester) Do(ctx context.Context, req Request) (core.Response, error) {
	return r.do(ctx, req, r.cfg.RefreshOnUnauthorized)
}

func (r *OAuth2Requester) do(ctx context.Context, req Request, allowRefresh bool) (core.Response, error) {
	if r == nil {
		return core.Response{}, fmt.Errorf("providers: oauth2 requester is nil")
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	body, _, err := transport.EncodeJSON(req.Body)
	if err != nil {
		return core.Response{}, err
	}
	tokenHeaders := map[string]string{}
	if header, ok := r.tokens.AuthorizationHeader(); ok {
		tokenHeaders["Authorization"] = header
	}

	startedAt := time.Now()
	res, err := r.transport.Do(ctx, core.TransportRequest{
		Method:  method,
		URL:     req.URL,
		Query:   req.Query,
		Headers: mergeHeaders(jsonHeaders(), tokenHeaders, req.Headers),
		Body:    body,
	})
	fields := map[string]any{
		"module":      r.cfg.Module,
		"method":      method,
		"url":         req.URL,
		"duration_ms": time.Since(startedAt).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
		r.log(ctx, "error", "vendor request failed", fields)
		return core.Response{}, core.RequestTransportFailed(err, method, req.URL)
	}
	fields["status_code"] = res.StatusCode

	if res.StatusCode == http.StatusUnauthorized {
		_ = r.tokens.MarkExpired()
		if allowRefresh && r.tokens.RefreshToken() != "" {
			r.log(ctx, "debug", "refreshing after unauthorized response", fields)
			if _, refreshErr := r.RefreshAccessToken(ctx); refreshErr == nil {
				return r.do(ctx, req, false)
			}
		}
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		r.log(ctx, "error", "vendor request failed", fields)
		return core.Response{}, core.RequestFailed(method, req.URL, res.StatusCode, res.Body)
	}
	r.log(ctx, "debug", "vendor request", fields)
	return core.Response{
		StatusCode: res.StatusCode,
		Headers:    res.Headers,
		Body:       json.RawMessage(res.Body),
	}, nil
}

func (r *OAuth2Requester) requestToken(ctx context.Context, fields map[string]string) (tokenEndpointPayload, error) {
	metadata := map[string]any{"module": r.cfg.Module, "grant_type": fields["grant_type"]}
	if r.cfg.TokenURL == "" {
		return tokenEndpointPayload{}, core.AuthFailed(nil, "token url is not configured", metadata)
	}
	for key, value := range r.cfg.TokenParams {
		if _, exists := fields[key]; !exists {
			fields[key] = value
		}
	}
	headers := map[string]string{"Accept": transport.ContentTypeJSON}
	switch r.cfg.ClientAuth {
	case ClientAuthBasic:
		credentials := base64.StdEncoding.EncodeToString([]byte(r.ClientID() + ":" + r.cfg.ClientSecret))
		headers["Authorization"] = "Basic " + credentials
	default:
		fields["client_id"] = r.ClientID()
		if r.cfg.ClientSecret != "" {
			fields["client_secret"] = r.cfg.ClientSecret
		}
	}

	req := core.TransportRequest{
		Method:               http.MethodPost,
		URL:                  r.cfg.TokenURL,
		Headers:              headers,
		Timeout:              r.cfg.TokenRequestTimeout,
		MaxResponseBodyBytes: maxTokenResponseBodyBytes,
	}
	switch r.cfg.TokenEncoding {
	case TokenEncodingJSON:
		body, contentType, err := transport.EncodeJSON(fields)
		if err != nil {
			return tokenEndpointPayload{}, err
		}
		req.Body, headers["Content-Type"] = body, contentType
	case TokenEncodingMultipart:
		body, contentType, err := transport.EncodeMultipart(fields)
		if err != nil {
			return tokenEndpointPayload{}, err
		}
		req.Body, headers["Content-Type"] = body, contentType
	case TokenEncodingQuery:
		req.Query = fields
	default:
		body, contentType := transport.EncodeForm(fields)
		req.Body, headers["Content-Type"] = body, contentType
	}

	res, err := r.transport.Do(ctx, req)
	if err != nil {
		r.log(ctx, "error", "token request failed", map[string]any{"module": r.cfg.Module, "error": err.Error()})
		return tokenEndpointPayload{}, core.AuthFailed(err, "token request failed", metadata)
	}
	metadata["status_code"] = res.StatusCode
	payload, parseErr := parseTokenPayload(res.Body, res.Headers["Content-Type"])
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		if parseErr == nil {
			metadata["reason"] = describeTokenError(payload)
		}
		r.log(ctx, "error", "token endpoint rejected the request", metadata)
		return tokenEndpointPayload{}, core.AuthFailed(nil, fmt.Sprintf("token endpoint rejected the request (%d)", res.StatusCode), metadata)
	}
	if parseErr != nil {
		return tokenEndpointPayload{}, core.AuthFailed(parseErr, "decode token response", metadata)
	}
	if payload.ErrorCode != "" {
		metadata["reason"] = describeTokenError(payload)
		return tokenEndpointPayload{}, core.AuthFailed(nil, "token endpoint returned an error", metadata)
	}
	if payload.AccessToken == "" {
		return tokenEndpointPayload{}, core.AuthFailed(nil, "token response missing access token", metadata)
	}
	return payload, nil
}

func (r *OAuth2Requester) log(ctx context.Context, level core.LogLevel, message string, fields map[string]any) {
	core.LogWithLevel(ctx, r.logger, level, message, fields)
}
