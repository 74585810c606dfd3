package zohocrm

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/lunchpaillola/api-module-library/core"
	"github.com/lunchpaillola/api-module-library/providers"
)

const (
	ModuleName = "zoho-crm"
	BaseURL    = "https://www.zohoapis.com/crm/v6"
	AuthURL    = "https://accounts.zoho.com/oauth/v2/auth"
	TokenURL   = "https://accounts.zoho.com/oauth/v2/token"
)

const (
	pathUsers        = "/users"
	pathOrganization = "/org"
	pathRoles        = "/settings/roles"
	pathProfiles     = "/settings/profiles"
)

type Config struct {
	ClientID              string
	ClientSecret          string
	Scope                 string
	RedirectURI           string
	BaseURL               string
	AuthURL               string
	TokenURL              string
	AccessToken           string
	RefreshToken          string
	RefreshOnUnauthorized bool
	Transport             core.TransportAdapter
	Logger                core.Logger
}

// Client wraps the Zoho CRM v6 API. Request bodies are sent as given; callers
// supply the {"users": [...]} or {"roles": [...]} wrapper themselves.
type Client struct {
	*providers.OAuth2Requester
	baseURL string
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = BaseURL
	}
	if strings.TrimSpace(cfg.AuthURL) == "" {
		cfg.AuthURL = AuthURL
	}
	if strings.TrimSpace(cfg.TokenURL) == "" {
		cfg.TokenURL = TokenURL
	}
	tokenParams := map[string]string{}
	if cfg.Scope != "" {
		tokenParams["scope"] = cfg.Scope
	}
	return &Client{
		OAuth2Requester: providers.NewOAuth2Requester(providers.OAuth2Config{
			Module:                ModuleName,
			AuthURL:               cfg.AuthURL,
			TokenURL:              cfg.TokenURL,
			ClientID:              cfg.ClientID,
			ClientSecret:          cfg.ClientSecret,
			RedirectURI:           cfg.RedirectURI,
			Scope:                 cfg.Scope,
			AuthParams:            map[string]string{"access_type": "offline"},
			TokenParams:           tokenParams,
			TokenEncoding:         providers.TokenEncodingMultipart,
			HeaderScheme:          core.AuthHeaderZohoOAuthToken,
			AccessToken:           cfg.AccessToken,
			RefreshToken:          cfg.RefreshToken,
			RefreshOnUnauthorized: cfg.RefreshOnUnauthorized,
			Transport:             cfg.Transport,
			Logger:                cfg.Logger,
		}),
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
	}, nil
}

func (c *Client) ListUsers(ctx context.Context, query map[string]string) (core.Response, error) {
	return c.Get(ctx, providers.JoinURL(c.baseURL, pathUsers), query)
}

func (c *Client) GetUser(ctx context.Context, userID string) (core.Response, error) {
	if err := providers.RequireID(ModuleName, "user id", userID); err != nil {
		return core.Response{}, err
	}
	return c.Get(ctx, providers.JoinURL(c.baseURL, pathUsers, userID), nil)
}

func (c *Client) CreateUser(ctx context.Context, body any) (core.Response, error) {
	return c.Post(ctx, providers.JoinURL(c.baseURL, pathUsers), body)
}

func (c *Client) UpdateUser(ctx context.Context, userID string, body any) (core.Response, error) {
	if err := providers.RequireID(ModuleName, "user id", userID); err != nil {
		return core.Response{}, err
	}
	return c.Put(ctx, providers.JoinURL(c.baseURL, pathUsers, userID), body)
}

func (c *Client) DeleteUser(ctx context.Context, userID string) (core.Response, error) {
	if err := providers.RequireID(ModuleName, "user id", userID); err != nil {
		return core.Response{}, err
	}
	return c.Delete(ctx, providers.JoinURL(c.baseURL, pathUsers, userID), nil)
}

func (c *Client) GetOrganization(ctx context.Context) (core.Response, error) {
	return c.Get(ctx, providers.JoinURL(c.baseURL, pathOrganization), nil)
}

func (c *Client) ListRoles(ctx context.Context) (core.Response, error) {
	return c.Get(ctx, providers.JoinURL(c.baseURL, pathRoles), nil)
}

func (c *Client) GetRole(ctx context.Context, roleID string) (core.Response, error) {
	if err := providers.RequireID(ModuleName, "role id", roleID); err != nil {
		return core.Response{}, err
	}
	return c.Get(ctx, providers.JoinURL(c.baseURL, pathRoles, roleID), nil)
}

func (c *Client) CreateRole(ctx context.Context, body any) (core.Response, error) {
	return c.Post(ctx, providers.JoinURL(c.baseURL, pathRoles), body)
}

func (c *Client) UpdateRole(ctx context.Context, roleID string, body any) (core.Response, error) {
	if err := providers.RequireID(ModuleName, "role id", roleID); err != nil {
		return core.Response{}, err
	}
	return c.Put(ctx, providers.JoinURL(c.baseURL, pathRoles, roleID), body)
}

// DeleteRole removes a role. Zoho requires transfer_to_id in query naming
// the role that inherits its users.
func (c *Client) DeleteRole(ctx context.Context, roleID string, query map[string]string) (core.Response, error) {
	if err := providers.RequireID(ModuleName, "role id", roleID); err != nil {
		return core.Response{}, err
	}
	return c.Delete(ctx, providers.JoinURL(c.baseURL, pathRoles, roleID), query)
}

func (c *Client) ListProfiles(ctx context.Context) (core.Response, error) {
	return c.Get(ctx, providers.JoinURL(c.baseURL, pathProfiles), nil)
}

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CurrentUser returns the first user from ListUsers with type=CurrentUser.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	res, err := c.ListUsers(ctx, map[string]string{"type": "CurrentUser"})
	if err != nil {
		return User{}, err
	}
	payload := struct {
		Users []User `json:"users"`
	}{}
	if err := res.Decode(&payload); err != nil {
		return User{}, err
	}
	if len(payload.Users) == 0 {
		return User{}, goerrors.New("zoho-crm: current user not returned", goerrors.CategoryNotFound).
			WithTextCode(core.ModuleErrorNotFound)
	}
	return payload.Users[0], nil
}
