package miro

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/lunchpaillola/api-module-library/core"
	"github.com/lunchpaillola/api-module-library/providers"
)

const (
	ModuleName = "miro"
	BaseURL    = "https://api.miro.com"
	AuthURL    = "https://miro.com/oauth/authorize"
	TokenURL   = "https://api.miro.com/v1/oauth/token"
)

const (
	pathBoards     = "/v2/boards"
	pathMembers    = "/members"
	pathOAuthToken = "/v1/oauth-token"
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

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ClientID, validation.Required),
		validation.Field(&c.ClientSecret, validation.Required),
		validation.Field(&c.RedirectURI, validation.Required),
	)
}

type Client struct {
	*providers.OAuth2Requester
	baseURL string
}

// New requires client id, secret and redirect uri; Miro's token exchange
// sends all three on the query string.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, core.ValidationFailed("miro: missing required parameters: client_id, client_secret, redirect_uri", err)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = BaseURL
	}
	if strings.TrimSpace(cfg.AuthURL) == "" {
		cfg.AuthURL = AuthURL
	}
	if strings.TrimSpace(cfg.TokenURL) == "" {
		cfg.TokenURL = TokenURL
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
			TokenEncoding:         providers.TokenEncodingQuery,
			AccessToken:           cfg.AccessToken,
			RefreshToken:          cfg.RefreshToken,
			RefreshOnUnauthorized: cfg.RefreshOnUnauthorized,
			Transport:             cfg.Transport,
			Logger:                cfg.Logger,
		}),
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
	}, nil
}

func (c *Client) CreateBoard(ctx context.Context, body any) (core.Response, error) {
	return c.Post(ctx, providers.JoinURL(c.baseURL, pathBoards), body)
}

func (c *Client) GetBoards(ctx context.Context, query map[string]string) (core.Response, error) {
	return c.Get(ctx, providers.JoinURL(c.baseURL, pathBoards), query)
}

func (c *Client) GetBoard(ctx context.Context, boardID string) (core.Response, error) {
	if err := providers.RequireID(ModuleName, "board id", boardID); err != nil {
		return core.Response{}, err
	}
	return c.Get(ctx, providers.JoinURL(c.baseURL, pathBoards, boardID), nil)
}

func (c *Client) UpdateBoard(ctx context.Context, boardID string, body any) (core.Response, error) {
	if err := providers.RequireID(ModuleName, "board id", boardID); err != nil {
		return core.Response{}, err
	}
	return c.Patch(ctx, providers.JoinURL(c.baseURL, pathBoards, boardID), body)
}

func (c *Client) DeleteBoard(ctx context.Context, boardID string) (core.Response, error) {
	if err := providers.RequireID(ModuleName, "board id", boardID); err != nil {
		return core.Response{}, err
	}
	return c.Delete(ctx, providers.JoinURL(c.baseURL, pathBoards, boardID), nil)
}

func (c *Client) GetAllBoardMembers(ctx context.Context, boardID string, query map[string]string) (core.Response, error) {
	if err := providers.RequireID(ModuleName, "board id", boardID); err != nil {
		return core.Response{}, err
	}
	return c.Get(ctx, providers.JoinURL(c.baseURL, pathBoards, boardID)+pathMembers, query)
}

type NamedRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TokenContext is the decoded GET /v1/oauth-token payload.
type TokenContext struct {
	Type         string   `json:"type"`
	Scopes       []string `json:"scopes"`
	Team         NamedRef `json:"team"`
	User         NamedRef `json:"user"`
	Organization NamedRef `json:"organization"`
}

func (c *Client) GetAccessTokenContext(ctx context.Context) (core.Response, error) {
	return c.Get(ctx, providers.JoinURL(c.baseURL, pathOAuthToken), nil)
}

func (c *Client) TokenContext(ctx context.Context) (TokenContext, error) {
	res, err := c.GetAccessTokenContext(ctx)
	if err != nil {
		return TokenContext{}, err
	}
	out := TokenContext{}
	if err := res.Decode(&out); err != nil {
		return TokenContext{}, err
	}
	return out, nil
}
