package zoom

import (
	"context"
	"strings"

	"github.com/lunchpaillola/api-module-library/core"
	"github.com/lunchpaillola/api-module-library/providers"
)

const (
	ModuleName = "zoom"
	BaseURL    = "https://api.zoom.us/v2"
	AuthURL    = "https://zoom.us/oauth/authorize"
	TokenURL   = "https://zoom.us/oauth/token"
)

const (
	pathUsers    = "/users"
	pathMe       = "/users/me"
	pathMeetings = "/meetings"
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

// Client wraps the Zoom v2 API. Token requests authenticate the client with
// HTTP Basic.
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
	return &Client{
		OAuth2Requester: providers.NewOAuth2Requester(providers.OAuth2Config{
			Module:                ModuleName,
			AuthURL:               cfg.AuthURL,
			TokenURL:              cfg.TokenURL,
			ClientID:              cfg.ClientID,
			ClientSecret:          cfg.ClientSecret,
			RedirectURI:           cfg.RedirectURI,
			Scope:                 cfg.Scope,
			TokenEncoding:         providers.TokenEncodingForm,
			ClientAuth:            providers.ClientAuthBasic,
			AccessToken:           cfg.AccessToken,
			RefreshToken:          cfg.RefreshToken,
			RefreshOnUnauthorized: cfg.RefreshOnUnauthorized,
			Transport:             cfg.Transport,
			Logger:                cfg.Logger,
		}),
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
	}, nil
}

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AccountID string `json:"account_id"`
}

func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (c *Client) GetCurrentUser(ctx context.Context) (core.Response, error) {
	return c.Get(ctx, providers.JoinURL(c.baseURL, pathMe), nil)
}

func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	res, err := c.GetCurrentUser(ctx)
	if err != nil {
		return User{}, err
	}
	user := User{}
	if err := res.Decode(&user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (c *Client) ListUsers(ctx context.Context, query map[string]string) (core.Response, error) {
	return c.Get(ctx, providers.JoinURL(c.baseURL, pathUsers), query)
}

// ListMeetings lists meetings hosted by userID; "me" is accepted.
func (c *Client) ListMeetings(ctx context.Context, userID string, query map[string]string) (core.Response, error) {
	if err := providers.RequireID(ModuleName, "user id", userID); err != nil {
		return core.Response{}, err
	}
	return c.Get(ctx, providers.JoinURL(c.baseURL, pathUsers, userID)+pathMeetings, query)
}

func (c *Client) CreateMeeting(ctx context.Context, userID string, body any) (core.Response, error) {
	if err := providers.RequireID(ModuleName, "user id", userID); err != nil {
		return core.Response{}, err
	}
	return c.Post(ctx, providers.JoinURL(c.baseURL, pathUsers, userID)+pathMeetings, body)
}

func (c *Client) GetMeeting(ctx context.Context, meetingID string) (core.Response, error) {
	if err := providers.RequireID(ModuleName, "meeting id", meetingID); err != nil {
		return core.Response{}, err
	}
	return c.Get(ctx, providers.JoinURL(c.baseURL, pathMeetings, meetingID), nil)
}

func (c *Client) UpdateMeeting(ctx context.Context, meetingID string, body any) (core.Response, error) {
	if err := providers.RequireID(ModuleName, "meeting id", meetingID); err != nil {
		return core.Response{}, err
	}
	return c.Patch(ctx, providers.JoinURL(c.baseURL, pathMeetings, meetingID), body)
}

func (c *Client) DeleteMeeting(ctx context.Context, meetingID string) (core.Response, error) {
	if err := providers.RequireID(ModuleName, "meeting id", meetingID); err != nil {
		return core.Response{}, err
	}
	return c.Delete(ctx, providers.JoinURL(c.baseURL, pathMeetings, meetingID), nil)
}
