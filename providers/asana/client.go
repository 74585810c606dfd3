package asana

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/lunchpaillola/api-module-library/core"
	"github.com/lunchpaillola/api-module-library/providers"
)

const (
	ModuleName = "asana"
	BaseURL    = "https://app.asana.com/api/1.0"
	AuthURL    = "https://app.asana.com/-/oauth_authorize"
	TokenURL   = "https://app.asana.com/-/oauth_token"
)

const (
	pathUserInfo = "/openid_connect/userinfo"
	pathProjects = "/projects"
	pathStories  = "/stories"
	pathTags     = "/tags"
	pathTasks    = "/tasks"
	pathUsers    = "/users"
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

func DefaultConfig() Config {
	return Config{
		BaseURL:  BaseURL,
		AuthURL:  AuthURL,
		TokenURL: TokenURL,
	}
}

// Client wraps the Asana REST API. Create and update bodies are sent inside
// the {"data": ...} envelope Asana requires.
type Client struct {
	*providers.OAuth2Requester
	baseURL string
}

func New(cfg Config) (*Client, error) {
	defaults := DefaultConfig()
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if strings.TrimSpace(cfg.AuthURL) == "" {
		cfg.AuthURL = defaults.AuthURL
	}
	if strings.TrimSpace(cfg.TokenURL) == "" {
		cfg.TokenURL = defaults.TokenURL
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
			TokenEncoding:         providers.TokenEncodingJSON,
			AccessToken:           cfg.AccessToken,
			RefreshToken:          cfg.RefreshToken,
			RefreshOnUnauthorized: cfg.RefreshOnUnauthorized,
			Transport:             cfg.Transport,
			Logger:                cfg.Logger,
		}),
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type UserInfo struct {
	Sub   string `json:"sub"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (c *Client) GetUserDetails(ctx context.Context) (core.Response, error) {
	return c.Get(ctx, providers.JoinURL(c.baseURL, pathUserInfo), nil)
}

// UserInfo decodes GetUserDetails.
func (c *Client) UserInfo(ctx context.Context) (UserInfo, error) {
	res, err := c.GetUserDetails(ctx)
	if err != nil {
		return UserInfo{}, err
	}
	info := UserInfo{}
	if err := res.Decode(&info); err != nil {
		return UserInfo{}, err
	}
	return info, nil
}

func (c *Client) ListProjects(ctx context.Context, query map[string]string) (core.Response, error) {
	return c.list(ctx, pathProjects, query)
}

func (c *Client) GetProjectByID(ctx context.Context, id string) (core.Response, error) {
	return c.getByID(ctx, pathProjects, "project id", id)
}

func (c *Client) CreateProject(ctx context.Context, body any) (core.Response, error) {
	return c.create(ctx, pathProjects, body)
}

func (c *Client) UpdateProject(ctx context.Context, id string, body any) (core.Response, error) {
	return c.update(ctx, pathProjects, "project id", id, body)
}

func (c *Client) DeleteProject(ctx context.Context, id string) (core.Response, error) {
	return c.remove(ctx, pathProjects, "project id", id)
}

func (c *Client) ListStories(ctx context.Context, query map[string]string) (core.Response, error) {
	return c.list(ctx, pathStories, query)
}

func (c *Client) GetStoryByID(ctx context.Context, id string) (core.Response, error) {
	return c.getByID(ctx, pathStories, "story id", id)
}

func (c *Client) CreateStory(ctx context.Context, body any) (core.Response, error) {
	return c.create(ctx, pathStories, body)
}

func (c *Client) UpdateStory(ctx context.Context, id string, body any) (core.Response, error) {
	return c.update(ctx, pathStories, "story id", id, body)
}

func (c *Client) DeleteStory(ctx context.Context, id string) (core.Response, error) {
	return c.remove(ctx, pathStories, "story id", id)
}

func (c *Client) ListTags(ctx context.Context, query map[string]string) (core.Response, error) {
	return c.list(ctx, pathTags, query)
}

func (c *Client) GetTagByID(ctx context.Context, id string) (core.Response, error) {
	return c.getByID(ctx, pathTags, "tag id", id)
}

func (c *Client) CreateTag(ctx context.Context, body any) (core.Response, error) {
	return c.create(ctx, pathTags, body)
}

func (c *Client) UpdateTag(ctx context.Context, id string, body any) (core.Response, error) {
	return c.update(ctx, pathTags, "tag id", id, body)
}

func (c *Client) DeleteTag(ctx context.Context, id string) (core.Response, error) {
	return c.remove(ctx, pathTags, "tag id", id)
}

type ListTasksParams struct {
	WorkspaceID string
	AssigneeID  string
}

func (p ListTasksParams) normalized() ListTasksParams {
	return ListTasksParams{
		WorkspaceID: strings.TrimSpace(p.WorkspaceID),
		AssigneeID:  strings.TrimSpace(p.AssigneeID),
	}
}

// Validate rejects missing and blank ids.
func (p ListTasksParams) Validate() error {
	p = p.normalized()
	return validation.ValidateStruct(&p,
		validation.Field(&p.WorkspaceID, validation.Required),
		validation.Field(&p.AssigneeID, validation.Required),
	)
}

// ListTasks requires both a workspace and an assignee; Asana rejects task
// listing without them.
func (c *Client) ListTasks(ctx context.Context, params ListTasksParams) (core.Response, error) {
	if err := params.Validate(); err != nil {
		return core.Response{}, core.ValidationFailed("asana: list tasks requires workspace and assignee", err)
	}
	params = params.normalized()
	return c.list(ctx, pathTasks, map[string]string{
		"workspace": params.WorkspaceID,
		"assignee":  params.AssigneeID,
	})
}

func (c *Client) GetTaskByID(ctx context.Context, id string) (core.Response, error) {
	return c.getByID(ctx, pathTasks, "task id", id)
}

func (c *Client) CreateTask(ctx context.Context, body any) (core.Response, error) {
	return c.create(ctx, pathTasks, body)
}

func (c *Client) UpdateTask(ctx context.Context, id string, body any) (core.Response, error) {
	return c.update(ctx, pathTasks, "task id", id, body)
}

func (c *Client) DeleteTask(ctx context.Context, id string) (core.Response, error) {
	return c.remove(ctx, pathTasks, "task id", id)
}

func (c *Client) ListUsers(ctx context.Context, query map[string]string) (core.Response, error) {
	return c.list(ctx, pathUsers, query)
}

func (c *Client) GetUserByID(ctx context.Context, id string) (core.Response, error) {
	return c.getByID(ctx, pathUsers, "user id", id)
}

func (c *Client) CreateUser(ctx context.Context, body any) (core.Response, error) {
	return c.create(ctx, pathUsers, body)
}

func (c *Client) UpdateUser(ctx context.Context, id string, body any) (core.Response, error) {
	return c.update(ctx, pathUsers, "user id", id, body)
}

func (c *Client) DeleteUser(ctx context.Context, id string) (core.Response, error) {
	return c.remove(ctx, pathUsers, "user id", id)
}

func (c *Client) list(ctx context.Context, path string, query map[string]string) (core.Response, error) {
	return c.Get(ctx, providers.JoinURL(c.baseURL, path), query)
}

func (c *Client) getByID(ctx context.Context, path string, field string, id string) (core.Response, error) {
	if err := providers.RequireID(ModuleName, field, id); err != nil {
		return core.Response{}, err
	}
	return c.Get(ctx, providers.JoinURL(c.baseURL, path, id), nil)
}

func (c *Client) create(ctx context.Context, path string, body any) (core.Response, error) {
	return c.Post(ctx, providers.JoinURL(c.baseURL, path), providers.Envelope("data", body))
}

func (c *Client) update(ctx context.Context, path string, field string, id string, body any) (core.Response, error) {
	if err := providers.RequireID(ModuleName, field, id); err != nil {
		return core.Response{}, err
	}
	return c.Put(ctx, providers.JoinURL(c.baseURL, path, id), providers.Envelope("data", body))
}

func (c *Client) remove(ctx context.Context, path string, field string, id string) (core.Response, error) {
	if err := providers.RequireID(ModuleName, field, id); err != nil {
		return core.Response{}, err
	}
	return c.Delete(ctx, providers.JoinURL(c.baseURL, path, id), nil)
}
