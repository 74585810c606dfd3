package unbabel

import (
	"context"
	"fmt"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/lunchpaillola/api-module-library/core"
	"github.com/lunchpaillola/api-module-library/providers"
)

const (
	ModuleName = "unbabel-projects"
	APIHost    = "https://api.unbabel.com/projects/v0"
	TokenURL   = "https://iam.unbabel.com/auth/realms/production/protocol/openid-connect/token"
)

const (
	pathExtensions = "/projects:supported-extensions"
	pathProjects   = "/projects"
	pathFiles      = "/files"
	pathOrders     = "/orders"
	pathJobs       = "/jobs"
)

type Config struct {
	ClientID     string
	CustomerID   string
	Username     string
	APIHost      string
	TokenURL     string
	AccessToken  string
	RefreshToken string
	// RefreshOnUnauthorized defaults to on for Unbabel; set DisableRefresh
	// to turn it off.
	DisableRefresh bool
	Transport      core.TransportAdapter
	Logger         core.Logger
}

// Client wraps the Unbabel Projects API. There is no consent screen: tokens
// come from the password grant and the base URL is scoped to a customer.
type Client struct {
	*providers.OAuth2Requester
	host string

	mu         sync.RWMutex
	customerID string
	username   string
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIHost) == "" {
		cfg.APIHost = APIHost
	}
	if strings.TrimSpace(cfg.TokenURL) == "" {
		cfg.TokenURL = TokenURL
	}
	return &Client{
		OAuth2Requester: providers.NewOAuth2Requester(providers.OAuth2Config{
			Module:                ModuleName,
			TokenURL:              cfg.TokenURL,
			ClientID:              cfg.ClientID,
			TokenEncoding:         providers.TokenEncodingForm,
			AccessToken:           cfg.AccessToken,
			RefreshToken:          cfg.RefreshToken,
			RefreshOnUnauthorized: !cfg.DisableRefresh,
			Transport:             cfg.Transport,
			Logger:                cfg.Logger,
		}),
		host:       strings.TrimRight(strings.TrimSpace(cfg.APIHost), "/"),
		customerID: strings.TrimSpace(cfg.CustomerID),
		username:   strings.TrimSpace(cfg.Username),
	}, nil
}

// BaseURL is derived from the current customer id on every call.
func (c *Client) BaseURL() string {
	return fmt.Sprintf("%s/customers/%s/", c.host, c.CustomerID())
}

func (c *Client) CustomerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.customerID
}

func (c *Client) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

// Properties adds the customer scope to the persisted token pair.
func (c *Client) Properties() map[string]string {
	out := c.OAuth2Requester.Properties()
	out["client_id"] = c.ClientID()
	out["customer_id"] = c.CustomerID()
	out["username"] = c.Username()
	return out
}

type Login struct {
	ClientID   string
	CustomerID string
	Username   string
	Password   string
}

func (l Login) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.ClientID, validation.Required),
		validation.Field(&l.CustomerID, validation.Required),
		validation.Field(&l.Username, validation.Required),
		validation.Field(&l.Password, validation.Required),
	)
}

// Authenticate adopts the login's client and customer scope and runs the
// password grant. A failed grant restores the previous scope.
func (c *Client) Authenticate(ctx context.Context, login Login) (core.TokenResponse, error) {
	if err := login.Validate(); err != nil {
		return core.TokenResponse{}, core.ValidationFailed("unbabel: client_id, customer_id, username and password are required", err)
	}
	previousClientID := c.ClientID()
	c.mu.Lock()
	previousCustomerID, previousUsername := c.customerID, c.username
	c.customerID = strings.TrimSpace(login.CustomerID)
	c.username = strings.TrimSpace(login.Username)
	c.mu.Unlock()
	c.SetClientID(login.ClientID)

	tokens, err := c.GetTokenFromPassword(ctx, login.Username, login.Password)
	if err != nil {
		c.SetClientID(previousClientID)
		c.mu.Lock()
		c.customerID, c.username = previousCustomerID, previousUsername
		c.mu.Unlock()
		return core.TokenResponse{}, err
	}
	return tokens, nil
}

type TokenIdentity struct {
	Identifier string
	Name       string
}

func (c *Client) GetTokenIdentity() TokenIdentity {
	return TokenIdentity{
		Identifier: fmt.Sprintf("%s:%s:%s", c.ClientID(), c.CustomerID(), c.Username()),
		Name:       c.Username(),
	}
}

func (c *Client) GetSupportedExtensions(ctx context.Context) (core.Response, error) {
	base, err := c.scopedBase()
	if err != nil {
		return core.Response{}, err
	}
	return c.Get(ctx, base+pathExtensions, nil)
}

func (c *Client) ListProjects(ctx context.Context, query map[string]string) (core.Response, error) {
	base, err := c.scopedBase()
	if err != nil {
		return core.Response{}, err
	}
	return c.Get(ctx, base+pathProjects, query)
}

func (c *Client) CreateProject(ctx context.Context, body any) (core.Response, error) {
	base, err := c.scopedBase()
	if err != nil {
		return core.Response{}, err
	}
	return c.Post(ctx, base+pathProjects, body)
}

func (c *Client) GetProject(ctx context.Context, projectID string) (core.Response, error) {
	base, err := c.scopedBase(idArg{"project id", projectID})
	if err != nil {
		return core.Response{}, err
	}
	return c.Get(ctx, providers.JoinURL(base, pathProjects, projectID), nil)
}

func (c *Client) ListProjectFiles(ctx context.Context, projectID string, query map[string]string) (core.Response, error) {
	base, err := c.scopedBase(idArg{"project id", projectID})
	if err != nil {
		return core.Response{}, err
	}
	return c.Get(ctx, providers.JoinURL(base, pathProjects, projectID)+pathFiles, query)
}

func (c *Client) GetProjectFile(ctx context.Context, projectID string, fileID string) (core.Response, error) {
	base, err := c.scopedBase(idArg{"project id", projectID}, idArg{"file id", fileID})
	if err != nil {
		return core.Response{}, err
	}
	return c.Get(ctx, providers.JoinURL(providers.JoinURL(base, pathProjects, projectID), pathFiles, fileID), nil)
}

func (c *Client) ListProjectOrders(ctx context.Context, projectID string, query map[string]string) (core.Response, error) {
	base, err := c.scopedBase(idArg{"project id", projectID})
	if err != nil {
		return core.Response{}, err
	}
	return c.Get(ctx, providers.JoinURL(base, pathProjects, projectID)+pathOrders, query)
}

func (c *Client) GetProjectOrder(ctx context.Context, projectID string, orderID string) (core.Response, error) {
	base, err := c.scopedBase(idArg{"project id", projectID}, idArg{"order id", orderID})
	if err != nil {
		return core.Response{}, err
	}
	return c.Get(ctx, orderURL(base, projectID, orderID), nil)
}

func (c *Client) ListOrderJobs(ctx context.Context, projectID string, orderID string, query map[string]string) (core.Response, error) {
	base, err := c.scopedBase(idArg{"project id", projectID}, idArg{"order id", orderID})
	if err != nil {
		return core.Response{}, err
	}
	return c.Get(ctx, orderURL(base, projectID, orderID)+pathJobs, query)
}

func (c *Client) GetOrderJob(ctx context.Context, projectID string, orderID string, jobID string) (core.Response, error) {
	base, err := c.scopedBase(idArg{"project id", projectID}, idArg{"order id", orderID}, idArg{"job id", jobID})
	if err != nil {
		return core.Response{}, err
	}
	return c.Get(ctx, providers.JoinURL(orderURL(base, projectID, orderID), pathJobs, jobID), nil)
}

type idArg struct {
	name  string
	value string
}

// scopedBase returns the customer base URL without its trailing slash after
// checking the customer id and every path id is present.
func (c *Client) scopedBase(ids ...idArg) (string, error) {
	if err := providers.RequireID(ModuleName, "customer id", c.CustomerID()); err != nil {
		return "", err
	}
	for _, id := range ids {
		if err := providers.RequireID(ModuleName, id.name, id.value); err != nil {
			return "", err
		}
	}
	return strings.TrimRight(c.BaseURL(), "/"), nil
}

func orderURL(base string, projectID string, orderID string) string {
	return providers.JoinURL(providers.JoinURL(base, pathProjects, projectID), pathOrders, orderID)
}
