package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

const AuthTypeOAuth2 = "oauth2"

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

// TransportAdapter is the generic HTTP helper every vendor call goes through.
type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

// Response is a vendor response returned without transformation.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       json.RawMessage
}

func (r Response) Decode(target any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("core: response body is empty")
	}
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("core: decode response body: %w", err)
	}
	return nil
}

func (r Response) Map() (map[string]any, error) {
	out := map[string]any{}
	if len(r.Body) == 0 {
		return out, nil
	}
	if err := r.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r Response) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// TokenResponse is the parsed result of a token endpoint call. Raw keeps the
// payload exactly as the vendor returned it.
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresIn    int64
	Raw          map[string]any
}

type Identifiers struct {
	ExternalID string
	UserID     string
}

// IdentityDetails is returned by the entity and credential detail callbacks.
type IdentityDetails struct {
	Identifiers Identifiers
	Details     map[string]any
}

type PersistedProperties struct {
	Credential []string
	Entity     []string
}

// CallbackParams carries what the host received on the OAuth redirect (or,
// for password style modules, the submitted form).
type CallbackParams struct {
	State string
	Data  map[string]string
}

func (p CallbackParams) Get(key string) string {
	if len(p.Data) == 0 {
		return ""
	}
	return p.Data[key]
}

type AuthorizationRequirements struct {
	URL   string
	Type  string
	State string
}

type AuthorizationResult struct {
	CredentialID string
	EntityID     string
	Type         string
}

type CredentialStore interface {
	Create(ctx context.Context, in SaveCredentialInput) (Credential, error)
	Update(ctx context.Context, id string, in SaveCredentialInput) (Credential, error)
	Get(ctx context.Context, id string) (Credential, error)
	Find(ctx context.Context, query CredentialQuery) ([]Credential, error)
	SetAuthValid(ctx context.Context, id string, valid bool) error
	Delete(ctx context.Context, id string) error
}

type EntityStore interface {
	Create(ctx context.Context, in CreateEntityInput) (Entity, error)
	Get(ctx context.Context, id string) (Entity, error)
	Find(ctx context.Context, query EntityQuery) ([]Entity, error)
	FindByCredential(ctx context.Context, credentialID string) ([]Entity, error)
	SetCredential(ctx context.Context, id string, credentialID string) error
}

type OAuthStateStore interface {
	Save(ctx context.Context, record OAuthStateRecord) error
	Consume(ctx context.Context, state string) (OAuthStateRecord, error)
}
