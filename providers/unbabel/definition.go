package unbabel

import (
	"context"

	"github.com/lunchpaillola/api-module-library/core"
)

// NewDefinition describes the password style Unbabel module. The callback
// form carries client_id, customer_id, username and password.
func NewDefinition() core.Definition[*Client] {
	return core.Definition[*Client]{
		Name:      ModuleName,
		ModelName: "UnbabelProjects",
		EnvPrefix: "UNBABEL_PROJECTS",
		NewAPI: func(params core.APIParams) (*Client, error) {
			clientID := params.Property("client_id")
			if clientID == "" {
				clientID = params.Config.ClientID
			}
			customerID := params.Property("customer_id")
			if customerID == "" {
				customerID = params.Config.Extra["customer_id"]
			}
			return New(Config{
				ClientID:     clientID,
				CustomerID:   customerID,
				Username:     params.Property("username"),
				AccessToken:  params.Property("access_token"),
				RefreshToken: params.Property("refresh_token"),
				Transport:    params.Transport,
				Logger:       params.Logger,
			})
		},
		Auth: core.AuthMethods[*Client]{
			GetToken: func(ctx context.Context, api *Client, params core.CallbackParams) error {
				clientID := params.Get("client_id")
				if clientID == "" {
					clientID = api.ClientID()
				}
				_, err := api.Authenticate(ctx, Login{
					ClientID:   clientID,
					CustomerID: params.Get("customer_id"),
					Username:   params.Get("username"),
					Password:   params.Get("password"),
				})
				return err
			},
			GetEntityDetails: func(_ context.Context, api *Client, _ core.CallbackParams, userID string) (core.IdentityDetails, error) {
				identity := api.GetTokenIdentity()
				return core.IdentityDetails{
					Identifiers: core.Identifiers{ExternalID: identity.Identifier, UserID: userID},
					Details:     map[string]any{"name": identity.Name},
				}, nil
			},
			GetCredentialDetails: func(_ context.Context, api *Client, userID string) (core.IdentityDetails, error) {
				identity := api.GetTokenIdentity()
				return core.IdentityDetails{
					Identifiers: core.Identifiers{ExternalID: identity.Identifier, UserID: userID},
					Details:     map[string]any{},
				}, nil
			},
			PropertiesToPersist: core.PersistedProperties{
				Credential: []string{"access_token", "refresh_token", "client_id", "customer_id", "username"},
			},
			TestAuthRequest: func(ctx context.Context, api *Client) error {
				_, err := api.GetSupportedExtensions(ctx)
				return err
			},
		},
	}
}
