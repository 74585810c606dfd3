package asana

import (
	"context"

	"github.com/lunchpaillola/api-module-library/core"
)

func NewDefinition() core.Definition[*Client] {
	return core.Definition[*Client]{
		Name:      ModuleName,
		ModelName: "Asana",
		EnvPrefix: "ASANA",
		NewAPI: func(params core.APIParams) (*Client, error) {
			return New(Config{
				ClientID:     params.Config.ClientID,
				ClientSecret: params.Config.ClientSecret,
				Scope:        params.Config.Scope,
				RedirectURI:  params.Config.RedirectURI,
				AccessToken:  params.Property("access_token"),
				RefreshToken: params.Property("refresh_token"),
				Transport:    params.Transport,
				Logger:       params.Logger,
			})
		},
		Auth: core.AuthMethods[*Client]{
			GetToken: func(ctx context.Context, api *Client, params core.CallbackParams) error {
				_, err := api.GetTokenFromCode(ctx, params.Get("code"))
				return err
			},
			GetEntityDetails: func(ctx context.Context, api *Client, _ core.CallbackParams, userID string) (core.IdentityDetails, error) {
				info, err := api.UserInfo(ctx)
				if err != nil {
					return core.IdentityDetails{}, err
				}
				return core.IdentityDetails{
					Identifiers: core.Identifiers{ExternalID: info.Sub, UserID: userID},
					Details:     map[string]any{"name": info.Name, "email": info.Email},
				}, nil
			},
			GetCredentialDetails: func(ctx context.Context, api *Client, userID string) (core.IdentityDetails, error) {
				info, err := api.UserInfo(ctx)
				if err != nil {
					return core.IdentityDetails{}, err
				}
				return core.IdentityDetails{
					Identifiers: core.Identifiers{ExternalID: info.Sub, UserID: userID},
					Details:     map[string]any{},
				}, nil
			},
			PropertiesToPersist: core.PersistedProperties{
				Credential: []string{"access_token", "refresh_token"},
				Entity:     []string{},
			},
			TestAuthRequest: func(ctx context.Context, api *Client) error {
				_, err := api.GetUserDetails(ctx)
				return err
			},
		},
	}
}
