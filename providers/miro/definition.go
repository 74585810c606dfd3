package miro

import (
	"context"

	"github.com/lunchpaillola/api-module-library/core"
)

func NewDefinition() core.Definition[*Client] {
	return core.Definition[*Client]{
		Name:      ModuleName,
		ModelName: "Miro",
		EnvPrefix: "MIRO",
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
				tokenCtx, err := api.TokenContext(ctx)
				if err != nil {
					return core.IdentityDetails{}, err
				}
				return core.IdentityDetails{
					Identifiers: core.Identifiers{ExternalID: tokenCtx.User.ID, UserID: userID},
					Details: map[string]any{
						"userName":         tokenCtx.User.Name,
						"organizationName": tokenCtx.Organization.Name,
						"organizationId":   tokenCtx.Organization.ID,
					},
				}, nil
			},
			GetCredentialDetails: func(ctx context.Context, api *Client, userID string) (core.IdentityDetails, error) {
				tokenCtx, err := api.TokenContext(ctx)
				if err != nil {
					return core.IdentityDetails{}, err
				}
				return core.IdentityDetails{
					Identifiers: core.Identifiers{ExternalID: tokenCtx.User.ID, UserID: userID},
					Details:     map[string]any{},
				}, nil
			},
			PropertiesToPersist: core.PersistedProperties{
				Credential: []string{"access_token", "refresh_token"},
			},
			TestAuthRequest: func(ctx context.Context, api *Client) error {
				_, err := api.GetAccessTokenContext(ctx)
				return err
			},
		},
	}
}
