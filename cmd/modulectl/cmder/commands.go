package cmder

import (
	"errors"
	"fmt"
	"strings"

	gocmd "github.com/goliatone/go-command"
	"github.com/spf13/cobra"

	modulecommand "github.com/lunchpaillola/api-module-library/command"
	"github.com/lunchpaillola/api-module-library/core"
	modulequery "github.com/lunchpaillola/api-module-library/query"
)

func newModulesCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List registered modules and their environment prefixes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtime, done, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			summaries, err := runtime.Facade.Queries().ListModules.Query(cmd.Context(), modulequery.ListModulesMessage{})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, summary := range summaries {
				fmt.Fprintf(out, "%s\t%s\n", summary.Name, summary.EnvPrefix)
			}
			return nil
		},
	}
}

func newAuthURLCmd(s *session) *cobra.Command {
	var userID string
	var state string

	cmd := &cobra.Command{
		Use:   "auth-url <module>",
		Short: "Print the URL a user visits to authorize a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, done, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			requirements, err := runtime.Facade.Queries().AuthorizationRequirements.Query(cmd.Context(), modulequery.AuthorizationRequirementsMessage{
				Module: args[0],
				UserID: userID,
				State:  state,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, requirements.URL)
			if requirements.State != "" {
				fmt.Fprintf(out, "state: %s\n", requirements.State)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User the authorization is for")
	cmd.Flags().StringVar(&state, "state", "", "OAuth state to embed; generated when empty")
	return cmd
}

// States printed by auth-url are verified by exchange when the database is
// shared; with --db-dsn= they only live for one invocation.
func newExchangeCmd(s *session) *cobra.Command {
	var userID string
	var state string
	var params map[string]string

	cmd := &cobra.Command{
		Use:   "exchange <module>",
		Short: "Exchange callback parameters for a stored credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(params) == 0 {
				return errors.New("at least one --param is required (for example --param code=XYZ)")
			}
			runtime, done, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			collector := gocmd.NewResult[core.AuthorizationResult]()
			ctx := gocmd.ContextWithResult(cmd.Context(), collector)
			err = runtime.Facade.Commands().ProcessCallback.Execute(ctx, modulecommand.ProcessCallbackMessage{
				Target: modulecommand.Target{Module: args[0], UserID: userID},
				Params: core.CallbackParams{State: state, Data: params},
			})
			if err != nil {
				return err
			}
			result, ok := collector.Load()
			if !ok {
				return errors.New("authorization finished without a result")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "credential_id: %s\n", result.CredentialID)
			fmt.Fprintf(out, "entity_id: %s\n", result.EntityID)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User the credential belongs to")
	cmd.Flags().StringVar(&state, "state", "", "State returned to the redirect URI, as printed by auth-url")
	cmd.Flags().StringToStringVar(&params, "param", nil, "Callback parameter as key=value (repeatable)")
	return cmd
}

type targetFlags struct {
	entityID     string
	credentialID string
}

func (f *targetFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.entityID, "entity", "", "Stored entity id")
	cmd.Flags().StringVar(&f.credentialID, "credential", "", "Stored credential id")
}

func (f *targetFlags) target(module string) modulecommand.Target {
	return modulecommand.Target{
		Module:       module,
		EntityID:     strings.TrimSpace(f.entityID),
		CredentialID: strings.TrimSpace(f.credentialID),
	}
}

func newTestAuthCmd(s *session) *cobra.Command {
	flags := &targetFlags{}
	cmd := &cobra.Command{
		Use:   "test-auth <module>",
		Short: "Check that a stored credential still authenticates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, done, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			target := flags.target(args[0])
			status, err := runtime.Facade.Queries().TestAuth.Query(cmd.Context(), modulequery.TestAuthMessage{
				Module:       target.Module,
				EntityID:     target.EntityID,
				CredentialID: target.CredentialID,
			})
			if err != nil {
				return err
			}
			if !status.Authenticated {
				return fmt.Errorf("%s credential %s is not valid", status.Module, status.CredentialID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s credential %s is valid\n", status.Module, status.CredentialID)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func newRefreshCmd(s *session) *cobra.Command {
	flags := &targetFlags{}
	cmd := &cobra.Command{
		Use:   "refresh <module>",
		Short: "Refresh the access token of a stored credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, done, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if err := runtime.Facade.Commands().Refresh.Execute(cmd.Context(), modulecommand.RefreshMessage{Target: flags.target(args[0])}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "refreshed")
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func newDeauthorizeCmd(s *session) *cobra.Command {
	flags := &targetFlags{}
	cmd := &cobra.Command{
		Use:   "deauthorize <module>",
		Short: "Remove a stored credential and unlink its entities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, done, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if err := runtime.Facade.Commands().Deauthorize.Execute(cmd.Context(), modulecommand.DeauthorizeMessage{Target: flags.target(args[0])}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deauthorized")
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}
