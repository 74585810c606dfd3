// Package cmder provides the modulectl commands for authorizing and
// inspecting vendor API modules from a terminal.
package cmder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	apimodules "github.com/lunchpaillola/api-module-library"
	"github.com/lunchpaillola/api-module-library/adapters/gologger"
	sqlstore "github.com/lunchpaillola/api-module-library/store/sql"
)

const rootLongDesc string = `Authorize and inspect vendor API modules.

Module credentials are read from <PREFIX>_CLIENT_ID, <PREFIX>_CLIENT_SECRET,
<PREFIX>_SCOPE and <PREFIX>_REDIRECT_URI, where the prefix is listed by
"modulectl modules". REDIRECT_URI sets the base every module redirect is
derived from. Credentials and entities are stored in the database named by
--db-dsn; an empty DSN keeps them in memory for the single invocation.

Examples:
  modulectl modules
  modulectl auth-url zoom --user u1
  modulectl exchange zoom --user u1 --param code=XYZ
  modulectl exchange unbabel-projects --user u1 --param username=me --param password=secret
  modulectl test-auth zoom --entity <entity-id>
  modulectl deauthorize zoom --entity <entity-id>`

const (
	defaultDriver    = sqlstore.DriverSQLite
	defaultDSN       = "file:modulectl.db?_foreign_keys=on"
	envCredentialKey = "MODULECTL_CREDENTIAL_KEY"
)

// SetupFunc builds the runtime a command runs against.
type SetupFunc func(ctx context.Context, options apimodules.SetupOptions) (*apimodules.Runtime, error)

type rootOptions struct {
	envFiles     []string
	driver       string
	dsn          string
	redirectBase string
	sealKey      string
	debug        bool
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(apimodules.Setup)
}

func newRootCmd(setup SetupFunc) *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "modulectl",
		Short:         "Authorize and inspect vendor API modules",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "Dotenv files to load before reading the environment")
	flags.StringVar(&opts.driver, "db-driver", defaultDriver, "Database driver (sqlite3 or postgres)")
	flags.StringVar(&opts.dsn, "db-dsn", defaultDSN, "Database DSN; empty keeps state in memory")
	flags.StringVar(&opts.redirectBase, "redirect-base", "", "Override the redirect base URL")
	flags.StringVar(&opts.sealKey, "credential-key", os.Getenv(envCredentialKey), "Key sealing stored credentials (defaults to $"+envCredentialKey+")")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	session := &session{opts: opts, setup: setup}
	cmd.AddCommand(
		newModulesCmd(session),
		newAuthURLCmd(session),
		newExchangeCmd(session),
		newTestAuthCmd(session),
		newRefreshCmd(session),
		newDeauthorizeCmd(session),
	)
	return cmd
}

// session opens one runtime per command invocation.
type session struct {
	opts  *rootOptions
	setup SetupFunc
}

func (s *session) open(ctx context.Context) (*apimodules.Runtime, func(), error) {
	provider, syncLogs, err := gologger.NewZapDevelopmentProvider(s.opts.debug)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	runtime, err := s.setup(ctx, apimodules.SetupOptions{
		EnvFiles: s.opts.envFiles,
		Runtime:  apimodules.Config{RedirectBaseURL: strings.TrimSpace(s.opts.redirectBase)},
		Database: sqlstore.PersistenceConfig{
			Driver: s.opts.driver,
			DSN:    strings.TrimSpace(s.opts.dsn),
			Debug:  s.opts.debug,
		},
		CredentialKey:  s.opts.sealKey,
		Logger:         provider.GetLogger("modulectl"),
		LoggerProvider: provider,
	})
	if err != nil {
		_ = syncLogs()
		return nil, nil, err
	}
	closer := func() {
		_ = runtime.Close()
		_ = syncLogs()
	}
	return runtime, closer, nil
}
