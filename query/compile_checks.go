package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/lunchpaillola/api-module-library/core"
)

var (
	_ gocmd.Querier[AuthorizationRequirementsMessage, core.AuthorizationRequirements] = (*AuthorizationRequirementsQuery)(nil)
	_ gocmd.Querier[TestAuthMessage, TestAuthResult]                                  = (*TestAuthQuery)(nil)
	_ gocmd.Querier[ListModulesMessage, []ModuleSummary]                              = (*ListModulesQuery)(nil)
)
