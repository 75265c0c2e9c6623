package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fairwaylab/swingcoach/internal/entitlement"
	"github.com/fairwaylab/swingcoach/internal/plans"
)

// AccessChecker проверяет доступ по роли, заданной строкой.
type AccessChecker interface {
	CanAccessRaw(role, feature string) bool
}

var checkAccessCmd = &cobra.Command{
	Use:   "check-access <role> <feature>",
	Short: "Show whether a role may use a feature",
	Long: `Evaluate the entitlement table from the config file, including any
override, for a role and a feature. Unknown roles are evaluated as "user".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		table, err := cfg.EntitlementTable()
		if err != nil {
			return err
		}
		resolver := entitlement.NewResolver(table, plans.Default())
		checkAccess(resolver, args[0], args[1], cmd.OutOrStdout())
		return nil
	},
}

func checkAccess(checker AccessChecker, role, feature string, out io.Writer) {
	verdict := "denied"
	if checker.CanAccessRaw(role, feature) {
		verdict = "allowed"
	}
	fmt.Fprintf(out, "%s: %s for %s\n", feature, verdict, role)
}
