package commands

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/oxbuild/oxbuild/pkg/policy"
)

func newPolicyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the build policy gate",
	}

	cmd.AddCommand(newPolicyListCommand())

	return cmd
}

func newPolicyListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List loaded policies",
		Long: `List the built-in policies plus any workspace policies named by the
policy.paths setting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			gate, err := policy.NewEngine(log.Logger)
			if err != nil {
				return err
			}
			if settings.Policy != nil && len(settings.Policy.Paths) > 0 {
				if err := gate.LoadPolicies(ctx, settings.Policy.Paths); err != nil {
					return err
				}
			}

			policies := gate.ListPolicies()
			sort.Slice(policies, func(i, j int) bool {
				return policies[i].Name < policies[j].Name
			})

			for _, p := range policies {
				state := "enabled"
				if !p.Enabled {
					state = "disabled"
				}
				fmt.Printf("%-32s %-8s %-8s %s\n", p.Name, p.Severity, state, p.Description)
			}

			return nil
		},
	}

	return cmd
}
