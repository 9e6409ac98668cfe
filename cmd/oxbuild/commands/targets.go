package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oxbuild/oxbuild/pkg/engine"
	"github.com/oxbuild/oxbuild/pkg/eval"
)

func newTargetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List targets declared by the configuration script",
		Long: `Evaluate the configuration script and list the targets it registered,
in registration order. The default target is marked with an asterisk.`,
		Example: `  # List targets of ./oxbuild.star
  oxbuild targets

  # List targets of another script
  oxbuild targets -c packaging/oxbuild.star`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			ec, err := evaluateScript(ctx, settings, eval.Options{})
			if err != nil {
				return err
			}

			defaultTarget := ec.DefaultTarget()
			for _, name := range ec.TargetNames() {
				marker := " "
				if name == defaultTarget {
					marker = "*"
				}

				kind := "unresolved"
				if target := ec.Environment().GetTarget(name); target != nil {
					if buildable, ok := target.Descriptor.(engine.Buildable); ok {
						kind = buildable.Kind()
					}
				}

				fmt.Printf("%s %-24s %s\n", marker, name, kind)
			}

			return nil
		},
	}

	return cmd
}
