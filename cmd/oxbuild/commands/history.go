package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	var (
		target string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show build history",
		Long: `List past builds recorded in the workspace's build-history database.

History is only recorded when the workspace settings set history_path.`,
		Example: `  # Show the last 20 builds
  oxbuild history --limit 20

  # Show history for one target
  oxbuild history --target exe`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings()
			if err != nil {
				return err
			}
			if settings.HistoryPath == "" {
				return fmt.Errorf("build history is disabled; set history_path in %s", settingsPath)
			}

			store, err := openHistory(ctx, settings)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.ListBuilds(ctx, target, limit)
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println("No builds recorded.")
				return nil
			}

			for _, rec := range records {
				line := fmt.Sprintf("%s  %-9s  %-20s  %-15s  %s",
					rec.CreatedAt.Format("2006-01-02 15:04:05"),
					rec.Status,
					rec.Target,
					rec.Duration,
					rec.OutputPath,
				)
				if rec.Error != "" {
					line += "  " + rec.Error
				}
				fmt.Println(line)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "filter by target name")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum records to show")

	return cmd
}
