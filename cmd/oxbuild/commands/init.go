package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const starterScript = `# oxbuild configuration script.
#
# Declare build targets and register them; "oxbuild build" materializes
# the default target, "oxbuild targets" lists everything registered.

def make_exe():
    exe = executable(name = "app")
    exe.profile = "isolated"
    exe.module_search_paths = ["$ORIGIN/lib"]
    return exe

def make_install():
    manifest = file_manifest()
    manifest.add_file("README.txt", "packaged by oxbuild\n")
    return manifest

register_target("exe", make_exe(), default = True)
register_target("install", make_install())
`

const starterSettings = `// oxbuild workspace settings.
name: %q

build_path: "build"
opt_level:  "0"

// Uncomment to record build history:
// history_path: ".oxbuild/history.db"

// Uncomment to gate builds with Rego policies:
// policy: {
//	enabled: true
//	paths: ["policies"]
// }
`

func newInitCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize an oxbuild workspace",
		Long: `Create a starter configuration script and workspace settings file in
the current directory. Existing files are left untouched.`,
		Example: `  # Scaffold oxbuild.star and oxbuild.cue
  oxbuild init --name myapp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Info().
				Str("name", name).
				Str("script", scriptPath).
				Msg("Initializing workspace")

			wrote := false

			if _, err := os.Stat(scriptPath); os.IsNotExist(err) {
				if err := os.WriteFile(scriptPath, []byte(starterScript), 0o644); err != nil {
					return fmt.Errorf("failed to write configuration script: %w", err)
				}
				fmt.Printf("✓ Created configuration script: %s\n", scriptPath)
				wrote = true
			} else {
				fmt.Printf("✓ Configuration script already exists: %s\n", scriptPath)
			}

			if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
				content := fmt.Sprintf(starterSettings, name)
				if err := os.WriteFile(settingsPath, []byte(content), 0o644); err != nil {
					return fmt.Errorf("failed to write settings file: %w", err)
				}
				fmt.Printf("✓ Created workspace settings: %s\n", settingsPath)
				wrote = true
			} else {
				fmt.Printf("✓ Workspace settings already exist: %s\n", settingsPath)
			}

			if wrote {
				fmt.Printf("\nNext steps:\n")
				fmt.Printf("  1. List the declared targets:\n")
				fmt.Printf("     oxbuild targets\n\n")
				fmt.Printf("  2. Build the default target:\n")
				fmt.Printf("     oxbuild build\n\n")
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "oxbuild", "workspace name")

	return cmd
}
