package cmd

import (
	"github.com/spf13/cobra"

	"sdk-updater/internal/installer"
)

// updateCmd is the explicit form of the no-argument invocation.
var updateCmd = &cobra.Command{
	Use:     "update",
	Aliases: []string{"sync"},
	Short:   "Extract the archive and replace the installed SDK files",
	Args:    cobra.NoArgs,
	RunE:    runUpdate,
}

// runUpdate loads the configuration and runs the update. The updater logs its
// own fatal errors, so they are not printed a second time.
func runUpdate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := installer.NewUpdater(fsys, cfg).Run(); err != nil {
		return loggedError{err}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
