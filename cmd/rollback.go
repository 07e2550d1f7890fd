package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sdk-updater/internal/installer"
	"sdk-updater/internal/logger"
	"sdk-updater/internal/state"
)

// rollbackCmd undoes the last update using its journal.
var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Move the previous SDK back and remove the files the last update copied",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		j, err := state.LoadJournal(fsys, cfg.JournalFile)
		if err != nil {
			return err
		}
		if j.Len() == 0 {
			logger.Info("[INFO] Nothing to roll back, %s has no recorded actions\n", cfg.JournalFile)
			return nil
		}

		logger.Info("[INFO] Rolling back %d action(s) from %s\n", j.Len(), cfg.JournalFile)
		remaining := installer.Rollback(fsys, j)
		if err := state.SaveJournal(fsys, cfg.JournalFile, remaining); err != nil {
			return err
		}

		if remaining.Len() > 0 {
			return fmt.Errorf("%d action(s) could not be undone and remain in %s", remaining.Len(), cfg.JournalFile)
		}
		logger.Info("[INFO] Rollback complete!\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rollbackCmd)
}
