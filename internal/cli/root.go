package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cw",
		Short: "cw manages git worktrees for feature branches",
		Long: `cw manages one git worktree per feature branch.

Each worktree remembers the branch it was created from, so it can be kept up
to date (sync), merged back (finish), turned into a pull request (pr), moved
to another base (change-base) and backed up.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newNewCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newPruneCmd())
	rootCmd.AddCommand(newCleanCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newFinishCmd())
	rootCmd.AddCommand(newPRCmd())
	rootCmd.AddCommand(newChangeBaseCmd())
	rootCmd.AddCommand(newBackupCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.AddCommand(newDiffCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func optionalArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
