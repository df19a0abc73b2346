package cli

import (
	"github.com/spf13/cobra"

	"worktree.dev/cw/internal/actions/changebase"
	"worktree.dev/cw/internal/actions/sync"
	"worktree.dev/cw/internal/cli/helpers"
	"worktree.dev/cw/internal/runtime"
)

// newSyncCmd creates the sync command
func newSyncCmd() *cobra.Command {
	var (
		all       bool
		fetchOnly bool
	)

	cmd := &cobra.Command{
		Use:   "sync [branch]",
		Short: "Rebase a feature worktree onto the latest version of its base",
		Long: `Fetch the base branch and rebase the feature worktree onto it.

A rebase that conflicts is aborted, leaving the worktree as it was, and the
conflicting files are reported. With --all every feature worktree is synced
and failures do not stop the others.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: helpers.CompleteWorktreeBranches,
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				_, err := sync.Action(ctx, sync.Options{
					Branch:    optionalArg(args),
					All:       all,
					FetchOnly: fetchOnly,
				})
				return err
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Sync every feature worktree")
	cmd.Flags().BoolVar(&fetchOnly, "fetch-only", false, "Only fetch the base branches, do not rebase")

	return cmd
}

// newChangeBaseCmd creates the change-base command
func newChangeBaseCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "change-base <new-base> [branch]",
		Short: "Rebase a feature onto a different base branch and record it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				_, err := changebase.Action(ctx, changebase.Options{
					NewBase: args[0],
					Branch:  optionalArg(args[1:]),
					DryRun:  dryRun,
				})
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would happen without changing anything")

	return cmd
}
