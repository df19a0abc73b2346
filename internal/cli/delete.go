package cli

import (
	"github.com/spf13/cobra"

	deleteaction "worktree.dev/cw/internal/actions/delete"
	"worktree.dev/cw/internal/actions/prune"
	"worktree.dev/cw/internal/cli/helpers"
	"worktree.dev/cw/internal/engine"
	"worktree.dev/cw/internal/runtime"
)

// newDeleteCmd creates the delete command
func newDeleteCmd() *cobra.Command {
	var (
		keepBranch   bool
		deleteRemote bool
		force        bool
	)

	cmd := &cobra.Command{
		Use:     "delete [branch|path]",
		Aliases: []string{"rm"},
		Short:   "Remove a worktree, its branch and its metadata",
		Long: `Remove a worktree together with its branch and recorded metadata.

The target is a branch name or the path of an existing worktree directory;
without one the current worktree is removed. A branch that is not
merged into its base is kept unless --force is given.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: helpers.CompleteWorktreeBranches,
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				var target engine.Target
				if arg := optionalArg(args); arg != "" {
					target = engine.ParseTarget(arg)
				}
				_, err := deleteaction.Action(ctx, deleteaction.Options{
					Target:       target,
					KeepBranch:   keepBranch,
					DeleteRemote: deleteRemote,
					Force:        force,
				})
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&keepBranch, "keep-branch", false, "Only remove the worktree, keep the branch and its metadata")
	cmd.Flags().BoolVar(&deleteRemote, "delete-remote", false, "Also delete the branch on the remote")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete the branch even when it is not merged into its base")

	return cmd
}

// newPruneCmd creates the prune command
func newPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Forget worktrees whose directories no longer exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				_, err := prune.Action(ctx)
				return err
			})
		},
	}
}
