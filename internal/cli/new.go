package cli

import (
	"github.com/spf13/cobra"

	"worktree.dev/cw/internal/actions/create"
	"worktree.dev/cw/internal/cli/helpers"
	"worktree.dev/cw/internal/runtime"
)

// newNewCmd creates the new command
func newNewCmd() *cobra.Command {
	var (
		base string
		path string
	)

	cmd := &cobra.Command{
		Use:   "new <branch>",
		Short: "Create a worktree for a new or existing branch",
		Long: `Create a worktree for a branch, creating the branch from the base when it
does not exist yet.

The worktree is placed next to the main checkout as <repo>-<branch> unless
--path is given, and the base branch is recorded for sync, finish and pr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				wt, err := create.Action(ctx, create.Options{
					Branch: args[0],
					Base:   base,
					Path:   path,
				})
				if err != nil {
					return err
				}
				ctx.Splog.Tip("cd %s", wt.Path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&base, "base", "b", "", "Branch to create the new branch from (default: the current branch)")
	cmd.Flags().StringVarP(&path, "path", "p", "", "Directory for the worktree")

	return cmd
}
