package cli

import (
	"github.com/spf13/cobra"

	"worktree.dev/cw/internal/actions"
	"worktree.dev/cw/internal/actions/status"
	"worktree.dev/cw/internal/cli/helpers"
	"worktree.dev/cw/internal/runtime"
	"worktree.dev/cw/internal/tui"
)

// newListCmd creates the list command
func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List worktrees with their status and base branch",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				worktrees, err := ctx.Engine.Registry.List(ctx)
				if err != nil {
					return err
				}
				ctx.Splog.Page(tui.RenderWorktreeList(worktrees))
				return nil
			})
		},
	}
}

// newStatusCmd creates the status command
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current worktree and all others",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				res, err := status.Action(ctx)
				if err != nil {
					return err
				}
				splog := ctx.Splog
				if cur := res.Current; cur != nil {
					splog.Info("Current worktree: %s", cur.Path)
					if cur.Branch != "" {
						splog.Info("Branch:           %s", actions.Branch(cur.Branch))
					}
					if cur.HasMetadata() {
						splog.Info("Base branch:      %s", actions.Branch(cur.BaseBranch))
						splog.Info("Base path:        %s", cur.BasePath)
					} else if !cur.IsMain {
						splog.Info("Base branch:      %s", tui.ColorDim("(not recorded)"))
					}
					splog.Newline()
				}
				splog.Page(tui.RenderWorktreeList(res.Worktrees))
				return nil
			})
		},
	}
}
