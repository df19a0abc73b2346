package cli

import (
	"time"

	"github.com/spf13/cobra"

	"worktree.dev/cw/internal/actions/clean"
	"worktree.dev/cw/internal/cli/helpers"
	"worktree.dev/cw/internal/runtime"
)

// newCleanCmd creates the clean command
func newCleanCmd() *cobra.Command {
	var (
		merged      bool
		stale       bool
		olderThan   int
		interactive bool
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete feature worktrees in bulk",
		Long: `Delete every feature worktree matching at least one criterion.

Branches that are not merged into their base are kept even when their
worktree is removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				_, err := clean.Action(ctx, clean.Options{
					Merged:      merged,
					Stale:       stale,
					OlderThan:   time.Duration(olderThan) * 24 * time.Hour,
					Interactive: interactive,
					DryRun:      dryRun,
				})
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&merged, "merged", false, "Delete worktrees whose branch is merged into its base")
	cmd.Flags().BoolVar(&stale, "stale", false, "Delete worktrees whose directory is gone")
	cmd.Flags().IntVar(&olderThan, "older-than", 0, "Delete worktrees not modified for this many days")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Choose the worktrees to delete")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be deleted")

	return cmd
}
