package cli

import (
	"github.com/spf13/cobra"

	"worktree.dev/cw/internal/actions/diff"
	"worktree.dev/cw/internal/actions/doctor"
	"worktree.dev/cw/internal/cli/helpers"
	"worktree.dev/cw/internal/runtime"
)

// newDoctorCmd creates the doctor command
func newDoctorCmd() *cobra.Command {
	var noFetch bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the health of every worktree",
		Long: `Check the git version and every feature worktree for stale registrations,
uncommitted changes, unresolved conflicts and missing base commits.

Exits non-zero when an issue is found; warnings alone do not fail.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				_, err := doctor.Action(ctx, doctor.Options{NoFetch: noFetch})
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&noFetch, "no-fetch", false, "Compare with the remote bases already fetched")

	return cmd
}

// newDiffCmd creates the diff command
func newDiffCmd() *cobra.Command {
	var (
		stat  bool
		files bool
	)

	cmd := &cobra.Command{
		Use:   "diff <branch> [other-branch]",
		Short: "Compare two worktree branches",
		Long: `Show the changes from <branch> to [other-branch], which defaults to the
branch of the current worktree.`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: helpers.CompleteWorktreeBranches,
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				_, err := diff.Action(ctx, diff.Options{
					From:  args[0],
					To:    optionalArg(args[1:]),
					Stat:  stat,
					Files: files,
				})
				return err
			})
		},
	}

	cmd.Flags().BoolVarP(&stat, "stat", "s", false, "Show changed line counts only")
	cmd.Flags().BoolVarP(&files, "files", "f", false, "Show changed files only")

	return cmd
}
