package cli

import (
	"github.com/spf13/cobra"

	"worktree.dev/cw/internal/actions/finish"
	"worktree.dev/cw/internal/actions/pr"
	"worktree.dev/cw/internal/cli/helpers"
	"worktree.dev/cw/internal/runtime"
	"worktree.dev/cw/internal/utils"
)

// newFinishCmd creates the finish command
func newFinishCmd() *cobra.Command {
	var (
		push        bool
		dryRun      bool
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "finish [branch]",
		Short: "Rebase a feature, merge it into its base and remove its worktree",
		Long: `Rebase the feature onto its base, fast-forward the base to it, then remove
the feature worktree, its branch and its metadata.

Nothing is merged when the rebase conflicts, and the base is never updated
if it moved while the feature was being rebased.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: helpers.CompleteWorktreeBranches,
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				_, err := finish.Action(ctx, finish.Options{
					Branch:      optionalArg(args),
					Push:        push,
					DryRun:      dryRun,
					Interactive: interactive,
				})
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&push, "push", false, "Push the base branch after merging")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would happen without changing anything")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Confirm before the rebase, the merge and the cleanup")

	return cmd
}

// newPRCmd creates the pr command
func newPRCmd() *cobra.Command {
	var (
		title  string
		body   string
		draft  bool
		dryRun bool
		web    bool
	)

	cmd := &cobra.Command{
		Use:   "pr [branch]",
		Short: "Rebase a feature, push it and open a GitHub pull request",
		Long: `Rebase the feature onto its base, push it and open a pull request into the
base branch. The worktree and the branch are kept.

The GitHub token is read from GITHUB_TOKEN or from the gh CLI.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: helpers.CompleteWorktreeBranches,
		RunE: func(cmd *cobra.Command, args []string) error {
			return helpers.Run(cmd, func(ctx *runtime.Context) error {
				var creator pr.PullRequestCreator
				if !dryRun {
					client, err := ctx.GitHubClient()
					if err != nil {
						ctx.Splog.Warn("GitHub is not available: %v", err)
					} else {
						creator = client
					}
				}
				res, err := pr.Action(ctx, creator, pr.Options{
					Branch: optionalArg(args),
					Title:  title,
					Body:   body,
					Draft:  draft,
					DryRun: dryRun,
				})
				if err != nil {
					return err
				}
				if web && res.URL != "" {
					if err := utils.OpenBrowser(ctx, res.URL); err != nil {
						ctx.Splog.Warn("Could not open a browser: %v", err)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Pull request title (default: the only commit subject or the branch name)")
	cmd.Flags().StringVar(&body, "body", "", "Pull request body (default: the list of commit subjects)")
	cmd.Flags().BoolVarP(&draft, "draft", "d", false, "Open the pull request as a draft")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would happen without changing anything")
	cmd.Flags().BoolVarP(&web, "web", "w", false, "Open the pull request in the browser")

	return cmd
}
