package helpers

import (
	"os"

	"github.com/spf13/cobra"

	"worktree.dev/cw/internal/engine"
)

// CompleteWorktreeBranches is a cobra.ValidArgsFunction returning the branches
// checked out in the repository's worktrees.
func CompleteWorktreeBranches(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	eng, err := engine.Open(cmd.Context(), wd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	worktrees, err := eng.Registry.List(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var branches []string
	for _, wt := range worktrees {
		if wt.Branch != "" {
			branches = append(branches, wt.Branch)
		}
	}
	return branches, cobra.ShellCompDirectiveNoFileComp
}
