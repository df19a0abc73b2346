package clean_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"worktree.dev/cw/internal/actions/clean"
	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/testhelpers"
	"worktree.dev/cw/testhelpers/scenario"
)

func branchesOf(candidates []clean.Candidate) []string {
	var branches []string
	for _, c := range candidates {
		branches = append(branches, c.Worktree.Branch)
	}
	return branches
}

func TestClean(t *testing.T) {
	t.Parallel()

	t.Run("requires a criterion", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		_, err := clean.Action(s.Context, clean.Options{})
		require.ErrorIs(t, err, cwerrors.ErrValidation)
	})

	t.Run("merged removes branches contained in their base", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		donePath := s.WithWorktree("feature-done", "main")
		wipPath := s.WithWorktree("feature-wip", "main")
		require.NoError(t, s.Worktree(wipPath).CommitFile("wip.txt", "wip\n", "wip"))

		res, err := clean.Action(s.Context, clean.Options{Merged: true})
		require.NoError(t, err)
		require.Equal(t, []string{"feature-done"}, res.Deleted)
		require.NoDirExists(t, donePath)
		require.False(t, s.Scene.Repo.BranchExists("feature-done"))
		s.ExpectMetadata("feature-done", "")
		require.DirExists(t, wipPath)
		s.ExpectMetadata("feature-wip", "main")
	})

	t.Run("stale removes every missing worktree", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		for _, branch := range []string{"gone-1", "gone-2"} {
			require.NoError(t, os.RemoveAll(s.WithWorktree(branch, "main")))
		}
		live := s.WithWorktree("live", "main")

		res, err := clean.Action(s.Context, clean.Options{Stale: true})
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"gone-1", "gone-2"}, res.Deleted)
		require.False(t, s.Scene.Repo.BranchExists("gone-1"))
		require.False(t, s.Scene.Repo.BranchExists("gone-2"))
		require.DirExists(t, live)
	})

	t.Run("older than uses the directory age", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		oldPath := s.WithWorktree("old", "main")
		s.WithWorktree("fresh", "main")
		past := time.Now().Add(-10 * 24 * time.Hour)
		require.NoError(t, os.Chtimes(oldPath, past, past))

		res, err := clean.Action(s.Context, clean.Options{OlderThan: 7 * 24 * time.Hour, DryRun: true})
		require.NoError(t, err)
		require.Equal(t, []string{"old"}, branchesOf(res.Candidates))
		require.Empty(t, res.Deleted)
		require.DirExists(t, oldPath)
	})

	t.Run("unmerged branches are kept while the worktree goes", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		path := s.WithWorktree("feature-wip", "main")
		require.NoError(t, s.Worktree(path).CommitFile("wip.txt", "wip\n", "wip"))
		require.NoError(t, os.RemoveAll(path))

		res, err := clean.Action(s.Context, clean.Options{Stale: true})
		var unmerged *cwerrors.UnmergedChangesError
		require.ErrorAs(t, err, &unmerged)
		require.Contains(t, res.Failed, "feature-wip")
		require.True(t, s.Scene.Repo.BranchExists("feature-wip"))
	})

	t.Run("interactive deletes the selection after confirmation", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		a := s.WithWorktree("feature-a", "main")
		b := s.WithWorktree("feature-b", "main")
		s.Prompter.Selections = [][]string{{"feature-b"}}

		res, err := clean.Action(s.Context, clean.Options{Interactive: true})
		require.NoError(t, err)
		require.Equal(t, []string{"feature-b"}, res.Deleted)
		require.Len(t, s.Prompter.Asked, 2)
		require.DirExists(t, a)
		require.NoDirExists(t, b)
	})

	t.Run("interactive decline deletes nothing", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		a := s.WithWorktree("feature-a", "main")
		s.Prompter.Answers = []bool{false}

		_, err := clean.Action(s.Context, clean.Options{Interactive: true})
		require.ErrorIs(t, err, cwerrors.ErrAborted)
		require.DirExists(t, a)
	})
}
