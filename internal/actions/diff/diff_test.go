package diff_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"worktree.dev/cw/internal/actions/diff"
	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/testhelpers"
	"worktree.dev/cw/testhelpers/scenario"
)

func TestDiff(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*scenario.Scenario, string) {
		t.Helper()
		s := scenario.NewScenario(t, func(scene *testhelpers.Scene) error {
			if err := scene.Repo.CommitFile("keep.txt", "keep\n", "add keep"); err != nil {
				return err
			}
			return scene.Repo.CommitFile("old.txt", "old\n", "add old")
		})
		path := s.WithWorktree("feature-x", "main")
		wt := s.Worktree(path)
		require.NoError(t, wt.CommitFile("keep.txt", "changed\n", "edit keep"))
		require.NoError(t, wt.CommitFile("new.txt", "new\n", "add new"))
		require.NoError(t, wt.RunGitCommand("rm", "-q", "old.txt"))
		require.NoError(t, wt.RunGitCommand("commit", "-q", "-m", "drop old"))
		return s, path
	}

	t.Run("files lists each change with its status", func(t *testing.T) {
		t.Parallel()
		s, _ := setup(t)

		res, err := diff.Action(s.Context, diff.Options{From: "main", To: "feature-x", Files: true})
		require.NoError(t, err)
		require.Equal(t, []diff.Change{
			{Status: "M", Path: "keep.txt"},
			{Status: "A", Path: "new.txt"},
			{Status: "D", Path: "old.txt"},
		}, res.Changes)
		require.Contains(t, s.Output.String(), "new.txt")
	})

	t.Run("stat summarizes and the full diff is printed as is", func(t *testing.T) {
		t.Parallel()
		s, _ := setup(t)

		res, err := diff.Action(s.Context, diff.Options{From: "main", To: "feature-x", Stat: true})
		require.NoError(t, err)
		require.Contains(t, res.Output, "3 files changed")
		require.Empty(t, res.Changes)

		res, err = diff.Action(s.Context, diff.Options{From: "main", To: "feature-x"})
		require.NoError(t, err)
		require.Contains(t, res.Output, "+changed")
		require.Contains(t, s.Output.String(), "+changed")
	})

	t.Run("defaults to the current worktree", func(t *testing.T) {
		t.Parallel()
		s, path := setup(t)
		s.At(path)

		res, err := diff.Action(s.Context, diff.Options{From: "main", Files: true})
		require.NoError(t, err)
		require.Equal(t, "feature-x", res.To)
		require.Len(t, res.Changes, 3)
	})

	t.Run("identical branches have no differences", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithWorktree("feature-x", "main")

		res, err := diff.Action(s.Context, diff.Options{From: "main", To: "feature-x"})
		require.NoError(t, err)
		require.Empty(t, res.Output)
		require.Contains(t, s.Output.String(), "No differences.")
	})

	t.Run("validates its arguments", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)

		_, err := diff.Action(s.Context, diff.Options{From: "main", To: "main", Stat: true, Files: true})
		require.ErrorIs(t, err, cwerrors.ErrValidation)

		_, err = diff.Action(s.Context, diff.Options{From: "main", To: "missing"})
		require.ErrorIs(t, err, cwerrors.ErrBranchNotFound)
	})
}
