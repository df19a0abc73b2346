package finish_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"worktree.dev/cw/internal/actions/finish"
	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/internal/git"
	"worktree.dev/cw/internal/git/gittest"
	"worktree.dev/cw/testhelpers"
	"worktree.dev/cw/testhelpers/scenario"
)

func aSetup(scene *testhelpers.Scene) error {
	return scene.Repo.CommitFile("a.txt", "base\n", "add a")
}

func listBranches(t *testing.T, s *scenario.Scenario) []string {
	t.Helper()
	worktrees, err := s.Engine.Registry.List(context.Background())
	require.NoError(t, err)
	var branches []string
	for _, wt := range worktrees {
		branches = append(branches, wt.Branch)
	}
	return branches
}

func TestFinish(t *testing.T) {
	t.Parallel()

	t.Run("merges feature-x into main and cleans up", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, aSetup)
		path := s.WithWorktree("feature-x", "main")
		require.NoError(t, s.Worktree(path).CommitFile("x.txt", "x\n", "add x"))
		require.NoError(t, s.Scene.Repo.CommitFile("b.txt", "b\n", "main moves"))

		res, err := finish.Action(s.Context, finish.Options{Branch: "feature-x"})
		require.NoError(t, err)
		require.Equal(t, finish.StateDone, res.State)
		require.Equal(t, []string{"add x"}, res.Commits)
		require.Equal(t, res.MergedHead, s.Revision("main"))

		// main is checked out, so its files follow the fast-forward
		content, err := s.Scene.Repo.ReadFile("x.txt")
		require.NoError(t, err)
		require.Equal(t, "x\n", content)

		require.NoDirExists(t, path)
		require.False(t, s.Scene.Repo.BranchExists("feature-x"))
		require.NotContains(t, listBranches(t, s), "feature-x")
		s.ExpectMetadata("feature-x", "")
	})

	t.Run("counts only feature commits when the remote base is ahead", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, aSetup).WithRemote()
		path := s.WithWorktree("feature-x", "main")
		require.NoError(t, s.Worktree(path).CommitFile("x.txt", "x\n", "add x"))
		require.NoError(t, s.Scene.Repo.CommitFile("up.txt", "up\n", "upstream work"))
		require.NoError(t, s.Scene.Repo.PushBranch("origin", "main"))
		s.RunGit("reset", "--hard", "HEAD~1")

		res, err := finish.Action(s.Context, finish.Options{Branch: "feature-x"})
		require.NoError(t, err)
		require.Equal(t, "origin/main", res.Onto)
		require.Equal(t, []string{"add x"}, res.Commits)
		require.Equal(t, finish.StateDone, res.State)
		require.True(t, s.Scene.Repo.IsAncestor("origin/main", "main"))
	})

	t.Run("updates a base that is not checked out with a compare-and-swap", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, aSetup)
		require.NoError(t, s.Scene.Repo.CreateBranch("develop"))
		path := s.WithWorktree("feature-x", "develop")
		require.NoError(t, s.Worktree(path).CommitFile("x.txt", "x\n", "add x"))
		mainTip := s.Revision("main")

		res, err := finish.Action(s.Context, finish.Options{Branch: "feature-x"})
		require.NoError(t, err)
		require.Equal(t, res.MergedHead, s.Revision("develop"))
		require.Equal(t, mainTip, s.Revision("main"))
	})

	t.Run("conflict leaves files and base untouched", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, aSetup)
		path := s.WithWorktree("feature-x", "main")
		wt := s.Worktree(path)
		require.NoError(t, wt.CommitFile("a.txt", "feature\n", "feature edits a"))
		require.NoError(t, s.Scene.Repo.CommitFile("a.txt", "main\n", "main edits a"))
		before := testhelpers.SnapshotTree(t, path)
		baseTip := s.Revision("main")
		featureTip := s.Revision("feature-x")

		res, err := finish.Action(s.Context, finish.Options{Branch: "feature-x"})
		var conflict *cwerrors.RebaseConflictError
		require.ErrorAs(t, err, &conflict)
		require.Equal(t, []string{"a.txt"}, conflict.Files)
		require.Equal(t, finish.StateConflicted, res.State)

		require.Equal(t, before, testhelpers.SnapshotTree(t, path))
		require.Equal(t, baseTip, s.Revision("main"))
		require.Equal(t, featureTip, s.Revision("feature-x"))
		require.False(t, wt.RebaseInProgress())
		s.ExpectMetadata("feature-x", "main")
	})

	t.Run("dry run never mutates", func(t *testing.T) {
		t.Parallel()
		for _, conflicting := range []bool{false, true} {
			s := scenario.NewScenario(t, aSetup)
			path := s.WithWorktree("feature-x", "main")
			content := "x\n"
			file := "x.txt"
			if conflicting {
				file = "a.txt"
				content = "feature\n"
			}
			require.NoError(t, s.Worktree(path).CommitFile(file, content, "feature work"))
			require.NoError(t, s.Scene.Repo.CommitFile("a.txt", "main\n", "main edits a"))
			before := testhelpers.SnapshotTree(t, path)
			baseTip := s.Revision("main")
			featureTip := s.Revision("feature-x")

			res, err := finish.Action(s.Context, finish.Options{Branch: "feature-x", DryRun: true, Push: true})
			require.NoError(t, err)
			require.Equal(t, finish.StateIdle, res.State)
			require.Len(t, res.Plan, 5)
			require.Equal(t, []string{"feature work"}, res.Commits)
			if conflicting {
				require.Equal(t, []string{"a.txt"}, res.Conflicts)
			} else {
				require.Empty(t, res.Conflicts)
			}

			require.Equal(t, before, testhelpers.SnapshotTree(t, path))
			require.Equal(t, baseTip, s.Revision("main"))
			require.Equal(t, featureTip, s.Revision("feature-x"))
			require.DirExists(t, path)
			s.ExpectMetadata("feature-x", "main")
		}
	})

	t.Run("refuses when the base moves during the finish", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, aSetup)
		path := s.WithWorktree("feature-x", "main")
		require.NoError(t, s.Worktree(path).CommitFile("x.txt", "x\n", "add x"))

		inner := s.Backend
		fake := gittest.Wrap(inner)
		mainReads := 0
		fake.ResolveRevisionHook = func(ctx context.Context, rev string) (string, error) {
			if rev == "main" {
				mainReads++
				if mainReads == 2 {
					// someone else commits to main between the rebase and the merge
					require.NoError(t, s.Scene.Repo.CommitFile("late.txt", "late\n", "concurrent"))
				}
			}
			return inner.ResolveRevision(ctx, rev)
		}
		s.WithBackend(fake)

		res, err := finish.Action(s.Context, finish.Options{Branch: "feature-x"})
		var moved *cwerrors.ConcurrentBaseUpdateError
		require.ErrorAs(t, err, &moved)
		require.Equal(t, "main", moved.BaseBranch)
		require.Equal(t, finish.StateMerging, res.State)

		subject, err := s.Scene.Repo.RunGitCommandAndGetOutput("log", "-1", "--format=%s", "main")
		require.NoError(t, err)
		require.Equal(t, "concurrent", subject)
		require.DirExists(t, path)
		require.True(t, s.Scene.Repo.BranchExists("feature-x"))
		s.ExpectMetadata("feature-x", "main")
	})

	t.Run("interactive decline stops before the merge", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, aSetup)
		path := s.WithWorktree("feature-x", "main")
		require.NoError(t, s.Worktree(path).CommitFile("x.txt", "x\n", "add x"))
		baseTip := s.Revision("main")
		s.Prompter.Answers = []bool{true, false}

		res, err := finish.Action(s.Context, finish.Options{Branch: "feature-x", Interactive: true})
		require.ErrorIs(t, err, cwerrors.ErrAborted)
		require.Equal(t, finish.StateRebased, res.State)
		require.Len(t, s.Prompter.Asked, 2)
		require.Equal(t, baseTip, s.Revision("main"))
		require.DirExists(t, path)
	})

	t.Run("pushes the base and reports push failures without rollback", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, aSetup).WithRemote()
		path := s.WithWorktree("feature-x", "main")
		require.NoError(t, s.Worktree(path).CommitFile("x.txt", "x\n", "add x"))

		res, err := finish.Action(s.Context, finish.Options{Branch: "feature-x", Push: true})
		require.NoError(t, err)
		require.True(t, res.Pushed)
		remoteTip, err := s.Scene.Repo.RunGitCommandAndGetOutput("ls-remote", "origin", "refs/heads/main")
		require.NoError(t, err)
		require.Contains(t, remoteTip, s.Revision("main"))

		path = s.WithWorktree("feature-y", "main")
		require.NoError(t, s.Worktree(path).CommitFile("y.txt", "y\n", "add y"))
		fake := gittest.Wrap(s.Backend)
		fake.PushHook = func(context.Context, string, string, git.PushOptions) error {
			return errors.New("remote rejected")
		}
		s.WithBackend(fake)

		res, err = finish.Action(s.Context, finish.Options{Branch: "feature-y", Push: true})
		require.NoError(t, err)
		require.Equal(t, finish.StateDone, res.State)
		require.False(t, res.Pushed)
		require.EqualError(t, res.PushError, "remote rejected")
		require.Equal(t, res.MergedHead, s.Revision("main"))
	})

	t.Run("requires metadata", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, aSetup)
		require.NoError(t, s.Scene.Repo.AddWorktree(s.Scene.Sibling("plain"), "plain", "main"))

		_, err := finish.Action(s.Context, finish.Options{Branch: "plain"})
		var missing *cwerrors.MissingMetadataError
		require.ErrorAs(t, err, &missing)
	})
}

func TestStateString(t *testing.T) {
	t.Parallel()
	require.Equal(t, "conflicted", finish.StateConflicted.String())
	require.Equal(t, "done", finish.StateDone.String())
	require.Equal(t, "unknown", finish.State(42).String())
}
