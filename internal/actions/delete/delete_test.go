package delete_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"worktree.dev/cw/internal/actions/delete"
	"worktree.dev/cw/internal/engine"
	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/internal/git/gittest"
	"worktree.dev/cw/testhelpers"
	"worktree.dev/cw/testhelpers/scenario"
)

func TestDelete(t *testing.T) {
	t.Parallel()

	t.Run("removes a merged worktree, its branch and metadata", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		path := s.WithWorktree("feature-x", "main")

		res, err := delete.Action(s.Context, delete.Options{Target: engine.BranchTarget{Name: "feature-x"}})
		require.NoError(t, err)
		require.True(t, res.BranchDeleted)
		require.NoDirExists(t, path)
		require.False(t, s.Scene.Repo.BranchExists("feature-x"))
		s.ExpectMetadata("feature-x", "")
	})

	t.Run("resolves a path target and discards dirty files", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		path := s.WithWorktree("feature-x", "main")
		require.NoError(t, s.Worktree(path).WriteFile("scratch.txt", "wip"))

		_, err := delete.Action(s.Context, delete.Options{Target: engine.PathTarget{Path: path}})
		require.NoError(t, err)
		require.NoDirExists(t, path)
	})

	t.Run("keeps an unmerged branch but still removes the worktree and metadata", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		path := s.WithWorktree("feature-x", "main")
		require.NoError(t, s.Worktree(path).CommitFile("x.txt", "x\n", "work"))

		res, err := delete.Action(s.Context, delete.Options{Target: engine.BranchTarget{Name: "feature-x"}})
		var unmerged *cwerrors.UnmergedChangesError
		require.ErrorAs(t, err, &unmerged)
		require.Equal(t, "main", unmerged.BaseBranch)
		require.False(t, res.BranchDeleted)

		require.NoDirExists(t, path)
		require.True(t, s.Scene.Repo.BranchExists("feature-x"))
		s.ExpectMetadata("feature-x", "")
	})

	t.Run("force deletes an unmerged branch", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		path := s.WithWorktree("feature-x", "main")
		require.NoError(t, s.Worktree(path).CommitFile("x.txt", "x\n", "work"))

		_, err := delete.Action(s.Context, delete.Options{Target: engine.BranchTarget{Name: "feature-x"}, Force: true})
		require.NoError(t, err)
		require.False(t, s.Scene.Repo.BranchExists("feature-x"))
	})

	t.Run("keep-branch leaves branch and metadata", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		path := s.WithWorktree("feature-x", "main")

		res, err := delete.Action(s.Context, delete.Options{Target: engine.BranchTarget{Name: "feature-x"}, KeepBranch: true})
		require.NoError(t, err)
		require.False(t, res.BranchDeleted)
		require.NoDirExists(t, path)
		require.True(t, s.Scene.Repo.BranchExists("feature-x"))
		s.ExpectMetadata("feature-x", "main")
	})

	t.Run("prunes a stale registration", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		path := s.WithWorktree("feature-x", "main")
		require.NoError(t, os.RemoveAll(path))

		_, err := delete.Action(s.Context, delete.Options{Target: engine.BranchTarget{Name: "feature-x"}})
		require.NoError(t, err)
		worktrees, err := s.Engine.Registry.List(context.Background())
		require.NoError(t, err)
		require.Len(t, worktrees, 1)
		require.False(t, s.Scene.Repo.BranchExists("feature-x"))
	})

	t.Run("refuses the main worktree and unknown targets", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)

		_, err := delete.Action(s.Context, delete.Options{})
		require.ErrorIs(t, err, cwerrors.ErrValidation)
		require.DirExists(t, s.Scene.Dir)

		_, err = delete.Action(s.Context, delete.Options{Target: engine.BranchTarget{Name: "nope"}})
		var notFound *cwerrors.WorktreeNotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("deletes the remote branch", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup).WithRemote()
		path := s.WithWorktree("feature-x", "main")
		require.NoError(t, s.Worktree(path).PushBranch("origin", "feature-x"))

		res, err := delete.Action(s.Context, delete.Options{Target: engine.BranchTarget{Name: "feature-x"}, DeleteRemote: true})
		require.NoError(t, err)
		require.True(t, res.RemoteDeleted)
		_, err = s.Scene.Repo.RunGitCommandAndGetOutput("ls-remote", "--exit-code", "origin", "refs/heads/feature-x")
		require.Error(t, err)
	})

	t.Run("unmerged branch keeps its remote copy and says so", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup).WithRemote()
		path := s.WithWorktree("feature-x", "main")
		require.NoError(t, s.Worktree(path).CommitFile("x.txt", "x\n", "add x"))
		require.NoError(t, s.Worktree(path).PushBranch("origin", "feature-x"))

		res, err := delete.Action(s.Context, delete.Options{Target: engine.BranchTarget{Name: "feature-x"}, DeleteRemote: true})
		var unmerged *cwerrors.UnmergedChangesError
		require.ErrorAs(t, err, &unmerged)
		require.False(t, res.RemoteDeleted)
		require.Error(t, res.RemoteError)
		require.Contains(t, s.Output.String(), "Skipped deleting feature-x on the remote")
		require.True(t, s.Scene.Repo.BranchExists("feature-x"))
		_, err = s.Scene.Repo.RunGitCommandAndGetOutput("ls-remote", "--exit-code", "origin", "refs/heads/feature-x")
		require.NoError(t, err)
	})

	t.Run("remote delete failure is only a warning", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup).WithRemote()
		path := s.WithWorktree("feature-x", "main")
		fake := gittest.Wrap(s.Backend)
		fake.DeleteRemoteHook = func(context.Context, string, string) error {
			return errors.New("permission denied")
		}
		s.WithBackend(fake)

		res, err := delete.Action(s.Context, delete.Options{Target: engine.BranchTarget{Name: "feature-x"}, DeleteRemote: true})
		require.NoError(t, err)
		require.Error(t, res.RemoteError)
		require.False(t, res.RemoteDeleted)
		require.NoDirExists(t, path)
		require.Contains(t, s.Output.String(), "permission denied")
	})
}
