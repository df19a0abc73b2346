package sync_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"worktree.dev/cw/internal/actions/sync"
	"worktree.dev/cw/internal/engine"
	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/testhelpers"
	"worktree.dev/cw/testhelpers/scenario"
)

func aSetup(scene *testhelpers.Scene) error {
	return scene.Repo.CommitFile("a.txt", "base\n", "add a")
}

func statusOf(t *testing.T, s *scenario.Scenario, branch string) engine.Status {
	t.Helper()
	wt, err := s.Engine.Registry.Find(context.Background(), branch)
	require.NoError(t, err)
	return wt.Status
}

func TestSync(t *testing.T) {
	t.Parallel()

	t.Run("rebases onto the new base tip", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, aSetup)
		path := s.WithWorktree("feature-x", "main")
		require.NoError(t, s.Worktree(path).CommitFile("x.txt", "x\n", "feature work"))
		require.NoError(t, s.Scene.Repo.CommitFile("b.txt", "b\n", "main moves"))

		res, err := sync.Action(s.Context, sync.Options{Branch: "feature-x"})
		require.NoError(t, err)
		require.Equal(t, []string{"feature-x"}, res.Synced)
		require.True(t, s.Scene.Repo.IsAncestor("main", "feature-x"))
		require.FileExists(t, path+"/b.txt")
	})

	t.Run("conflict is aborted and reported with paths", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, aSetup)
		path := s.WithWorktree("feature-y", "main")
		wt := s.Worktree(path)
		require.NoError(t, wt.CommitFile("a.txt", "feature\n", "feature edits a"))
		require.NoError(t, wt.WriteFile("notes.txt", "untracked notes"))
		require.NoError(t, s.Scene.Repo.CommitFile("a.txt", "main\n", "main edits a"))
		before := testhelpers.SnapshotTree(t, path)
		head := s.Revision("feature-y")

		_, err := sync.Action(s.Context, sync.Options{Branch: "feature-y"})
		var conflict *cwerrors.RebaseConflictError
		require.ErrorAs(t, err, &conflict)
		require.Equal(t, "feature-y", conflict.BranchName)
		require.Contains(t, conflict.Files, "a.txt")
		require.ErrorIs(t, err, cwerrors.ErrConflict)

		require.False(t, wt.RebaseInProgress())
		require.Equal(t, head, s.Revision("feature-y"))
		require.Equal(t, before, testhelpers.SnapshotTree(t, path))
		require.Equal(t, engine.StatusModified, statusOf(t, s, "feature-y"))
	})

	t.Run("refuses a worktree with tracked modifications", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, aSetup)
		path := s.WithWorktree("feature-x", "main")
		require.NoError(t, s.Worktree(path).WriteFile("a.txt", "dirty\n"))

		_, err := sync.Action(s.Context, sync.Options{Branch: "feature-x"})
		var dirty *cwerrors.DirtyWorktreeError
		require.ErrorAs(t, err, &dirty)
	})

	t.Run("requires metadata", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, aSetup)
		require.NoError(t, s.Scene.Repo.AddWorktree(s.Scene.Sibling("plain"), "plain", "main"))

		_, err := sync.Action(s.Context, sync.Options{Branch: "plain"})
		var missing *cwerrors.MissingMetadataError
		require.ErrorAs(t, err, &missing)
	})

	t.Run("syncs the current worktree by default", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, aSetup)
		path := s.WithWorktree("feature-x", "main")
		require.NoError(t, s.Scene.Repo.CommitFile("b.txt", "b\n", "main moves"))

		_, err := sync.Action(s.At(path).Context, sync.Options{})
		require.NoError(t, err)
		require.Equal(t, s.Revision("main"), s.Revision("feature-x"))
	})

	t.Run("all continues past failures and skips worktrees without metadata", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, aSetup)
		okPath := s.WithWorktree("feature-ok", "main")
		badPath := s.WithWorktree("feature-bad", "main")
		require.NoError(t, s.Scene.Repo.AddWorktree(s.Scene.Sibling("plain"), "plain", "main"))
		require.NoError(t, s.Worktree(okPath).CommitFile("ok.txt", "ok\n", "ok work"))
		require.NoError(t, s.Worktree(badPath).CommitFile("a.txt", "bad\n", "bad edits a"))
		require.NoError(t, s.Scene.Repo.CommitFile("a.txt", "main\n", "main edits a"))

		res, err := sync.Action(s.Context, sync.Options{All: true})
		require.Error(t, err)
		require.ErrorIs(t, err, cwerrors.ErrConflict)
		require.Equal(t, []string{"feature-ok"}, res.Synced)
		require.Equal(t, []string{"plain"}, res.Skipped)
		require.Contains(t, res.Failed, "feature-bad")
		require.True(t, s.Scene.Repo.IsAncestor("main", "feature-ok"))
		require.False(t, s.Worktree(badPath).RebaseInProgress())
	})

	t.Run("prefers the fetched remote base", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, aSetup).WithRemote()
		path := s.WithWorktree("feature-x", "main")

		// another clone pushes to main
		other := s.Scene.Sibling("other")
		require.NoError(t, s.Scene.Repo.RunGitCommand("clone", "-b", "main", s.Scene.Dir+"-origin.git", other))
		otherRepo := s.Worktree(other)
		require.NoError(t, otherRepo.RunGitCommand("config", "user.email", "o@example.com"))
		require.NoError(t, otherRepo.RunGitCommand("config", "user.name", "Other"))
		require.NoError(t, otherRepo.CommitFile("remote.txt", "r\n", "remote work"))
		require.NoError(t, otherRepo.RunGitCommand("push", "origin", "main"))

		_, err := sync.Action(s.Context, sync.Options{Branch: "feature-x"})
		require.NoError(t, err)
		require.FileExists(t, path+"/remote.txt")
		require.Equal(t, s.Revision("origin/main"), s.Revision("feature-x"))
	})

	t.Run("fetch only leaves the branch alone", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, aSetup)
		s.WithWorktree("feature-x", "main")
		head := s.Revision("feature-x")
		require.NoError(t, s.Scene.Repo.CommitFile("b.txt", "b\n", "main moves"))

		_, err := sync.Action(s.Context, sync.Options{Branch: "feature-x", FetchOnly: true})
		require.NoError(t, err)
		require.Equal(t, head, s.Revision("feature-x"))
	})
}
