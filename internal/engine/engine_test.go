package engine_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"worktree.dev/cw/internal/engine"
	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/internal/git"
	"worktree.dev/cw/internal/git/gittest"
	"worktree.dev/cw/testhelpers"
)

func newEngine(t *testing.T, scene *testhelpers.Scene, opts ...engine.Option) *engine.Engine {
	t.Helper()
	return engine.New(git.NewBackend(scene.Dir), opts...)
}

func TestMetadataStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
	e := newEngine(t, scene)

	t.Run("absent and explicit empty values are distinct", func(t *testing.T) {
		_, ok, err := e.Metadata.Get(ctx, "feature", engine.KeyBaseBranch)
		require.NoError(t, err)
		require.False(t, ok)

		require.NoError(t, e.Metadata.Set(ctx, "feature", "note", ""))
		v, ok, err := e.Metadata.Get(ctx, "feature", "note")
		require.NoError(t, err)
		require.True(t, ok)
		require.Empty(t, v)
	})

	t.Run("record round trip uses the documented config keys", func(t *testing.T) {
		rec := engine.MetadataRecord{BaseBranch: "main", BasePath: scene.Dir}
		require.NoError(t, e.Metadata.Write(ctx, "feature/x", rec))

		require.Equal(t, "main", scene.Repo.ConfigGet("branch.feature/x.worktreeBase"))
		require.Equal(t, scene.Dir, scene.Repo.ConfigGet("worktree.feature/x.basePath"))

		got, ok, err := e.Metadata.Read(ctx, "feature/x")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, rec, got)
	})

	t.Run("unset and clear are idempotent", func(t *testing.T) {
		require.NoError(t, e.Metadata.Unset(ctx, "never", engine.KeyBaseBranch))
		require.NoError(t, e.Metadata.Clear(ctx, "feature/x"))
		require.NoError(t, e.Metadata.Clear(ctx, "feature/x"))

		_, ok, err := e.Metadata.Read(ctx, "feature/x")
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestMetadataWriteFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// A backend rooted outside any repository cannot write local config
	e := engine.New(git.NewBackend(t.TempDir()))
	err := e.Metadata.Set(ctx, "feature", engine.KeyBaseBranch, "main")
	require.Error(t, err)

	var writeErr *cwerrors.MetadataWriteError
	require.ErrorAs(t, err, &writeErr)
	require.Equal(t, "feature", writeErr.BranchName)
	require.ErrorIs(t, err, cwerrors.ErrBackend)
}

func TestRegistryStatuses(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)

	cleanPath := scene.Sibling("repo-clean")
	dirtyPath := scene.Sibling("repo-dirty")
	stalePath := scene.Sibling("repo-stale")
	activePath := scene.Sibling("repo-active")
	for branch, path := range map[string]string{
		"clean": cleanPath, "dirty": dirtyPath, "stale": stalePath, "active": activePath,
	} {
		require.NoError(t, scene.Repo.AddWorktree(path, branch, "main"))
	}
	require.NoError(t, scene.Repo.At(dirtyPath).WriteFile("untracked.txt", "x"))
	require.NoError(t, os.RemoveAll(stalePath))

	sub := filepath.Join(activePath, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o750))

	e := newEngine(t, scene, engine.WithWorkingDir(sub))
	require.NoError(t, e.Metadata.Write(ctx, "clean", engine.MetadataRecord{BaseBranch: "main", BasePath: scene.Dir}))

	worktrees, err := e.Registry.List(ctx)
	require.NoError(t, err)
	require.Len(t, worktrees, 5)
	require.True(t, worktrees[0].IsMain)
	require.Equal(t, "main", worktrees[0].Branch)

	byBranch := map[string]engine.Worktree{}
	for _, wt := range worktrees {
		byBranch[wt.Branch] = wt
	}
	require.Equal(t, engine.StatusClean, byBranch["main"].Status)
	require.Equal(t, engine.StatusClean, byBranch["clean"].Status)
	require.Equal(t, engine.StatusModified, byBranch["dirty"].Status)
	require.Equal(t, engine.StatusStale, byBranch["stale"].Status)
	require.Equal(t, engine.StatusActive, byBranch["active"].Status)

	require.Equal(t, "main", byBranch["clean"].BaseBranch)
	require.True(t, byBranch["clean"].HasMetadata())
	require.False(t, byBranch["dirty"].HasMetadata())
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
	featurePath := scene.Sibling("repo-feature")
	require.NoError(t, scene.Repo.AddWorktree(featurePath, "feature", "main"))

	e := newEngine(t, scene, engine.WithWorkingDir(featurePath))

	t.Run("by branch", func(t *testing.T) {
		wt, err := e.Registry.Resolve(ctx, engine.BranchTarget{Name: "feature"})
		require.NoError(t, err)
		require.Equal(t, featurePath, wt.Path)
	})

	t.Run("by path", func(t *testing.T) {
		wt, err := e.Registry.Resolve(ctx, engine.PathTarget{Path: featurePath})
		require.NoError(t, err)
		require.Equal(t, "feature", wt.Branch)
	})

	t.Run("empty branch means current worktree", func(t *testing.T) {
		wt, err := e.Registry.Resolve(ctx, engine.BranchTarget{})
		require.NoError(t, err)
		require.Equal(t, "feature", wt.Branch)
		require.Equal(t, engine.StatusActive, wt.Status)
	})

	t.Run("unknown target", func(t *testing.T) {
		_, err := e.Registry.Resolve(ctx, engine.BranchTarget{Name: "nope"})
		var notFound *cwerrors.WorktreeNotFoundError
		require.ErrorAs(t, err, &notFound)
		require.ErrorIs(t, err, cwerrors.ErrValidation)

		_, err = e.Registry.Resolve(ctx, engine.PathTarget{Path: scene.Root})
		require.ErrorAs(t, err, &notFound)
	})
}

func TestParseTarget(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	require.Equal(t, engine.PathTarget{Path: dir}, engine.ParseTarget(dir))
	require.Equal(t, engine.BranchTarget{Name: "feature/x"}, engine.ParseTarget("refs/heads/feature/x"))
	require.Equal(t, engine.BranchTarget{Name: "no-such-path-or-branch"}, engine.ParseTarget("no-such-path-or-branch"))
}

func TestRebaseWorktreeAbortsOnConflict(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
		return s.Repo.CommitFile("a.txt", "base\n", "base")
	})
	path := scene.Sibling("repo-y")
	require.NoError(t, scene.Repo.AddWorktree(path, "feature-y", "main"))
	require.NoError(t, scene.Repo.At(path).CommitFile("a.txt", "feature\n", "feature edit"))
	require.NoError(t, scene.Repo.CommitFile("a.txt", "main\n", "main edit"))

	e := newEngine(t, scene)
	wt, err := e.Registry.Find(ctx, "feature-y")
	require.NoError(t, err)
	before := testhelpers.SnapshotTree(t, path)
	head, err := scene.Repo.GetRevision("feature-y")
	require.NoError(t, err)

	err = e.RebaseWorktree(ctx, wt, e.RebaseTarget(ctx, "main"))
	var conflict *cwerrors.RebaseConflictError
	require.ErrorAs(t, err, &conflict)
	require.ErrorIs(t, err, cwerrors.ErrConflict)
	require.Equal(t, []string{"a.txt"}, conflict.Files)
	require.Equal(t, "main", conflict.Onto)

	require.False(t, scene.Repo.At(path).RebaseInProgress())
	require.Equal(t, before, testhelpers.SnapshotTree(t, path))
	after, err := scene.Repo.GetRevision("feature-y")
	require.NoError(t, err)
	require.Equal(t, head, after)
}

func TestRebaseTargetPrefersRemoteOnlyWhenItContainsBase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
	_, err := scene.Repo.CreateBareRemote("origin")
	require.NoError(t, err)
	require.NoError(t, scene.Repo.PushBranch("origin", "main"))

	e := newEngine(t, scene)
	require.Equal(t, "origin/main", e.RebaseTarget(ctx, "main"))

	// Local main moves ahead of origin/main
	require.NoError(t, scene.Repo.CreateChangeAndCommit("2", "2"))
	require.Equal(t, "main", e.RebaseTarget(ctx, "main"))

	require.Equal(t, "other", e.RebaseTarget(ctx, "other"))
}

func TestRequireCleanAndMetadata(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
	path := scene.Sibling("repo-dirty")
	require.NoError(t, scene.Repo.AddWorktree(path, "dirty", "main"))
	require.NoError(t, scene.Repo.At(path).WriteFile("1_test.txt", "changed"))

	fake := gittest.Wrap(git.NewBackend(scene.Dir))
	e := engine.New(fake)

	wt, err := e.Registry.Find(ctx, "dirty")
	require.NoError(t, err)
	err = e.RequireClean(ctx, wt)
	var dirty *cwerrors.DirtyWorktreeError
	require.True(t, errors.As(err, &dirty))

	_, err = e.RequireMetadata(ctx, "dirty")
	var missing *cwerrors.MissingMetadataError
	require.ErrorAs(t, err, &missing)

	mainWt, err := e.MainWorktree(ctx)
	require.NoError(t, err)
	require.Equal(t, scene.Dir, mainWt.Path)

	none, err := e.CheckedOutAt(ctx, "not-checked-out")
	require.NoError(t, err)
	require.Nil(t, none)
}
