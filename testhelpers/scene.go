// Package testhelpers provides testing utilities for cw, including a scene
// system, Git repository helpers, and custom assertions.
package testhelpers

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Scene represents a test scene with a temporary directory and Git repository.
// The repository lives in Root/repo so that sibling worktree directories
// created next to it stay inside the temporary directory.
type Scene struct {
	Root string
	Dir  string
	Repo *GitRepo
}

// SceneSetup is a function type for setting up a scene.
type SceneSetup func(*Scene) error

// NewScene creates a new test scene. It never changes the process working
// directory, so scenes are safe to use from parallel tests.
func NewScene(t *testing.T, setup SceneSetup) *Scene {
	t.Helper()

	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	dir := filepath.Join(root, "repo")
	repo, err := NewGitRepo(dir)
	require.NoError(t, err, "failed to create git repo")

	scene := &Scene{Root: root, Dir: dir, Repo: repo}

	if setup != nil {
		require.NoError(t, setup(scene), "scene setup failed")
	}
	return scene
}

// Sibling returns the default location of a worktree next to the repository.
func (s *Scene) Sibling(name string) string {
	return filepath.Join(s.Root, name)
}

// BasicSceneSetup creates a single commit on main.
func BasicSceneSetup(scene *Scene) error {
	return scene.Repo.CreateChangeAndCommit("1", "1")
}
