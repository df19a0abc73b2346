// Package scenario provides a high-level test scenario that combines a Scene,
// an Engine, and a runtime Context to provide a terse API for action tests.
package scenario

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"worktree.dev/cw/internal/config"
	"worktree.dev/cw/internal/engine"
	"worktree.dev/cw/internal/git"
	"worktree.dev/cw/internal/runtime"
	"worktree.dev/cw/internal/tui"
	"worktree.dev/cw/testhelpers"
)

// Scenario combines a scene with an engine and a runtime context whose
// working directory is the main checkout.
type Scenario struct {
	T        *testing.T
	Scene    *testhelpers.Scene
	Backend  git.Backend
	Engine   *engine.Engine
	Context  *runtime.Context
	Output   *bytes.Buffer
	Prompter *ScriptedPrompter
}

// NewScenario creates a scenario. It never changes the process environment or
// working directory, so scenarios are safe to use from parallel tests.
func NewScenario(t *testing.T, setup testhelpers.SceneSetup) *Scenario {
	t.Helper()
	scene := testhelpers.NewScene(t, setup)
	s := &Scenario{
		T:        t,
		Scene:    scene,
		Backend:  git.NewBackend(scene.Dir),
		Output:   &bytes.Buffer{},
		Prompter: &ScriptedPrompter{},
	}
	return s.build(scene.Dir)
}

// WithBackend rebuilds the engine over backend, typically a gittest wrapper
func (s *Scenario) WithBackend(backend git.Backend) *Scenario {
	s.Backend = backend
	return s.build(s.Context.Engine.Registry.WorkingDir())
}

// At rebuilds the context as if the command ran from dir
func (s *Scenario) At(dir string) *Scenario {
	return s.build(dir)
}

func (s *Scenario) build(dir string) *Scenario {
	s.T.Helper()
	splog, err := tui.NewSplogWithConfig(s.Output, "")
	require.NoError(s.T, err)

	cfg := config.DefaultConfig()
	cfg.BackupsDir = filepath.Join(s.Scene.Root, "backups")
	cfg.LogFile = ""

	s.Engine = engine.New(s.Backend, engine.WithWorkingDir(dir))
	s.Context = runtime.NewContext(context.Background(), s.Engine, splog, cfg)
	s.Context.Prompter = s.Prompter
	return s
}

// WithInitialCommit creates an initial commit on the main branch.
func (s *Scenario) WithInitialCommit() *Scenario {
	s.T.Helper()
	require.NoError(s.T, s.Scene.Repo.CommitFile("README.md", "# repo\n", "initial"))
	return s
}

// WithRemote adds a bare remote named origin and pushes main to it.
func (s *Scenario) WithRemote() *Scenario {
	s.T.Helper()
	_, err := s.Scene.Repo.CreateBareRemote("origin")
	require.NoError(s.T, err)
	require.NoError(s.T, s.Scene.Repo.PushBranch("origin", "main"))
	return s
}

// WithWorktree creates branch from base in a sibling worktree and records its
// metadata the way `cw new` does. Returns the worktree path.
func (s *Scenario) WithWorktree(branch, base string) string {
	s.T.Helper()
	path := s.Scene.Sibling("repo-" + branch)
	require.NoError(s.T, s.Scene.Repo.AddWorktree(path, branch, base))
	require.NoError(s.T, s.Engine.Metadata.Write(context.Background(), branch, engine.MetadataRecord{
		BaseBranch: base,
		BasePath:   s.Scene.Dir,
	}))
	return path
}

// Worktree returns a GitRepo for a linked worktree directory.
func (s *Scenario) Worktree(path string) *testhelpers.GitRepo {
	return s.Scene.Repo.At(path)
}

// RunGit runs a git command in the scenario's repository.
func (s *Scenario) RunGit(args ...string) *Scenario {
	s.T.Helper()
	require.NoError(s.T, s.Scene.Repo.RunGitCommand(args...))
	return s
}

// Revision returns the SHA of rev.
func (s *Scenario) Revision(rev string) string {
	s.T.Helper()
	sha, err := s.Scene.Repo.GetRevision(rev)
	require.NoError(s.T, err)
	return sha
}

// ExpectMetadata asserts the recorded base of branch; an empty base asserts absence.
func (s *Scenario) ExpectMetadata(branch, base string) *Scenario {
	s.T.Helper()
	rec, ok, err := s.Engine.Metadata.Read(context.Background(), branch)
	require.NoError(s.T, err)
	if base == "" {
		require.False(s.T, ok, "expected no metadata for %s, got %+v", branch, rec)
		return s
	}
	require.True(s.T, ok, "expected metadata for %s", branch)
	require.Equal(s.T, base, rec.BaseBranch)
	return s
}

// ScriptedPrompter answers prompts from a script and records the questions
type ScriptedPrompter struct {
	Answers    []bool
	Selections [][]string
	Asked      []string
}

// Confirm pops the next scripted answer; an empty script answers yes
func (p *ScriptedPrompter) Confirm(message string) (bool, error) {
	p.Asked = append(p.Asked, message)
	if len(p.Answers) == 0 {
		return true, nil
	}
	answer := p.Answers[0]
	p.Answers = p.Answers[1:]
	return answer, nil
}

// MultiSelect pops the next scripted selection; an empty script selects everything
func (p *ScriptedPrompter) MultiSelect(message string, options []string) ([]string, error) {
	p.Asked = append(p.Asked, message)
	if len(p.Selections) == 0 {
		return options, nil
	}
	selected := p.Selections[0]
	p.Selections = p.Selections[1:]
	return selected, nil
}
