package pr_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	gogithub "github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/require"

	"worktree.dev/cw/internal/actions/pr"
	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/internal/github"
	"worktree.dev/cw/testhelpers"
	"worktree.dev/cw/testhelpers/scenario"
)

type recordingCreator struct {
	head, base, title, body string
	draft                   bool
	err                     error
}

func (c *recordingCreator) CreatePullRequest(_ context.Context, head, base, title, body string, draft bool) (string, error) {
	c.head, c.base, c.title, c.body, c.draft = head, base, title, body, draft
	if c.err != nil {
		return "", c.err
	}
	return "https://github.com/owner/repo/pull/1", nil
}

func remoteHas(t *testing.T, s *scenario.Scenario, branch, sha string) {
	t.Helper()
	out, err := s.Scene.Repo.RunGitCommandAndGetOutput("ls-remote", "origin", "refs/heads/"+branch)
	require.NoError(t, err)
	require.Contains(t, out, sha)
}

func TestPullRequest(t *testing.T) {
	t.Parallel()

	t.Run("rebases, pushes and opens a pull request without deleting anything", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup).WithRemote()
		path := s.WithWorktree("feature-x", "main")
		require.NoError(t, s.Worktree(path).CommitFile("x.txt", "x\n", "Add x"))
		creator := &recordingCreator{}

		res, err := pr.Action(s.Context, creator, pr.Options{Branch: "feature-x"})
		require.NoError(t, err)
		require.True(t, res.Pushed)
		require.Equal(t, "https://github.com/owner/repo/pull/1", res.URL)

		require.Equal(t, "feature-x", creator.head)
		require.Equal(t, "main", creator.base)
		require.Equal(t, "Add x", creator.title)
		require.Equal(t, "- Add x", creator.body)
		require.False(t, creator.draft)

		remoteHas(t, s, "feature-x", s.Revision("feature-x"))
		require.DirExists(t, path)
		require.True(t, s.Scene.Repo.BranchExists("feature-x"))
		s.ExpectMetadata("feature-x", "main")
	})

	t.Run("force-pushes a rebased branch", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup).WithRemote()
		path := s.WithWorktree("feature-x", "main")
		require.NoError(t, s.Worktree(path).CommitFile("x.txt", "x\n", "Add x"))
		require.NoError(t, s.Worktree(path).PushBranch("origin", "feature-x"))
		require.NoError(t, s.Scene.Repo.CommitFile("b.txt", "b\n", "main moves"))
		require.NoError(t, s.Scene.Repo.PushBranch("origin", "main"))

		_, err := pr.Action(s.Context, &recordingCreator{}, pr.Options{Branch: "feature-x", Title: "T", Draft: true})
		require.NoError(t, err)
		require.True(t, s.Scene.Repo.IsAncestor("main", "feature-x"))
		remoteHas(t, s, "feature-x", s.Revision("feature-x"))
	})

	t.Run("defaults describe only feature commits when the remote base is ahead", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup).WithRemote()
		path := s.WithWorktree("feature-x", "main")
		require.NoError(t, s.Worktree(path).CommitFile("x.txt", "x\n", "Add x"))
		require.NoError(t, s.Scene.Repo.CommitFile("up.txt", "up\n", "Upstream work"))
		require.NoError(t, s.Scene.Repo.PushBranch("origin", "main"))
		s.RunGit("reset", "--hard", "HEAD~1")
		creator := &recordingCreator{}

		res, err := pr.Action(s.Context, creator, pr.Options{Branch: "feature-x"})
		require.NoError(t, err)
		require.Equal(t, "origin/main", res.Onto)
		require.Equal(t, []string{"Add x"}, res.Commits)
		require.Equal(t, "Add x", creator.title)
		require.Equal(t, "- Add x", creator.body)
	})

	t.Run("creation failure keeps the push", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup).WithRemote()
		path := s.WithWorktree("feature-x", "main")
		require.NoError(t, s.Worktree(path).CommitFile("x.txt", "x\n", "Add x"))

		res, err := pr.Action(s.Context, &recordingCreator{err: errors.New("422 already exists")}, pr.Options{Branch: "feature-x"})
		require.NoError(t, err)
		require.True(t, res.Pushed)
		require.EqualError(t, res.PRError, "422 already exists")
		remoteHas(t, s, "feature-x", s.Revision("feature-x"))
	})

	t.Run("dry run only plans", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup).WithRemote()
		path := s.WithWorktree("feature-x", "main")
		require.NoError(t, s.Worktree(path).CommitFile("x.txt", "x\n", "Add x"))
		creator := &recordingCreator{}

		res, err := pr.Action(s.Context, creator, pr.Options{Branch: "feature-x", DryRun: true})
		require.NoError(t, err)
		require.Len(t, res.Plan, 3)
		require.False(t, res.Pushed)
		require.Empty(t, creator.head)
		_, err = s.Scene.Repo.RunGitCommandAndGetOutput("ls-remote", "--exit-code", "origin", "refs/heads/feature-x")
		require.Error(t, err)
	})

	t.Run("requires a remote", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithWorktree("feature-x", "main")

		_, err := pr.Action(s.Context, &recordingCreator{}, pr.Options{Branch: "feature-x"})
		require.ErrorIs(t, err, cwerrors.ErrValidation)
	})

	t.Run("opens the pull request through the GitHub API", func(t *testing.T) {
		t.Parallel()
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup).WithRemote()
		path := s.WithWorktree("feature-x", "main")
		require.NoError(t, s.Worktree(path).CommitFile("x.txt", "x\n", "Add x"))
		s.Context.Config.PR.Draft = true

		var got gogithub.NewPullRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"number":3,"html_url":"https://github.com/owner/repo/pull/3"}`))
		}))
		t.Cleanup(server.Close)
		api := gogithub.NewClient(nil)
		api.BaseURL, _ = url.Parse(server.URL + "/")

		res, err := pr.Action(s.Context, github.NewClientWithAPI(api, "owner", "repo"), pr.Options{Branch: "feature-x"})
		require.NoError(t, err)
		require.NoError(t, res.PRError)
		require.Equal(t, "https://github.com/owner/repo/pull/3", res.URL)
		require.True(t, got.GetDraft())
		require.Equal(t, "feature-x", got.GetHead())
	})
}
