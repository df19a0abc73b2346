package pr

import (
	"context"
	"fmt"
	"strings"

	"worktree.dev/cw/internal/actions"
	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/internal/git"
	"worktree.dev/cw/internal/runtime"
)

// PullRequestCreator opens pull requests. github.Client is the real implementation.
type PullRequestCreator interface {
	CreatePullRequest(ctx context.Context, head, base, title, body string, draft bool) (string, error)
}

// Options contains options for the pr command
type Options struct {
	// Branch selects the feature worktree; empty means the current one
	Branch string
	// Title defaults to the only commit subject, or the branch name
	Title string
	// Body defaults to a list of the commit subjects
	Body   string
	Draft  bool
	DryRun bool
}

// Result describes the pushed branch and the pull request
type Result struct {
	Branch     string
	BaseBranch string
	Onto       string
	Commits    []string
	Conflicts  []string
	Plan       []string

	Pushed bool
	URL    string
	// PRError is set when the branch was pushed but the pull request could not be opened
	PRError error
}

// Action rebases the feature onto its base, pushes it and opens a pull
// request. The worktree and branch are kept.
func Action(ctx *runtime.Context, creator PullRequestCreator, opts Options) (*Result, error) {
	eng := ctx.Engine
	backend := eng.Backend
	splog := ctx.Splog

	feature, err := actions.ResolveFeature(ctx, opts.Branch)
	if err != nil {
		return nil, err
	}
	branch := feature.Branch()
	base := feature.Record.BaseBranch
	result := &Result{Branch: branch, BaseBranch: base}

	if ok, err := backend.BranchExists(ctx, base); err != nil {
		return result, err
	} else if !ok {
		return result, cwerrors.NewBranchNotFoundError(base)
	}
	remote := backend.DefaultRemote(ctx)
	draft := opts.Draft || ctx.Config.PR.Draft

	if opts.DryRun {
		result.Onto = eng.RebaseTarget(ctx, base)
		if result.Commits, err = backend.CommitSubjects(ctx, result.Onto, branch); err != nil {
			return result, err
		}
		sim, err := backend.SimulateMerge(ctx, result.Onto, branch)
		if err != nil {
			return result, err
		}
		result.Conflicts = sim.ConflictedFiles
		result.Plan = []string{
			fmt.Sprintf("rebase %s onto %s", branch, result.Onto),
			fmt.Sprintf("push %s to %s with --force-with-lease", branch, remote),
			fmt.Sprintf("open a pull request %q from %s into %s", title(opts, branch, result.Commits), branch, base),
		}
		splog.Info("Dry run: would")
		for i, step := range result.Plan {
			splog.Info("  %d. %s", i+1, step)
		}
		if len(result.Conflicts) > 0 {
			splog.Warn("The rebase is expected to conflict on: %s", strings.Join(result.Conflicts, ", "))
		}
		return result, nil
	}

	if !backend.HasRemote(ctx, remote) {
		return result, fmt.Errorf("cannot open a pull request for %s: remote %s is not configured: %w",
			branch, remote, cwerrors.ErrValidation)
	}

	actions.FetchBases(ctx, base)
	if result.Onto, err = actions.RebaseOntoBase(ctx, feature); err != nil {
		return result, err
	}
	if result.Commits, err = backend.CommitSubjects(ctx, result.Onto, branch); err != nil {
		splog.Debug("Could not list commits of %s: %v", branch, err)
	}

	// The rebase rewrote history, so a plain push would be rejected
	if err := backend.Push(ctx, remote, branch, git.PushOptions{ForceWithLease: true, SetUpstream: true}); err != nil {
		return result, err
	}
	result.Pushed = true
	splog.Info("Pushed %s to %s.", actions.Branch(branch), remote)

	if creator == nil {
		result.PRError = fmt.Errorf("no GitHub client available")
	} else {
		result.URL, result.PRError = creator.CreatePullRequest(ctx, branch, base,
			title(opts, branch, result.Commits), body(opts, result.Commits), draft)
	}
	if result.PRError != nil {
		splog.Warn("Pushed %s but could not open a pull request: %v", branch, result.PRError)
		return result, nil
	}
	splog.Success("Opened %s", result.URL)
	return result, nil
}

func title(opts Options, branch string, commits []string) string {
	if opts.Title != "" {
		return opts.Title
	}
	if len(commits) == 1 {
		return commits[0]
	}
	return branch
}

func body(opts Options, commits []string) string {
	if opts.Body != "" {
		return opts.Body
	}
	var b strings.Builder
	for _, subject := range commits {
		b.WriteString("- ")
		b.WriteString(subject)
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
