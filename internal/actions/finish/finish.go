package finish

import (
	"errors"
	"fmt"

	"worktree.dev/cw/internal/actions"
	deleteaction "worktree.dev/cw/internal/actions/delete"
	"worktree.dev/cw/internal/engine"
	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/internal/git"
	"worktree.dev/cw/internal/runtime"
)

// Confirmer approves a step of an interactive finish
type Confirmer interface {
	Confirm(message string) (bool, error)
}

// Options contains options for the finish command
type Options struct {
	// Branch selects the feature worktree; empty means the current one
	Branch string
	// Push pushes the base branch after the merge
	Push bool
	// DryRun reports the plan without changing anything
	DryRun bool
	// Interactive asks before the rebase, the merge and the cleanup
	Interactive bool
	// Confirmer answers interactive questions; defaults to the context's prompter
	Confirmer Confirmer
}

// Result describes how far a finish got
type Result struct {
	Branch     string
	BaseBranch string
	BasePath   string
	State      State

	// Onto is the revision the feature was (or would be) rebased onto
	Onto string
	// Commits are the subjects of the feature commits being merged
	Commits []string
	// Plan lists the steps of a dry run
	Plan []string
	// Conflicts are the paths a dry run predicts to conflict
	Conflicts []string
	// MergedHead is the base tip after the fast-forward
	MergedHead string

	Pushed    bool
	PushError error
}

// Action rebases the feature onto its base, fast-forwards the base to it,
// removes the feature worktree and branch and finally clears its metadata.
func Action(ctx *runtime.Context, opts Options) (*Result, error) {
	eng := ctx.Engine
	backend := eng.Backend
	splog := ctx.Splog

	feature, err := actions.ResolveFeature(ctx, opts.Branch)
	if err != nil {
		return nil, err
	}
	branch := feature.Branch()
	base := feature.Record.BaseBranch
	result := &Result{
		Branch:     branch,
		BaseBranch: base,
		BasePath:   feature.Record.BasePath,
		State:      StateIdle,
	}

	if ok, err := backend.BranchExists(ctx, base); err != nil {
		return result, err
	} else if !ok {
		return result, cwerrors.NewBranchNotFoundError(base)
	}

	if opts.DryRun {
		return result, plan(ctx, feature, opts, result)
	}

	confirmer := opts.Confirmer
	if confirmer == nil && ctx.Prompter != nil {
		confirmer = ctx.Prompter
	}
	confirm := func(message string) error {
		if !opts.Interactive {
			return nil
		}
		if confirmer == nil {
			return fmt.Errorf("no prompter available: %w", cwerrors.ErrAborted)
		}
		ok, err := confirmer.Confirm(message)
		if err != nil {
			return err
		}
		if !ok {
			splog.Info("Stopped before: %s", message)
			return cwerrors.ErrAborted
		}
		return nil
	}

	// Fetching
	result.State = StateFetching
	actions.FetchBases(ctx, base)

	// Rebasing
	if err := confirm(fmt.Sprintf("Rebase %s onto the latest %s?", branch, base)); err != nil {
		return result, err
	}
	result.State = StateRebasing
	expectedBase, err := backend.ResolveRevision(ctx, base)
	if err != nil {
		return result, err
	}
	onto, err := actions.RebaseOntoBase(ctx, feature)
	result.Onto = onto
	if err != nil {
		if errors.Is(err, cwerrors.ErrConflict) {
			result.State = StateConflicted
		}
		return result, err
	}
	result.State = StateRebased

	if result.Commits, err = backend.CommitSubjects(ctx, onto, branch); err != nil {
		splog.Debug("Could not list commits of %s: %v", branch, err)
	}

	// Merging
	if err := confirm(fmt.Sprintf("Fast-forward %s to %s (%d %s)?",
		base, branch, len(result.Commits), actions.Pluralize("commit", len(result.Commits)))); err != nil {
		return result, err
	}
	result.State = StateMerging
	if err := fastForward(ctx, base, branch, expectedBase, result); err != nil {
		return result, err
	}
	splog.Info("Merged %s into %s.", actions.Branch(branch), actions.Branch(base))

	// Cleanup
	if err := confirm(fmt.Sprintf("Remove worktree %s and delete branch %s?", feature.Worktree.Path, branch)); err != nil {
		return result, err
	}
	result.State = StateCleanup
	if _, err := deleteaction.Action(ctx, deleteaction.Options{
		Target:       engine.BranchTarget{Name: branch},
		Force:        true,
		KeepMetadata: true,
	}); err != nil {
		return result, fmt.Errorf("merged %s into %s but cleanup failed: %w", branch, base, err)
	}
	if err := eng.Metadata.Clear(ctx, branch); err != nil {
		return result, err
	}

	if opts.Push {
		push(ctx, base, result)
	}

	result.State = StateDone
	splog.Success("Finished %s.", actions.Branch(branch))
	if feature.Worktree.Status == engine.StatusActive && result.BasePath != "" {
		splog.Tip("This worktree is gone, continue in %s", result.BasePath)
	}
	return result, nil
}

// fastForward moves base to the rebased feature tip, refusing when base moved
// since expectedBase was observed.
func fastForward(ctx *runtime.Context, base, branch, expectedBase string, result *Result) error {
	eng := ctx.Engine
	backend := eng.Backend

	newTip, err := backend.ResolveRevision(ctx, branch)
	if err != nil {
		return err
	}
	current, err := backend.ResolveRevision(ctx, base)
	if err != nil {
		return err
	}
	if current != expectedBase {
		return cwerrors.NewConcurrentBaseUpdateError(base, expectedBase, current)
	}

	dir := ""
	baseWt, err := eng.CheckedOutAt(ctx, base)
	if err != nil {
		return err
	}
	if baseWt != nil && baseWt.Status != engine.StatusStale {
		dir = baseWt.Path
	}
	if err := backend.FastForward(ctx, dir, base, newTip, expectedBase); err != nil {
		return err
	}
	result.MergedHead = newTip
	return nil
}

func push(ctx *runtime.Context, base string, result *Result) {
	backend := ctx.Engine.Backend
	remote := backend.DefaultRemote(ctx)
	if !backend.HasRemote(ctx, remote) {
		result.PushError = fmt.Errorf("remote %s is not configured", remote)
	} else {
		result.PushError = backend.Push(ctx, remote, base, git.PushOptions{})
	}
	if result.PushError != nil {
		ctx.Splog.Warn("Merged locally but pushing %s failed: %v", base, result.PushError)
		return
	}
	result.Pushed = true
	ctx.Splog.Info("Pushed %s to %s.", actions.Branch(base), remote)
}
