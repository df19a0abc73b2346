package delete

import (
	"errors"
	"fmt"

	"worktree.dev/cw/internal/actions"
	"worktree.dev/cw/internal/engine"
	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/internal/runtime"
)

// Options contains options for the delete command
type Options struct {
	// Target selects the worktree; nil means the current one
	Target engine.Target
	// KeepBranch keeps the branch and its metadata, only the worktree goes
	KeepBranch bool
	// DeleteRemote also deletes the branch on the default remote
	DeleteRemote bool
	// Force deletes the branch even when it is not merged into its base
	Force bool
	// KeepMetadata leaves the metadata record for the caller to clear
	KeepMetadata bool
	// Worktree skips resolving Target. Batch callers pass entries listed
	// before an earlier prune dropped their registration.
	Worktree *engine.Worktree
}

// Result describes what Action removed
type Result struct {
	Worktree      engine.Worktree
	BranchDeleted bool
	RemoteDeleted bool
	// RemoteError is set when the remote branch could not be deleted
	RemoteError error
}

// Action removes a worktree and, unless KeepBranch is set, its branch and metadata.
// An unmerged branch is kept (UnmergedChangesError) while the worktree
// binding and metadata are still removed.
func Action(ctx *runtime.Context, opts Options) (*Result, error) {
	eng := ctx.Engine
	backend := eng.Backend
	splog := ctx.Splog

	wt := opts.Worktree
	if wt == nil {
		target := opts.Target
		if target == nil {
			target = engine.BranchTarget{}
		}
		var err error
		if wt, err = eng.Registry.Resolve(ctx, target); err != nil {
			return nil, err
		}
	}
	if wt.IsMain {
		return nil, fmt.Errorf("refusing to delete the main worktree at %s: %w", wt.Path, cwerrors.ErrValidation)
	}

	result := &Result{Worktree: *wt}
	branch := wt.Branch
	deleteBranch := !opts.KeepBranch && branch != ""

	// Decided before anything is removed, the record may be cleared below
	var unmerged error
	if deleteBranch && !opts.Force {
		unmerged = checkMerged(ctx, wt)
	}

	if wt.Status == engine.StatusStale {
		if err := backend.PruneWorktrees(ctx); err != nil {
			return result, err
		}
	} else if err := backend.RemoveWorktree(ctx, wt.Path, true); err != nil {
		return result, err
	}
	splog.Info("Removed worktree %s.", wt.Path)

	if deleteBranch {
		if unmerged == nil {
			if err := backend.DeleteBranch(ctx, branch, true); err != nil {
				return result, err
			}
			result.BranchDeleted = true
			splog.Info("Deleted branch %s.", actions.Branch(branch))
		}
		if !opts.KeepMetadata {
			if err := eng.Metadata.Clear(ctx, branch); err != nil {
				return result, err
			}
		}
	}

	if unmerged != nil {
		if opts.DeleteRemote {
			result.RemoteError = errors.New("kept because the local branch is not merged")
			splog.Warn("Skipped deleting %s on the remote: the local branch is not merged, use --force to delete both.", branch)
		}
		return result, unmerged
	}

	if opts.DeleteRemote && branch != "" {
		remote := backend.DefaultRemote(ctx)
		switch {
		case !backend.HasRemote(ctx, remote):
			result.RemoteError = fmt.Errorf("remote %s is not configured", remote)
		default:
			result.RemoteError = backend.DeleteRemoteBranch(ctx, remote, branch)
		}
		if result.RemoteError != nil {
			splog.Warn("Could not delete %s on the remote: %v", branch, result.RemoteError)
		} else {
			result.RemoteDeleted = true
			splog.Info("Deleted %s/%s.", remote, branch)
		}
	}

	return result, nil
}

// checkMerged returns an UnmergedChangesError when the branch tip is not
// contained in its recorded base (the main checkout's branch without a record).
func checkMerged(ctx *runtime.Context, wt *engine.Worktree) error {
	base := wt.BaseBranch
	if base == "" {
		mainWt, err := ctx.Engine.MainWorktree(ctx)
		if err != nil || mainWt.Branch == "" {
			return cwerrors.NewUnmergedChangesError(wt.Branch, "")
		}
		base = mainWt.Branch
	}
	merged, err := ctx.Engine.Backend.IsAncestor(ctx, wt.Branch, base)
	if err != nil || !merged {
		return cwerrors.NewUnmergedChangesError(wt.Branch, base)
	}
	return nil
}
