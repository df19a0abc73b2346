package engine

import (
	"context"
	"fmt"

	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/internal/git"
)

// RebaseTarget returns the revision a feature based on base should be rebased onto:
// <remote>/<base> when it exists and already contains the local base, otherwise
// the local base itself. Using the local base whenever it is ahead keeps the
// result fast-forwardable onto it.
func (e *Engine) RebaseTarget(ctx context.Context, base string) string {
	remote := e.Backend.DefaultRemote(ctx)
	remoteRef := remote + "/" + base
	if _, err := e.Backend.ResolveRevision(ctx, remoteRef); err != nil {
		return base
	}
	if ok, err := e.Backend.IsAncestor(ctx, base, remoteRef); err != nil || !ok {
		return base
	}
	return remoteRef
}

// RebaseWorktree rebases the branch of wt onto the given revision. When the
// rebase conflicts the conflicted paths are collected, the rebase is aborted
// and a RebaseConflictError is returned; the worktree is never left mid-rebase.
func (e *Engine) RebaseWorktree(ctx context.Context, wt *Worktree, onto string) error {
	res, err := e.Backend.Rebase(ctx, wt.Path, onto)
	if err != nil {
		if e.Backend.RebaseInProgress(ctx, wt.Path) {
			_ = e.Backend.AbortRebase(ctx, wt.Path)
		}
		return err
	}
	if res == git.RebaseDone {
		return nil
	}

	files, listErr := e.Backend.ConflictedFiles(ctx, wt.Path)
	if abortErr := e.Backend.AbortRebase(ctx, wt.Path); abortErr != nil {
		return fmt.Errorf("rebase of %s conflicted and could not be aborted: %w", wt.Branch, abortErr)
	}
	if listErr != nil {
		files = nil
	}
	return cwerrors.NewRebaseConflictError(wt.Branch, onto, wt.Path, files)
}
