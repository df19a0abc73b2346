package actions

import (
	"fmt"
	"strings"

	"worktree.dev/cw/internal/engine"
	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/internal/runtime"
	"worktree.dev/cw/internal/tui"
)

// Feature is a feature worktree together with its recorded provenance
type Feature struct {
	Worktree *engine.Worktree
	Record   engine.MetadataRecord
}

// Branch returns the feature branch name
func (f *Feature) Branch() string {
	return f.Worktree.Branch
}

// ResolveWorktree finds the worktree of branch, or the current one when branch is empty
func ResolveWorktree(ctx *runtime.Context, branch string) (*engine.Worktree, error) {
	wt, err := ctx.Engine.Registry.Resolve(ctx, engine.BranchTarget{Name: branch})
	if err != nil {
		return nil, err
	}
	if wt.Detached || wt.Branch == "" {
		return nil, fmt.Errorf("worktree at %s: %w", wt.Path, cwerrors.ErrNotOnBranch)
	}
	if wt.Status == engine.StatusStale {
		return nil, cwerrors.NewWorktreeNotFoundError(wt.Path)
	}
	return wt, nil
}

// ResolveFeature resolves a feature worktree and requires its metadata
func ResolveFeature(ctx *runtime.Context, branch string) (*Feature, error) {
	wt, err := ResolveWorktree(ctx, branch)
	if err != nil {
		return nil, err
	}
	rec, err := ctx.Engine.RequireMetadata(ctx, wt.Branch)
	if err != nil {
		return nil, err
	}
	return &Feature{Worktree: wt, Record: rec}, nil
}

// FetchBases updates the remote-tracking refs of bases on the default remote.
// Without a remote it is a no-op, and a failed fetch only means later steps
// work with what is already known locally.
func FetchBases(ctx *runtime.Context, bases ...string) {
	backend := ctx.Engine.Backend
	remote := backend.DefaultRemote(ctx)
	if !backend.HasRemote(ctx, remote) {
		ctx.Splog.Debug("No remote %s, skipping fetch", remote)
		return
	}
	ctx.Splog.Info("Fetching %s from %s...", strings.Join(bases, ", "), remote)
	if err := backend.Fetch(ctx, remote, bases...); err != nil {
		ctx.Splog.Warn("Fetch from %s failed, using local refs: %v", remote, err)
	}
}

// RebaseOntoBase rebases a clean feature worktree onto the latest tip of its
// base and returns the revision it was rebased onto. A conflicting rebase is
// aborted before the error is returned.
func RebaseOntoBase(ctx *runtime.Context, f *Feature) (string, error) {
	eng := ctx.Engine
	if err := eng.RequireClean(ctx, f.Worktree); err != nil {
		return "", err
	}
	onto := eng.RebaseTarget(ctx, f.Record.BaseBranch)
	if err := eng.RebaseWorktree(ctx, f.Worktree, onto); err != nil {
		return onto, err
	}
	ctx.Splog.Info("Rebased %s onto %s.", Branch(f.Branch()), Branch(onto))
	return onto, nil
}

// Branch renders a branch name for console output
func Branch(name string) string {
	return tui.ColorBranchName(name, false)
}

// Pluralize returns a pluralized version of a word based on count
func Pluralize(word string, count int) string {
	if count == 1 {
		return word
	}
	if len(word) > 0 && (word[len(word)-1] == 'h' || word[len(word)-1] == 's') {
		return word + "es"
	}
	return word + "s"
}
