package create

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"worktree.dev/cw/internal/actions"
	"worktree.dev/cw/internal/engine"
	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/internal/runtime"
)

// Options contains options for the create command
type Options struct {
	Branch string
	// Base defaults to the branch checked out in the working directory
	Base string
	// Path defaults to DefaultPath next to the main checkout
	Path string
}

// Action creates branch (when missing) from base, checks it out in a new
// worktree and records its provenance. Either all of it happens or nothing.
func Action(ctx *runtime.Context, opts Options) (*engine.Worktree, error) {
	eng := ctx.Engine
	backend := eng.Backend
	splog := ctx.Splog

	branch := strings.TrimPrefix(opts.Branch, "refs/heads/")
	if err := backend.ValidateBranchName(ctx, branch); err != nil {
		return nil, err
	}

	base := opts.Base
	if base == "" {
		current, err := backend.CurrentBranch(ctx, eng.Registry.WorkingDir())
		if err != nil {
			return nil, fmt.Errorf("cannot default the base branch, pass one explicitly: %w", err)
		}
		base = current
	}
	baseExists, err := backend.BranchExists(ctx, base)
	if err != nil {
		return nil, err
	}
	if !baseExists {
		return nil, cwerrors.NewBranchNotFoundError(base)
	}

	mainWt, err := eng.MainWorktree(ctx)
	if err != nil {
		return nil, err
	}

	path := opts.Path
	if path == "" {
		path = DefaultPath(mainWt.Path, branch)
	}
	if path, err = filepath.Abs(path); err != nil {
		return nil, cwerrors.NewIOError("resolve", opts.Path, err)
	}

	existing, err := eng.CheckedOutAt(ctx, branch)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status != engine.StatusStale {
		return nil, cwerrors.NewBranchAlreadyCheckedOutError(branch, existing.Path)
	}
	if err := checkPathAvailable(path); err != nil {
		return nil, err
	}

	// Validation done; mutations start here
	if existing != nil {
		if err := backend.PruneWorktrees(ctx); err != nil {
			return nil, err
		}
		splog.Info("Pruned the stale registration of %s at %s.", actions.Branch(branch), existing.Path)
	}
	branchExists, err := backend.BranchExists(ctx, branch)
	if err != nil {
		return nil, err
	}
	createdBranch := false
	if !branchExists {
		if err := backend.CreateBranch(ctx, branch, base); err != nil {
			return nil, err
		}
		createdBranch = true
		splog.Debug("Created branch %s from %s", branch, base)
	}

	if err := backend.AddWorktree(ctx, path, branch); err != nil {
		rollback(ctx, "", branch, createdBranch)
		return nil, err
	}

	rec := engine.MetadataRecord{BaseBranch: base, BasePath: mainWt.Path}
	if err := eng.Metadata.Write(ctx, branch, rec); err != nil {
		rollback(ctx, path, branch, createdBranch)
		return nil, err
	}

	splog.Info("Created worktree for %s at %s (base: %s).",
		actions.Branch(branch), path, actions.Branch(base))

	return eng.Registry.Find(ctx, branch)
}

// DefaultPath returns <parent>/<repo>-<branch> next to the main checkout.
// Slashes in the branch name become dashes so the worktree is a direct sibling.
func DefaultPath(mainPath, branch string) string {
	name := filepath.Base(mainPath) + "-" + strings.ReplaceAll(branch, "/", "-")
	return filepath.Join(filepath.Dir(mainPath), name)
}

func checkPathAvailable(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return cwerrors.NewIOError("stat", path, err)
	}
	if !info.IsDir() {
		return cwerrors.NewPathAlreadyExistsError(path)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return cwerrors.NewIOError("read", path, err)
	}
	if len(entries) > 0 {
		return cwerrors.NewPathAlreadyExistsError(path)
	}
	return nil
}

// rollback undoes a partially created worktree. Failures are logged, the
// original error is what the caller reports.
func rollback(ctx *runtime.Context, path, branch string, deleteBranch bool) {
	backend := ctx.Engine.Backend
	if path != "" {
		if err := backend.RemoveWorktree(ctx, path, true); err != nil {
			ctx.Splog.Warn("Rollback could not remove worktree %s: %v", path, err)
		}
		if err := ctx.Engine.Metadata.Clear(ctx, branch); err != nil {
			ctx.Splog.Debug("Rollback could not clear metadata of %s: %v", branch, err)
		}
	}
	if deleteBranch {
		if err := backend.DeleteBranch(ctx, branch, true); err != nil {
			ctx.Splog.Warn("Rollback could not delete branch %s: %v", branch, err)
		}
	}
	ctx.Splog.Debug("Rolled back creation of %s", branch)
}
