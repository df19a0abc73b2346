package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"worktree.dev/cw/internal/actions"
	"worktree.dev/cw/internal/actions/create"
	"worktree.dev/cw/internal/engine"
	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/internal/runtime"
)

// restoreRef temporarily holds the bundle tip while an existing branch is compared to it
const restoreRef = "refs/cw/restore"

// RestoreOptions contains options for restoring a backup
type RestoreOptions struct {
	Branch string
	// ID selects a backup; empty means the latest
	ID string
	// Path overrides the recorded worktree path
	Path string
}

// RestoreResult describes a restored worktree
type RestoreResult struct {
	Record Record
	Path   string
	// BranchCreated is set when the branch was recreated from the bundle
	BranchCreated bool
	// BranchReset is set when an existing branch was moved forward to the bundle tip
	BranchReset bool
	// PatchError is set when the history was restored but the uncommitted
	// changes could not be reapplied
	PatchError error
}

// Restore recreates the worktree of a backup: its branch history, its
// uncommitted changes and its metadata.
func Restore(ctx *runtime.Context, opts RestoreOptions) (*RestoreResult, error) {
	eng := ctx.Engine
	backend := eng.Backend
	splog := ctx.Splog

	if opts.Branch == "" {
		return nil, fmt.Errorf("a branch is required to restore a backup: %w", cwerrors.ErrValidation)
	}
	rec, err := Find(ctx.Config.BackupsDir, opts.Branch, opts.ID)
	if err != nil {
		return nil, err
	}
	branch := rec.Branch
	result := &RestoreResult{Record: rec}

	dest, err := destination(ctx, rec, opts.Path)
	if err != nil {
		return result, err
	}
	result.Path = dest
	if err := requireEmpty(dest); err != nil {
		return result, err
	}

	if wt, err := eng.CheckedOutAt(ctx, branch); err != nil {
		return result, err
	} else if wt != nil {
		if wt.Status != engine.StatusStale {
			return result, cwerrors.NewBranchAlreadyCheckedOutError(branch, wt.Path)
		}
		if err := backend.PruneWorktrees(ctx); err != nil {
			return result, err
		}
	}

	if err := backend.VerifyBundle(ctx, rec.BundlePath()); err != nil {
		return result, err
	}
	exists, err := backend.BranchExists(ctx, branch)
	if err != nil {
		return result, err
	}
	if !exists {
		if err := backend.FetchFromBundle(ctx, rec.BundlePath(), branch, "refs/heads/"+branch); err != nil {
			return result, err
		}
		result.BranchCreated = true
	} else if result.BranchReset, err = fastForwardToBundle(ctx, rec); err != nil {
		return result, err
	}

	if err := backend.AddWorktree(ctx, dest, branch); err != nil {
		return result, err
	}
	splog.Info("Restored %s at %s.", actions.Branch(branch), dest)

	result.PatchError = reapply(ctx, rec, dest)
	if result.PatchError != nil {
		splog.Warn("History of %s was restored but its uncommitted changes were not: %v", branch, result.PatchError)
	}

	if rec.Snapshot.BaseBranch != "" {
		if err := eng.Metadata.Write(ctx, branch, engine.MetadataRecord{
			BaseBranch: rec.Snapshot.BaseBranch,
			BasePath:   rec.Snapshot.BasePath,
		}); err != nil {
			return result, err
		}
	}
	splog.Success("Restored backup %s of %s.", rec.ID, actions.Branch(branch))
	return result, nil
}

func destination(ctx *runtime.Context, rec Record, override string) (string, error) {
	path := override
	if path == "" {
		path = rec.Snapshot.WorktreePath
	}
	if path == "" {
		mainWt, err := ctx.Engine.MainWorktree(ctx)
		if err != nil {
			return "", err
		}
		path = create.DefaultPath(mainWt.Path, rec.Branch)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", cwerrors.NewIOError("resolve", path, err)
	}
	return abs, nil
}

// requireEmpty accepts a missing path or an empty directory
func requireEmpty(path string) error {
	entries, err := os.ReadDir(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil || len(entries) > 0 {
		return cwerrors.NewPathAlreadyExistsError(path)
	}
	return nil
}

// fastForwardToBundle moves an existing branch to the bundle tip when the
// tip descends from it. It reports whether the branch moved.
func fastForwardToBundle(ctx *runtime.Context, rec Record) (bool, error) {
	backend := ctx.Engine.Backend
	branch := rec.Branch

	local, err := backend.ResolveRevision(ctx, "refs/heads/"+branch)
	if err != nil {
		return false, err
	}
	if local == rec.Snapshot.Head {
		return false, nil
	}

	if err := backend.FetchFromBundle(ctx, rec.BundlePath(), branch, restoreRef); err != nil {
		return false, err
	}
	defer func() {
		if err := backend.DeleteRef(ctx, restoreRef); err != nil {
			ctx.Splog.Debug("Could not remove %s: %v", restoreRef, err)
		}
	}()
	tip, err := backend.ResolveRevision(ctx, restoreRef)
	if err != nil {
		return false, err
	}
	if tip == local {
		return false, nil
	}
	descends, err := backend.IsAncestor(ctx, local, tip)
	if err != nil {
		return false, err
	}
	if !descends {
		return false, &cwerrors.BranchDivergedError{BranchName: branch, Local: local, Backup: tip}
	}
	if err := backend.UpdateRef(ctx, "refs/heads/"+branch, tip, local); err != nil {
		return false, err
	}
	ctx.Splog.Info("Moved %s forward to the backed up tip.", actions.Branch(branch))
	return true, nil
}

// reapply restores the uncommitted changes of rec into dir
func reapply(ctx *runtime.Context, rec Record, dir string) error {
	var errs []error
	if rec.Snapshot.PatchFile != "" {
		patch, err := os.ReadFile(filepath.Join(rec.Dir, rec.Snapshot.PatchFile))
		if err != nil {
			errs = append(errs, cwerrors.NewIOError("read", filepath.Join(rec.Dir, rec.Snapshot.PatchFile), err))
		} else if err := ctx.Engine.Backend.ApplyPatch(ctx, dir, patch); err != nil {
			errs = append(errs, err)
		}
	}
	if len(rec.Snapshot.UntrackedFiles) > 0 {
		archive := filepath.Join(rec.Dir, ArchiveFile)
		if err := extractArchive(archive, dir); err != nil {
			errs = append(errs, cwerrors.NewIOError("extract", archive, err))
		}
	}
	return errors.Join(errs...)
}
