package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"worktree.dev/cw/internal/actions"
	"worktree.dev/cw/internal/engine"
	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/internal/runtime"
)

const lockRetryDelay = 100 * time.Millisecond

// Options contains options for the backup command
type Options struct {
	// Branch selects the worktree to back up; empty means the current one
	Branch string
	// All backs up every feature worktree
	All bool
}

// Create backs up the selected worktrees and returns one record per backup written
func Create(ctx *runtime.Context, opts Options) ([]Record, error) {
	root := ctx.Config.BackupsDir
	if root == "" {
		return nil, fmt.Errorf("no backups directory configured: %w", cwerrors.ErrValidation)
	}

	if !opts.All {
		wt, err := actions.ResolveWorktree(ctx, opts.Branch)
		if err != nil {
			return nil, err
		}
		rec, err := createOne(ctx, root, wt)
		if err != nil {
			return nil, err
		}
		return []Record{rec}, nil
	}

	worktrees, err := ctx.Engine.Registry.List(ctx)
	if err != nil {
		return nil, err
	}
	var records []Record
	var errs []error
	for i := range worktrees {
		wt := &worktrees[i]
		if wt.IsMain || wt.Detached || wt.Branch == "" || wt.Status == engine.StatusStale {
			continue
		}
		rec, err := createOne(ctx, root, wt)
		if err != nil {
			ctx.Splog.Warn("Could not back up %s: %v", wt.Branch, err)
			errs = append(errs, err)
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 && len(errs) == 0 {
		ctx.Splog.Info("No feature worktrees to back up.")
	}
	if len(errs) > 0 {
		return records, fmt.Errorf("%d %s failed to back up: %w",
			len(errs), actions.Pluralize("worktree", len(errs)), errors.Join(errs...))
	}
	return records, nil
}

func createOne(ctx *runtime.Context, root string, wt *engine.Worktree) (Record, error) {
	dir := branchDir(root, wt.Branch)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Record{}, cwerrors.NewIOError("create", dir, err)
	}

	lock := flock.New(filepath.Join(dir, lockFile))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return Record{}, cwerrors.NewIOError("lock", dir, err)
	}
	if !locked {
		return Record{}, cwerrors.NewIOError("lock", dir, errors.New("another backup is in progress"))
	}
	defer func() { _ = lock.Unlock() }()

	now := time.Now()
	id, err := allocateID(dir, now)
	if err != nil {
		return Record{}, err
	}
	tmp, err := os.MkdirTemp(dir, tempDirPrefix+id+"-")
	if err != nil {
		return Record{}, cwerrors.NewIOError("create", dir, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(tmp)
		}
	}()

	snap, err := capture(ctx, tmp, wt)
	if err != nil {
		return Record{}, err
	}
	snap.BackedUpAt = now.UTC().Truncate(time.Second)
	if err := writeSnapshot(tmp, snap); err != nil {
		return Record{}, cwerrors.NewIOError("write", filepath.Join(tmp, SnapshotFile), err)
	}

	final := filepath.Join(dir, id)
	if err := os.Rename(tmp, final); err != nil {
		return Record{}, cwerrors.NewIOError("rename", final, err)
	}
	committed = true

	ctx.Splog.Info("Backed up %s to %s.", actions.Branch(wt.Branch), final)
	if snap.HasUncommittedChanges {
		ctx.Splog.Debug("Backup %s includes uncommitted changes (%d untracked %s)",
			id, len(snap.UntrackedFiles), actions.Pluralize("file", len(snap.UntrackedFiles)))
	}
	return Record{Branch: wt.Branch, ID: id, Dir: final, Snapshot: snap}, nil
}

// capture writes the bundle and the uncommitted state of wt into dir
func capture(ctx *runtime.Context, dir string, wt *engine.Worktree) (Snapshot, error) {
	backend := ctx.Engine.Backend
	snap := Snapshot{
		Branch:       wt.Branch,
		BaseBranch:   wt.BaseBranch,
		BasePath:     wt.BasePath,
		WorktreePath: wt.Path,
	}

	head, err := backend.ResolveRevision(ctx, "refs/heads/"+wt.Branch)
	if err != nil {
		return snap, err
	}
	snap.Head = head

	bundle := filepath.Join(dir, BundleFile)
	if err := backend.CreateBundle(ctx, bundle, wt.Branch); err != nil {
		return snap, err
	}
	if err := backend.VerifyBundle(ctx, bundle); err != nil {
		return snap, err
	}

	dirty, err := backend.HasUncommittedChanges(ctx, wt.Path)
	if err != nil {
		return snap, err
	}
	snap.HasUncommittedChanges = dirty
	if !dirty {
		return snap, nil
	}

	patch, err := backend.DiffPatch(ctx, wt.Path)
	if err != nil {
		return snap, err
	}
	if len(patch) > 0 {
		path := filepath.Join(dir, PatchFile)
		if err := os.WriteFile(path, patch, 0o644); err != nil {
			return snap, cwerrors.NewIOError("write", path, err)
		}
		snap.PatchFile = PatchFile
	}

	untracked, err := backend.UntrackedFiles(ctx, wt.Path)
	if err != nil {
		return snap, err
	}
	if len(untracked) > 0 {
		manifest := filepath.Join(dir, ManifestFile)
		if err := os.WriteFile(manifest, []byte(strings.Join(untracked, "\n")+"\n"), 0o644); err != nil {
			return snap, cwerrors.NewIOError("write", manifest, err)
		}
		archive := filepath.Join(dir, ArchiveFile)
		if err := writeArchive(archive, wt.Path, untracked); err != nil {
			return snap, cwerrors.NewIOError("write", archive, err)
		}
		snap.UntrackedFiles = untracked
	}
	return snap, nil
}
