package git

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	cwerrors "worktree.dev/cw/internal/errors"
)

// Rebase rebases the branch checked out in dir onto the given revision.
// A conflict leaves the rebase in progress and reports RebaseConflict; the
// caller decides whether to collect conflicted files and abort.
func (b *RepoBackend) Rebase(ctx context.Context, dir, onto string) (RebaseResult, error) {
	_, err := b.runner.RunIn(ctx, dir, "-c", "core.editor=true", "rebase", onto)
	if err != nil {
		if b.RebaseInProgress(ctx, dir) {
			return RebaseConflict, nil
		}
		return RebaseConflict, b.wrap(err, "failed to rebase %s onto %s", dir, onto)
	}
	return RebaseDone, nil
}

// AbortRebase aborts an in-progress rebase in dir
func (b *RepoBackend) AbortRebase(ctx context.Context, dir string) error {
	if _, err := b.runner.RunIn(ctx, dir, "rebase", "--abort"); err != nil {
		return b.wrap(err, "failed to abort rebase in %s", dir)
	}
	return nil
}

// RebaseInProgress checks for the rebase-merge and rebase-apply state directories of dir
func (b *RepoBackend) RebaseInProgress(ctx context.Context, dir string) bool {
	for _, name := range []string{"rebase-merge", "rebase-apply"} {
		p, err := b.runner.RunIn(ctx, dir, "rev-parse", "--git-path", name)
		if err != nil {
			return false
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(b.runner.dirOrDefault(dir), p)
		}
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

// ConflictedFiles lists unmerged paths in dir
func (b *RepoBackend) ConflictedFiles(ctx context.Context, dir string) ([]string, error) {
	lines, err := b.runner.RunLinesIn(ctx, dir, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, b.wrap(err, "failed to list conflicted files in %s", dir)
	}
	return lines, nil
}

// FastForward moves branch to the descendant revision to, provided branch
// still points at expectedOld. With an empty dir the ref is updated with a
// compare-and-swap; otherwise dir must be the worktree that has branch
// checked out and `merge --ff-only` updates its files too.
func (b *RepoBackend) FastForward(ctx context.Context, dir, branch, to, expectedOld string) error {
	if dir == "" {
		err := b.UpdateRef(ctx, "refs/heads/"+branch, to, expectedOld)
		if err != nil {
			if actual, rerr := b.ResolveRevision(ctx, branch); rerr == nil && actual != expectedOld {
				return cwerrors.NewConcurrentBaseUpdateError(branch, expectedOld, actual)
			}
			return err
		}
		return nil
	}

	head, err := b.runner.RunIn(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return b.wrap(err, "failed to read HEAD in %s", dir)
	}
	if head != expectedOld {
		return cwerrors.NewConcurrentBaseUpdateError(branch, expectedOld, head)
	}
	if _, err := b.runner.RunIn(ctx, dir, "merge", "--ff-only", to); err != nil {
		return b.wrap(err, "failed to fast-forward %s to %s", branch, to)
	}
	return nil
}

// SimulateMerge merges head into base in memory with `git merge-tree --write-tree`.
// No worktree, index or ref is touched.
func (b *RepoBackend) SimulateMerge(ctx context.Context, base, head string) (*MergeSimulation, error) {
	out, err := b.runner.RunRawIn(ctx, "", "merge-tree", "--write-tree", "--no-messages", base, head)
	if err != nil && cwerrors.ExitCode(err) != 1 {
		return nil, b.wrap(err, "failed to simulate merge of %s into %s", head, base)
	}
	sim := ParseMergeTree(out)
	sim.Clean = err == nil
	return sim, nil
}

// ParseMergeTree parses merge-tree output: the tree OID, then one
// "<mode> <oid> <stage>\t<path>" line per conflicted stage.
func ParseMergeTree(out string) *MergeSimulation {
	sim := &MergeSimulation{}
	seen := map[string]bool{}
	for i, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if i == 0 {
			sim.Tree = strings.TrimSpace(line)
			continue
		}
		if line == "" {
			break
		}
		_, path, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		if !seen[path] {
			seen[path] = true
			sim.ConflictedFiles = append(sim.ConflictedFiles, path)
		}
	}
	return sim
}
