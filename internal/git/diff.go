package git

import (
	"context"
	"strings"
)

// HasUncommittedChanges reports staged, unstaged or untracked changes in dir
func (b *RepoBackend) HasUncommittedChanges(ctx context.Context, dir string) (bool, error) {
	out, err := b.runner.RunIn(ctx, dir, "status", "--porcelain")
	if err != nil {
		return false, b.wrap(err, "failed to get status of %s", dir)
	}
	return out != "", nil
}

// HasTrackedChanges reports staged or unstaged changes to tracked files in dir.
// Untracked files are ignored; a rebase leaves them alone.
func (b *RepoBackend) HasTrackedChanges(ctx context.Context, dir string) (bool, error) {
	out, err := b.runner.RunIn(ctx, dir, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return false, b.wrap(err, "failed to get status of %s", dir)
	}
	return out != "", nil
}

// DiffPatch returns a binary-safe patch of all tracked changes in dir relative to HEAD
func (b *RepoBackend) DiffPatch(ctx context.Context, dir string) ([]byte, error) {
	out, err := b.runner.RunRawIn(ctx, dir, "diff", "--binary", "HEAD")
	if err != nil {
		return nil, b.wrap(err, "failed to diff %s", dir)
	}
	return []byte(out), nil
}

// ApplyPatch applies a patch produced by DiffPatch to the working tree of dir
func (b *RepoBackend) ApplyPatch(ctx context.Context, dir string, patch []byte) error {
	if len(patch) == 0 {
		return nil
	}
	if _, err := b.runner.RunWithInputIn(ctx, dir, patch, "apply", "--binary", "--whitespace=nowarn", "-"); err != nil {
		return b.wrap(err, "failed to apply patch in %s", dir)
	}
	return nil
}

// UntrackedFiles lists untracked, non-ignored files in dir relative to it
func (b *RepoBackend) UntrackedFiles(ctx context.Context, dir string) ([]string, error) {
	out, err := b.runner.RunRawIn(ctx, dir, "ls-files", "--others", "--exclude-standard", "-z")
	if err != nil {
		return nil, b.wrap(err, "failed to list untracked files in %s", dir)
	}
	var files []string
	for _, f := range strings.Split(out, "\x00") {
		if f != "" {
			files = append(files, f)
		}
	}
	return files, nil
}

// DiffFormat selects how DiffBranches renders a comparison
type DiffFormat int

const (
	// DiffFull is a complete patch
	DiffFull DiffFormat = iota
	// DiffStat is a per-file summary of changed lines
	DiffStat
	// DiffNameStatus lists changed paths with their status letter
	DiffNameStatus
)

// DiffBranches compares two revisions from the repository root
func (b *RepoBackend) DiffBranches(ctx context.Context, from, to string, format DiffFormat) (string, error) {
	args := []string{"diff"}
	switch format {
	case DiffStat:
		args = append(args, "--stat")
	case DiffNameStatus:
		args = append(args, "--name-status")
	}
	args = append(args, from, to, "--")
	out, err := b.runner.RunRawIn(ctx, "", args...)
	if err != nil {
		return "", b.wrap(err, "failed to diff %s and %s", from, to)
	}
	return out, nil
}
