package git

import (
	"context"
	"strings"
)

// AddWorktree adds a new worktree at path with branch checked out
func (b *RepoBackend) AddWorktree(ctx context.Context, path, branch string) error {
	if _, err := b.runner.Run(ctx, "worktree", "add", path, branch); err != nil {
		return b.wrap(err, "failed to add worktree at %s", path)
	}
	return nil
}

// RemoveWorktree removes the worktree at path; force discards local modifications
func (b *RepoBackend) RemoveWorktree(ctx context.Context, path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)
	if _, err := b.runner.Run(ctx, args...); err != nil {
		return b.wrap(err, "failed to remove worktree at %s", path)
	}
	return nil
}

// PruneWorktrees drops registrations whose directories no longer exist
func (b *RepoBackend) PruneWorktrees(ctx context.Context) error {
	if _, err := b.runner.Run(ctx, "worktree", "prune"); err != nil {
		return b.wrap(err, "failed to prune worktrees")
	}
	return nil
}

// ListWorktrees returns the registered worktrees in git's order, main first
func (b *RepoBackend) ListWorktrees(ctx context.Context) ([]WorktreeEntry, error) {
	out, err := b.runner.RunRawIn(ctx, "", "worktree", "list", "--porcelain")
	if err != nil {
		return nil, b.wrap(err, "failed to list worktrees")
	}
	return ParseWorktreeList(out), nil
}

// ParseWorktreeList parses the output of `git worktree list --porcelain`
func ParseWorktreeList(out string) []WorktreeEntry {
	var entries []WorktreeEntry
	var cur *WorktreeEntry

	flush := func() {
		if cur != nil {
			cur.Main = len(entries) == 0
			entries = append(entries, *cur)
			cur = nil
		}
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			flush()
			continue
		}
		key, value, _ := strings.Cut(line, " ")
		switch key {
		case "worktree":
			flush()
			cur = &WorktreeEntry{Path: value}
		case "HEAD":
			if cur != nil {
				cur.Head = value
			}
		case "branch":
			if cur != nil {
				cur.Branch = strings.TrimPrefix(value, "refs/heads/")
			}
		case "detached":
			if cur != nil {
				cur.Detached = true
			}
		case "bare":
			if cur != nil {
				cur.Bare = true
			}
		case "prunable":
			if cur != nil {
				cur.Prunable = true
			}
		}
	}
	flush()
	return entries
}
