// Package git provides low-level Git operations.
//
// It wraps git command execution and go-git repository access behind the
// Backend interface:
//   - Worktree management (add, list, remove, prune)
//   - Branch and ref management (create, delete, compare-and-swap updates)
//   - Rebase, fast-forward and read-only merge simulation
//   - Working tree snapshots (diff patches, untracked files, bundles)
//   - Remote operations (fetch, push, remote branch deletion)
//   - Repository-local configuration
//
// This package should be the only place where direct git commands are executed.
package git
