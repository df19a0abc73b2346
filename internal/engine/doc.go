// Package engine tracks worktrees and the metadata that ties each feature
// branch to the base it was created from.
//
// It is the core of cw, responsible for:
//   - Storing per-branch metadata (base branch, base path) in git config
//   - Enumerating worktrees and classifying them as clean, modified, stale or active
//   - Resolving user targets (a branch name or a path) to a single worktree
//   - Rebasing a worktree with a guaranteed abort on conflict
//
// Workflows that mutate worktrees (create, finish, backup, ...) live in
// internal/actions and are built on top of this package.
package engine
