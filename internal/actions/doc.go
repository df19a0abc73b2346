// Package actions provides helpers shared by the cw workflows.
//
// Each workflow lives in its own subpackage (create, delete, prune, sync,
// finish, pr, changebase, backup, clean, export) and exposes an Action that
// takes a runtime.Context and an Options struct.
//
// Key patterns:
//   - Actions validate everything before the first mutation
//   - Actions never leave a worktree mid-rebase; conflicts are aborted and reported
//   - Actions report progress through the context's Splog
package actions
