package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	cwerrors "worktree.dev/cw/internal/errors"
)

// Backend defines the git operations the worktree engine depends on.
// Repository-wide operations run against the repository; operations that
// take a dir run inside that worktree.
type Backend interface {
	// Repository
	RepoRoot() string
	DefaultRemote(ctx context.Context) string
	Version(ctx context.Context) (string, error)

	// Revision queries
	CurrentBranch(ctx context.Context, dir string) (string, error)
	BranchExists(ctx context.Context, name string) (bool, error)
	ResolveRevision(ctx context.Context, rev string) (string, error)
	IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error)
	CommitSubjects(ctx context.Context, base, head string) ([]string, error)
	ValidateBranchName(ctx context.Context, name string) error

	// Branches and refs
	CreateBranch(ctx context.Context, name, from string) error
	DeleteBranch(ctx context.Context, name string, force bool) error
	UpdateRef(ctx context.Context, ref, newRev, expectedOld string) error
	DeleteRef(ctx context.Context, ref string) error

	// Worktrees
	AddWorktree(ctx context.Context, path, branch string) error
	ListWorktrees(ctx context.Context) ([]WorktreeEntry, error)
	RemoveWorktree(ctx context.Context, path string, force bool) error
	PruneWorktrees(ctx context.Context) error

	// Rebase and merge
	Rebase(ctx context.Context, dir, onto string) (RebaseResult, error)
	AbortRebase(ctx context.Context, dir string) error
	RebaseInProgress(ctx context.Context, dir string) bool
	ConflictedFiles(ctx context.Context, dir string) ([]string, error)
	FastForward(ctx context.Context, dir, branch, to, expectedOld string) error
	SimulateMerge(ctx context.Context, base, head string) (*MergeSimulation, error)

	// Working tree state
	HasUncommittedChanges(ctx context.Context, dir string) (bool, error)
	HasTrackedChanges(ctx context.Context, dir string) (bool, error)
	DiffPatch(ctx context.Context, dir string) ([]byte, error)
	ApplyPatch(ctx context.Context, dir string, patch []byte) error
	UntrackedFiles(ctx context.Context, dir string) ([]string, error)
	DiffBranches(ctx context.Context, from, to string, format DiffFormat) (string, error)

	// Remotes
	HasRemote(ctx context.Context, remote string) bool
	Fetch(ctx context.Context, remote string, refspecs ...string) error
	Push(ctx context.Context, remote, branch string, opts PushOptions) error
	DeleteRemoteBranch(ctx context.Context, remote, branch string) error
	RemoteURL(ctx context.Context, remote string) (string, error)

	// Repository-local configuration
	ConfigGet(ctx context.Context, key string) (string, bool, error)
	ConfigSet(ctx context.Context, key, value string) error
	ConfigUnset(ctx context.Context, key string) error

	// Bundles
	CreateBundle(ctx context.Context, path, branch string) error
	VerifyBundle(ctx context.Context, path string) error
	FetchFromBundle(ctx context.Context, bundlePath, branch, ref string) error
}

// WorktreeEntry is one record of `git worktree list --porcelain`
type WorktreeEntry struct {
	Path     string
	Head     string
	Branch   string // short name, empty when detached or bare
	Detached bool
	Bare     bool
	Prunable bool
	Main     bool // the first entry is always the main worktree
}

// RebaseResult represents the result of a rebase operation
type RebaseResult int

const (
	// RebaseDone indicates the rebase was successful
	RebaseDone RebaseResult = iota
	// RebaseConflict indicates the rebase stopped on conflicts and is still in progress
	RebaseConflict
)

// MergeSimulation is the outcome of a read-only merge computed with merge-tree
type MergeSimulation struct {
	Tree            string
	Clean           bool
	ConflictedFiles []string
}

// PushOptions controls how a branch is pushed
type PushOptions struct {
	ForceWithLease bool
	SetUpstream    bool
}

// RepoBackend implements Backend over the git CLI and go-git
type RepoBackend struct {
	root          string
	runner        *CommandRunner
	defaultRemote string
}

var _ Backend = (*RepoBackend)(nil)

// NewBackend creates a backend rooted at an existing repository directory
func NewBackend(root string) *RepoBackend {
	return &RepoBackend{root: root, runner: NewCommandRunner(root), defaultRemote: "origin"}
}

// SetDefaultRemote sets the remote used when cw.remote is not configured
func (b *RepoBackend) SetDefaultRemote(remote string) {
	if remote != "" {
		b.defaultRemote = remote
	}
}

// Open finds the repository containing dir and returns a backend for it.
// It fails with a BackendUnavailableError when dir is not inside a git repository.
func Open(ctx context.Context, dir string) (*RepoBackend, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, cwerrors.NewBackendUnavailableError(dir, err)
	}
	top, err := NewCommandRunner(abs).Run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, cwerrors.NewBackendUnavailableError(abs, err)
	}
	return NewBackend(top), nil
}

// RepoRoot returns the top-level directory the backend was opened in
func (b *RepoBackend) RepoRoot() string {
	return b.root
}

// DefaultRemote returns the repository's cw.remote setting, falling back to
// the user default (origin unless changed with SetDefaultRemote)
func (b *RepoBackend) DefaultRemote(ctx context.Context) string {
	if remote, ok, err := b.ConfigGet(ctx, "cw.remote"); err == nil && ok && remote != "" {
		return remote
	}
	return b.defaultRemote
}

// Version returns the installed git version number, e.g. 2.39.0 for
// "git version 2.39.0 (Apple Git-155)"
func (b *RepoBackend) Version(ctx context.Context) (string, error) {
	out, err := b.runner.Run(ctx, "version")
	if err != nil {
		return "", b.wrap(err, "failed to get the git version")
	}
	fields := strings.Fields(out)
	if len(fields) < 3 {
		return "", fmt.Errorf("unexpected git version output %q", out)
	}
	return fields[2], nil
}

// ValidateBranchName checks name against git's branch naming rules
func (b *RepoBackend) ValidateBranchName(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return &cwerrors.InvalidBranchNameError{BranchName: name, Reason: "name is empty"}
	}
	if strings.HasPrefix(name, "-") {
		return &cwerrors.InvalidBranchNameError{BranchName: name, Reason: "name cannot start with '-'"}
	}
	if _, err := b.runner.Run(ctx, "check-ref-format", "--branch", name); err != nil {
		return &cwerrors.InvalidBranchNameError{BranchName: name, Reason: "rejected by git check-ref-format"}
	}
	return nil
}

func (b *RepoBackend) wrap(err error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
