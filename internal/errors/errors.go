// Package errors provides sentinel errors and custom error types for cw.
// Use errors.Is() and errors.As() to check for specific error types.
//
// Every typed error belongs to one of four kinds, reachable through errors.Is:
// ErrValidation (bad input, nothing was mutated), ErrConflict (a rebase hit
// conflicts and was aborted), ErrBackend (git itself failed) and ErrIO
// (filesystem or network trouble).
package errors

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Error kinds
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrBackend    = errors.New("backend error")
	ErrIO         = errors.New("io error")
)

// Sentinel errors for common conditions
var (
	// ErrAborted indicates the user declined to continue at an interactive pause
	ErrAborted = errors.New("aborted by user")

	// ErrNotOnBranch indicates that HEAD is not on a branch
	ErrNotOnBranch = errors.New("not on a branch")

	// ErrBranchNotFound indicates that a branch does not exist
	ErrBranchNotFound = errors.New("branch not found")
)

// BranchNotFoundError represents an error when a branch is not found
type BranchNotFoundError struct {
	BranchName string
}

func (e *BranchNotFoundError) Error() string {
	return fmt.Sprintf("branch %s does not exist", e.BranchName)
}

// Is matches ErrBranchNotFound and ErrValidation
func (e *BranchNotFoundError) Is(target error) bool {
	return target == ErrBranchNotFound || target == ErrValidation
}

// NewBranchNotFoundError creates a new BranchNotFoundError
func NewBranchNotFoundError(branchName string) *BranchNotFoundError {
	return &BranchNotFoundError{BranchName: branchName}
}

// InvalidBranchNameError is returned for names git would reject as a branch
type InvalidBranchNameError struct {
	BranchName string
	Reason     string
}

func (e *InvalidBranchNameError) Error() string {
	return fmt.Sprintf("invalid branch name %q: %s\nhint: use letters, digits, '-', '_', '.' and '/'", e.BranchName, e.Reason)
}

func (e *InvalidBranchNameError) Is(target error) bool { return target == ErrValidation }

// BranchAlreadyCheckedOutError is returned when a branch is already bound to a live worktree
type BranchAlreadyCheckedOutError struct {
	BranchName string
	Path       string
}

func (e *BranchAlreadyCheckedOutError) Error() string {
	return fmt.Sprintf("branch %s is already checked out at %s", e.BranchName, e.Path)
}

func (e *BranchAlreadyCheckedOutError) Is(target error) bool { return target == ErrValidation }

// NewBranchAlreadyCheckedOutError creates a new BranchAlreadyCheckedOutError
func NewBranchAlreadyCheckedOutError(branchName, path string) *BranchAlreadyCheckedOutError {
	return &BranchAlreadyCheckedOutError{BranchName: branchName, Path: path}
}

// PathAlreadyExistsError is returned when a worktree destination is occupied
type PathAlreadyExistsError struct {
	Path string
}

func (e *PathAlreadyExistsError) Error() string {
	return fmt.Sprintf("path %s already exists and is not empty", e.Path)
}

func (e *PathAlreadyExistsError) Is(target error) bool { return target == ErrValidation }

// NewPathAlreadyExistsError creates a new PathAlreadyExistsError
func NewPathAlreadyExistsError(path string) *PathAlreadyExistsError {
	return &PathAlreadyExistsError{Path: path}
}

// WorktreeNotFoundError is returned when a target resolves to no registered worktree
type WorktreeNotFoundError struct {
	Target string
}

func (e *WorktreeNotFoundError) Error() string {
	return fmt.Sprintf("no worktree found for %q (run 'cw list' to see available worktrees)", e.Target)
}

func (e *WorktreeNotFoundError) Is(target error) bool { return target == ErrValidation }

// NewWorktreeNotFoundError creates a new WorktreeNotFoundError
func NewWorktreeNotFoundError(target string) *WorktreeNotFoundError {
	return &WorktreeNotFoundError{Target: target}
}

// UnmergedChangesError is returned when deleting a branch that is not merged into its base
type UnmergedChangesError struct {
	BranchName string
	BaseBranch string
}

func (e *UnmergedChangesError) Error() string {
	return fmt.Sprintf("branch %s has commits not merged into %s; use --force to delete it anyway", e.BranchName, e.BaseBranch)
}

func (e *UnmergedChangesError) Is(target error) bool { return target == ErrValidation }

// NewUnmergedChangesError creates a new UnmergedChangesError
func NewUnmergedChangesError(branchName, baseBranch string) *UnmergedChangesError {
	return &UnmergedChangesError{BranchName: branchName, BaseBranch: baseBranch}
}

// MissingMetadataError is returned when a branch has no recorded base
type MissingMetadataError struct {
	BranchName string
}

func (e *MissingMetadataError) Error() string {
	return fmt.Sprintf("missing metadata for branch %s; was this worktree created with 'cw new'?", e.BranchName)
}

func (e *MissingMetadataError) Is(target error) bool { return target == ErrValidation }

// NewMissingMetadataError creates a new MissingMetadataError
func NewMissingMetadataError(branchName string) *MissingMetadataError {
	return &MissingMetadataError{BranchName: branchName}
}

// MetadataWriteError is returned when git config cannot be written
type MetadataWriteError struct {
	BranchName string
	Key        string
	Err        error
}

func (e *MetadataWriteError) Error() string {
	return fmt.Sprintf("failed to write %s metadata for branch %s: %v", e.Key, e.BranchName, e.Err)
}

func (e *MetadataWriteError) Unwrap() error { return e.Err }

func (e *MetadataWriteError) Is(target error) bool { return target == ErrBackend }

// NewMetadataWriteError creates a new MetadataWriteError
func NewMetadataWriteError(branchName, key string, err error) *MetadataWriteError {
	return &MetadataWriteError{BranchName: branchName, Key: key, Err: err}
}

// BackendUnavailableError is returned when no git repository can be found
type BackendUnavailableError struct {
	Path string
	Err  error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("not a git repository: %s", e.Path)
}

func (e *BackendUnavailableError) Unwrap() error { return e.Err }

func (e *BackendUnavailableError) Is(target error) bool { return target == ErrBackend }

// NewBackendUnavailableError creates a new BackendUnavailableError
func NewBackendUnavailableError(path string, err error) *BackendUnavailableError {
	return &BackendUnavailableError{Path: path, Err: err}
}

// RebaseConflictError represents a rebase that hit conflicts and was aborted
type RebaseConflictError struct {
	BranchName string
	Onto       string
	Path       string
	Files      []string
}

func (e *RebaseConflictError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rebase of %s onto %s conflicted and was aborted", e.BranchName, e.Onto)
	if len(e.Files) > 0 {
		fmt.Fprintf(&b, "\nconflicted files (%d):", len(e.Files))
		for _, f := range e.Files {
			fmt.Fprintf(&b, "\n  • %s", f)
		}
	}
	if e.Path != "" {
		fmt.Fprintf(&b, "\nresolve manually with:\n  cd %s\n  git rebase %s", e.Path, e.Onto)
	}
	return b.String()
}

func (e *RebaseConflictError) Is(target error) bool { return target == ErrConflict }

// NewRebaseConflictError creates a new RebaseConflictError
func NewRebaseConflictError(branchName, onto, path string, files []string) *RebaseConflictError {
	return &RebaseConflictError{BranchName: branchName, Onto: onto, Path: path, Files: files}
}

// ConcurrentBaseUpdateError is returned when the base branch moved while a finish was running
type ConcurrentBaseUpdateError struct {
	BaseBranch string
	Expected   string
	Actual     string
}

func (e *ConcurrentBaseUpdateError) Error() string {
	return fmt.Sprintf("base branch %s moved from %s to %s during the merge; nothing was changed, re-run to try again",
		e.BaseBranch, shortSHA(e.Expected), shortSHA(e.Actual))
}

func (e *ConcurrentBaseUpdateError) Is(target error) bool { return target == ErrValidation }

// NewConcurrentBaseUpdateError creates a new ConcurrentBaseUpdateError
func NewConcurrentBaseUpdateError(baseBranch, expected, actual string) *ConcurrentBaseUpdateError {
	return &ConcurrentBaseUpdateError{BaseBranch: baseBranch, Expected: expected, Actual: actual}
}

// DirtyWorktreeError is returned when an operation needs a worktree without uncommitted changes
type DirtyWorktreeError struct {
	BranchName string
	Path       string
}

func (e *DirtyWorktreeError) Error() string {
	return fmt.Sprintf("worktree for %s at %s has uncommitted changes; commit or stash them first", e.BranchName, e.Path)
}

func (e *DirtyWorktreeError) Is(target error) bool { return target == ErrValidation }

// NewDirtyWorktreeError creates a new DirtyWorktreeError
func NewDirtyWorktreeError(branchName, path string) *DirtyWorktreeError {
	return &DirtyWorktreeError{BranchName: branchName, Path: path}
}

// BranchDivergedError is returned when a restore would rewind an existing branch
type BranchDivergedError struct {
	BranchName string
	Local      string
	Backup     string
}

func (e *BranchDivergedError) Error() string {
	return fmt.Sprintf("local branch %s (%s) has diverged from the backup (%s); delete or rename it before restoring",
		e.BranchName, shortSHA(e.Local), shortSHA(e.Backup))
}

func (e *BranchDivergedError) Is(target error) bool { return target == ErrValidation }

// BackupNotFoundError is returned when no backup matches a branch (and id)
type BackupNotFoundError struct {
	BranchName string
	ID         string
}

func (e *BackupNotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("backup %s not found for branch %s", e.ID, e.BranchName)
	}
	return fmt.Sprintf("no backups found for branch %s", e.BranchName)
}

func (e *BackupNotFoundError) Is(target error) bool { return target == ErrValidation }

// NewBackupNotFoundError creates a new BackupNotFoundError
func NewBackupNotFoundError(branchName, id string) *BackupNotFoundError {
	return &BackupNotFoundError{BranchName: branchName, ID: id}
}

// IOError wraps filesystem or network failures with the path involved
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

// NewIOError creates a new IOError
func NewIOError(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Dir     string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Dir != "" {
		msg += fmt.Sprintf(" (in %s)", e.Dir)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", strings.TrimSpace(e.Stderr))
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", strings.TrimSpace(e.Stdout))
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

func (e *GitCommandError) Is(target error) bool { return target == ErrBackend }

// ExitCode returns the process exit code, or -1 if the command never ran to completion
func (e *GitCommandError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, dir, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Dir:     dir,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}

// ExitCode extracts a git exit code from err, or -1 if err is not a GitCommandError
func ExitCode(err error) int {
	var gitErr *GitCommandError
	if errors.As(err, &gitErr) {
		return gitErr.ExitCode()
	}
	return -1
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	if sha == "" {
		return "(none)"
	}
	return sha
}
