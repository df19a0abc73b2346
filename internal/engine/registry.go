package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/internal/git"
)

// Registry enumerates worktrees and classifies their live status. It never mutates anything.
type Registry struct {
	backend    git.Backend
	metadata   *MetadataStore
	workingDir string
}

// NewRegistry creates a registry. workingDir decides which worktree is active;
// when empty the process working directory is used.
func NewRegistry(backend git.Backend, metadata *MetadataStore, workingDir string) *Registry {
	return &Registry{backend: backend, metadata: metadata, workingDir: workingDir}
}

// List returns every registered worktree in the backend's enumeration order
func (r *Registry) List(ctx context.Context) ([]Worktree, error) {
	entries, err := r.backend.ListWorktrees(ctx)
	if err != nil {
		return nil, err
	}

	cwd := r.cwd()
	active := ""
	for _, e := range entries {
		p := canonicalPath(e.Path)
		if cwd != "" && isWithin(cwd, p) && len(p) > len(active) {
			active = p
		}
	}

	worktrees := make([]Worktree, 0, len(entries))
	for _, e := range entries {
		if e.Bare {
			continue
		}
		wt := Worktree{
			Branch:   e.Branch,
			Path:     e.Path,
			Head:     e.Head,
			IsMain:   e.Main,
			Detached: e.Detached,
		}
		if wt.Branch != "" {
			rec, ok, err := r.metadata.Read(ctx, wt.Branch)
			if err != nil {
				return nil, err
			}
			if ok {
				wt.BaseBranch = rec.BaseBranch
				wt.BasePath = rec.BasePath
			}
		}
		status, err := r.classify(ctx, e.Path, active)
		if err != nil {
			return nil, err
		}
		wt.Status = status
		worktrees = append(worktrees, wt)
	}
	return worktrees, nil
}

func (r *Registry) classify(ctx context.Context, path, active string) (Status, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return StatusStale, nil
		}
		return "", cwerrors.NewIOError("stat", path, err)
	}
	if active != "" && canonicalPath(path) == active {
		return StatusActive, nil
	}
	dirty, err := r.backend.HasUncommittedChanges(ctx, path)
	if err != nil {
		return "", err
	}
	if dirty {
		return StatusModified, nil
	}
	return StatusClean, nil
}

// Find returns the worktree that has branch checked out
func (r *Registry) Find(ctx context.Context, branch string) (*Worktree, error) {
	worktrees, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range worktrees {
		if worktrees[i].Branch == branch {
			return &worktrees[i], nil
		}
	}
	return nil, cwerrors.NewWorktreeNotFoundError(branch)
}

// Resolve turns a parsed target into exactly one worktree
func (r *Registry) Resolve(ctx context.Context, target Target) (*Worktree, error) {
	switch t := target.(type) {
	case BranchTarget:
		if t.Name == "" {
			return r.Current(ctx)
		}
		return r.Find(ctx, t.Name)
	case PathTarget:
		return r.containing(ctx, t.Path, t.Path)
	default:
		return nil, fmt.Errorf("unsupported target type %T", target)
	}
}

// Current returns the worktree containing the working directory
func (r *Registry) Current(ctx context.Context) (*Worktree, error) {
	cwd := r.cwd()
	if cwd == "" {
		return nil, cwerrors.NewWorktreeNotFoundError(".")
	}
	return r.containing(ctx, cwd, ".")
}

// containing returns the deepest worktree whose directory contains path
func (r *Registry) containing(ctx context.Context, path, label string) (*Worktree, error) {
	worktrees, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	p := canonicalPath(path)
	var best *Worktree
	bestLen := -1
	for i := range worktrees {
		wp := canonicalPath(worktrees[i].Path)
		if isWithin(p, wp) && len(wp) > bestLen {
			best = &worktrees[i]
			bestLen = len(wp)
		}
	}
	if best == nil {
		return nil, cwerrors.NewWorktreeNotFoundError(label)
	}
	return best, nil
}

// WorkingDir returns the configured working directory, empty when the process cwd is used
func (r *Registry) WorkingDir() string {
	return r.workingDir
}

func (r *Registry) cwd() string {
	if r.workingDir != "" {
		return canonicalPath(r.workingDir)
	}
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return canonicalPath(wd)
}

// canonicalPath resolves symlinks so that /tmp and /private/tmp compare equal.
// Paths that no longer exist are only cleaned.
func canonicalPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	return filepath.Clean(p)
}

// isWithin reports whether child equals parent or lies beneath it
func isWithin(child, parent string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
