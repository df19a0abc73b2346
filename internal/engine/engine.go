package engine

import (
	"context"
	"errors"

	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/internal/git"
)

// Engine bundles the backend with the metadata store and worktree registry built on it
type Engine struct {
	Backend  git.Backend
	Metadata *MetadataStore
	Registry *Registry
}

type options struct {
	workingDir string
}

// Option configures an Engine
type Option func(*options)

// WithWorkingDir sets the directory used to decide which worktree is active
// and which one a command without a target applies to.
func WithWorkingDir(dir string) Option {
	return func(o *options) { o.workingDir = dir }
}

// New creates an engine over backend
func New(backend git.Backend, opts ...Option) *Engine {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	metadata := NewMetadataStore(backend)
	return &Engine{
		Backend:  backend,
		Metadata: metadata,
		Registry: NewRegistry(backend, metadata, o.workingDir),
	}
}

// Open creates an engine for the repository containing dir
func Open(ctx context.Context, dir string, opts ...Option) (*Engine, error) {
	backend, err := git.Open(ctx, dir)
	if err != nil {
		return nil, err
	}
	return New(backend, append([]Option{WithWorkingDir(dir)}, opts...)...), nil
}

// MainWorktree returns the primary checkout of the repository
func (e *Engine) MainWorktree(ctx context.Context) (*Worktree, error) {
	worktrees, err := e.Registry.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range worktrees {
		if worktrees[i].IsMain {
			return &worktrees[i], nil
		}
	}
	return nil, cwerrors.NewWorktreeNotFoundError("main worktree")
}

// RequireMetadata returns the metadata record of branch or a MissingMetadataError
func (e *Engine) RequireMetadata(ctx context.Context, branch string) (MetadataRecord, error) {
	rec, ok, err := e.Metadata.Read(ctx, branch)
	if err != nil {
		return MetadataRecord{}, err
	}
	if !ok {
		return MetadataRecord{}, cwerrors.NewMissingMetadataError(branch)
	}
	return rec, nil
}

// CheckedOutAt returns the worktree that has branch checked out, or nil
func (e *Engine) CheckedOutAt(ctx context.Context, branch string) (*Worktree, error) {
	wt, err := e.Registry.Find(ctx, branch)
	if err != nil {
		var notFound *cwerrors.WorktreeNotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}
	return wt, nil
}

// RequireClean fails with a DirtyWorktreeError when tracked files of wt have
// uncommitted changes. Untracked files do not count.
func (e *Engine) RequireClean(ctx context.Context, wt *Worktree) error {
	dirty, err := e.Backend.HasTrackedChanges(ctx, wt.Path)
	if err != nil {
		return err
	}
	if dirty {
		return cwerrors.NewDirtyWorktreeError(wt.Branch, wt.Path)
	}
	return nil
}
