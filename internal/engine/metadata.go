package engine

import (
	"context"
	"fmt"

	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/internal/git"
)

// Metadata keys
const (
	KeyBaseBranch = "worktreeBase"
	KeyBasePath   = "basePath"
)

// MetadataStore persists per-branch key/value facts in repository-local git config
type MetadataStore struct {
	backend git.Backend
}

// NewMetadataStore creates a metadata store backed by git config
func NewMetadataStore(backend git.Backend) *MetadataStore {
	return &MetadataStore{backend: backend}
}

// ConfigKey returns the git config key a metadata key is stored under.
// The base path lives in its own worktree.<branch> section; every other key
// is stored on the branch section.
func ConfigKey(branch, key string) string {
	if key == KeyBasePath {
		return fmt.Sprintf("worktree.%s.%s", branch, key)
	}
	return fmt.Sprintf("branch.%s.%s", branch, key)
}

// Set stores value for (branch, key)
func (m *MetadataStore) Set(ctx context.Context, branch, key, value string) error {
	if err := m.backend.ConfigSet(ctx, ConfigKey(branch, key), value); err != nil {
		return cwerrors.NewMetadataWriteError(branch, key, err)
	}
	return nil
}

// Get returns the value for (branch, key). ok is false when the key was never written.
func (m *MetadataStore) Get(ctx context.Context, branch, key string) (string, bool, error) {
	return m.backend.ConfigGet(ctx, ConfigKey(branch, key))
}

// Unset removes (branch, key). Removing a missing key is not an error.
func (m *MetadataStore) Unset(ctx context.Context, branch, key string) error {
	if err := m.backend.ConfigUnset(ctx, ConfigKey(branch, key)); err != nil {
		return cwerrors.NewMetadataWriteError(branch, key, err)
	}
	return nil
}

// Read returns the metadata record of branch. ok is false when no base is recorded.
func (m *MetadataStore) Read(ctx context.Context, branch string) (MetadataRecord, bool, error) {
	base, ok, err := m.Get(ctx, branch, KeyBaseBranch)
	if err != nil || !ok || base == "" {
		return MetadataRecord{}, false, err
	}
	path, _, err := m.Get(ctx, branch, KeyBasePath)
	if err != nil {
		return MetadataRecord{}, false, err
	}
	return MetadataRecord{BaseBranch: base, BasePath: path}, true, nil
}

// Write stores both fields of rec for branch
func (m *MetadataStore) Write(ctx context.Context, branch string, rec MetadataRecord) error {
	if err := m.Set(ctx, branch, KeyBaseBranch, rec.BaseBranch); err != nil {
		return err
	}
	return m.Set(ctx, branch, KeyBasePath, rec.BasePath)
}

// Clear removes the metadata record of branch
func (m *MetadataStore) Clear(ctx context.Context, branch string) error {
	if err := m.Unset(ctx, branch, KeyBaseBranch); err != nil {
		return err
	}
	return m.Unset(ctx, branch, KeyBasePath)
}
