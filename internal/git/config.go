package git

import (
	"context"
	"strings"

	cwerrors "worktree.dev/cw/internal/errors"
)

// git config exit codes
const (
	configExitKeyNotFound    = 1
	configExitNothingToUnset = 5
)

// ConfigGet reads a repository-local config value. ok is false when the key is unset.
func (b *RepoBackend) ConfigGet(ctx context.Context, key string) (string, bool, error) {
	out, err := b.runner.RunRawIn(ctx, "", "config", "--local", "--get", key)
	if err != nil {
		if cwerrors.ExitCode(err) == configExitKeyNotFound {
			return "", false, nil
		}
		return "", false, b.wrap(err, "failed to read config %s", key)
	}
	return strings.TrimSuffix(out, "\n"), true, nil
}

// ConfigSet writes a repository-local config value
func (b *RepoBackend) ConfigSet(ctx context.Context, key, value string) error {
	if _, err := b.runner.Run(ctx, "config", "--local", key, value); err != nil {
		return b.wrap(err, "failed to set config %s", key)
	}
	return nil
}

// ConfigUnset removes every value of key; a missing key is not an error
func (b *RepoBackend) ConfigUnset(ctx context.Context, key string) error {
	if _, err := b.runner.Run(ctx, "config", "--local", "--unset-all", key); err != nil {
		if cwerrors.ExitCode(err) == configExitNothingToUnset {
			return nil
		}
		return b.wrap(err, "failed to unset config %s", key)
	}
	return nil
}
