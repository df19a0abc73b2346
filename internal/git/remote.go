package git

import (
	"context"
	"fmt"
	"strings"
)

// HasRemote reports whether remote is configured
func (b *RepoBackend) HasRemote(ctx context.Context, remote string) bool {
	lines, err := b.runner.RunLinesIn(ctx, "", "remote")
	if err != nil {
		return false
	}
	for _, l := range lines {
		if strings.TrimSpace(l) == remote {
			return true
		}
	}
	return false
}

// Fetch fetches from remote, pruning deleted remote-tracking refs
func (b *RepoBackend) Fetch(ctx context.Context, remote string, refspecs ...string) error {
	args := append([]string{"fetch", "--prune", remote}, refspecs...)
	if _, err := b.runner.Run(ctx, args...); err != nil {
		return b.wrap(err, "failed to fetch from %s", remote)
	}
	return nil
}

// Push pushes branch to remote
func (b *RepoBackend) Push(ctx context.Context, remote, branch string, opts PushOptions) error {
	args := []string{"push"}
	if opts.SetUpstream {
		args = append(args, "-u")
	}
	if opts.ForceWithLease {
		args = append(args, "--force-with-lease")
	}
	args = append(args, remote, branch)

	if _, err := b.runner.Run(ctx, args...); err != nil {
		if strings.Contains(err.Error(), "stale info") {
			return fmt.Errorf("force-with-lease push of %s failed because %s/%s changed since it was last fetched: %w", branch, remote, branch, err)
		}
		return b.wrap(err, "failed to push %s to %s", branch, remote)
	}
	return nil
}

// DeleteRemoteBranch deletes branch on remote
func (b *RepoBackend) DeleteRemoteBranch(ctx context.Context, remote, branch string) error {
	if _, err := b.runner.Run(ctx, "push", remote, "--delete", branch); err != nil {
		return b.wrap(err, "failed to delete %s on %s", branch, remote)
	}
	return nil
}

// RemoteURL returns the fetch URL of remote
func (b *RepoBackend) RemoteURL(ctx context.Context, remote string) (string, error) {
	url, err := b.runner.Run(ctx, "remote", "get-url", remote)
	if err != nil {
		return "", b.wrap(err, "failed to get url of remote %s", remote)
	}
	return url, nil
}
