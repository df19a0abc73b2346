package git

import (
	"context"
)

// CreateBranch creates name pointing at from without checking it out
func (b *RepoBackend) CreateBranch(ctx context.Context, name, from string) error {
	if _, err := b.runner.Run(ctx, "branch", name, from); err != nil {
		return b.wrap(err, "failed to create branch %s from %s", name, from)
	}
	return nil
}

// DeleteBranch deletes a local branch; force uses -D
func (b *RepoBackend) DeleteBranch(ctx context.Context, name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	if _, err := b.runner.Run(ctx, "branch", flag, name); err != nil {
		return b.wrap(err, "failed to delete branch %s", name)
	}
	return nil
}

// UpdateRef points ref at newRev. When expectedOld is set the update is a
// compare-and-swap and fails if ref currently points elsewhere.
func (b *RepoBackend) UpdateRef(ctx context.Context, ref, newRev, expectedOld string) error {
	args := []string{"update-ref", ref, newRev}
	if expectedOld != "" {
		args = append(args, expectedOld)
	}
	if _, err := b.runner.Run(ctx, args...); err != nil {
		return b.wrap(err, "failed to update %s", ref)
	}
	return nil
}

// DeleteRef removes ref
func (b *RepoBackend) DeleteRef(ctx context.Context, ref string) error {
	if _, err := b.runner.Run(ctx, "update-ref", "-d", ref); err != nil {
		return b.wrap(err, "failed to delete %s", ref)
	}
	return nil
}
