package git

import (
	"context"
)

// CreateBundle writes the full history of branch to a bundle file at path
func (b *RepoBackend) CreateBundle(ctx context.Context, path, branch string) error {
	if _, err := b.runner.Run(ctx, "bundle", "create", path, "refs/heads/"+branch); err != nil {
		return b.wrap(err, "failed to bundle %s into %s", branch, path)
	}
	return nil
}

// VerifyBundle checks that the bundle at path is valid and complete
func (b *RepoBackend) VerifyBundle(ctx context.Context, path string) error {
	if _, err := b.runner.Run(ctx, "bundle", "verify", path); err != nil {
		return b.wrap(err, "bundle %s failed verification", path)
	}
	return nil
}

// FetchFromBundle copies refs/heads/<branch> from the bundle into ref, overwriting ref
func (b *RepoBackend) FetchFromBundle(ctx context.Context, bundlePath, branch, ref string) error {
	refspec := "+refs/heads/" + branch + ":" + ref
	if _, err := b.runner.Run(ctx, "fetch", "--no-tags", bundlePath, refspec); err != nil {
		return b.wrap(err, "failed to fetch %s from bundle %s", branch, bundlePath)
	}
	return nil
}
