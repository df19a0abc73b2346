// Package gittest provides a git.Backend wrapper for injecting failures in tests.
package gittest

import (
	"context"

	"worktree.dev/cw/internal/git"
)

// Backend wraps a real backend. Any hook that is set replaces the
// corresponding call; everything else is delegated.
type Backend struct {
	git.Backend

	ConfigSetHook       func(ctx context.Context, key, value string) error
	ResolveRevisionHook func(ctx context.Context, rev string) (string, error)
	FastForwardHook     func(ctx context.Context, dir, branch, to, expectedOld string) error
	PushHook            func(ctx context.Context, remote, branch string, opts git.PushOptions) error
	DeleteRemoteHook    func(ctx context.Context, remote, branch string) error
	ApplyPatchHook      func(ctx context.Context, dir string, patch []byte) error

	// Calls records method names of hooked calls in order
	Calls []string
}

// Wrap returns a Backend delegating to inner
func Wrap(inner git.Backend) *Backend {
	return &Backend{Backend: inner}
}

func (b *Backend) ConfigSet(ctx context.Context, key, value string) error {
	if b.ConfigSetHook != nil {
		b.Calls = append(b.Calls, "ConfigSet")
		return b.ConfigSetHook(ctx, key, value)
	}
	return b.Backend.ConfigSet(ctx, key, value)
}

func (b *Backend) ResolveRevision(ctx context.Context, rev string) (string, error) {
	if b.ResolveRevisionHook != nil {
		b.Calls = append(b.Calls, "ResolveRevision")
		return b.ResolveRevisionHook(ctx, rev)
	}
	return b.Backend.ResolveRevision(ctx, rev)
}

func (b *Backend) FastForward(ctx context.Context, dir, branch, to, expectedOld string) error {
	if b.FastForwardHook != nil {
		b.Calls = append(b.Calls, "FastForward")
		return b.FastForwardHook(ctx, dir, branch, to, expectedOld)
	}
	return b.Backend.FastForward(ctx, dir, branch, to, expectedOld)
}

func (b *Backend) Push(ctx context.Context, remote, branch string, opts git.PushOptions) error {
	if b.PushHook != nil {
		b.Calls = append(b.Calls, "Push")
		return b.PushHook(ctx, remote, branch, opts)
	}
	return b.Backend.Push(ctx, remote, branch, opts)
}

func (b *Backend) DeleteRemoteBranch(ctx context.Context, remote, branch string) error {
	if b.DeleteRemoteHook != nil {
		b.Calls = append(b.Calls, "DeleteRemoteBranch")
		return b.DeleteRemoteHook(ctx, remote, branch)
	}
	return b.Backend.DeleteRemoteBranch(ctx, remote, branch)
}

func (b *Backend) ApplyPatch(ctx context.Context, dir string, patch []byte) error {
	if b.ApplyPatchHook != nil {
		b.Calls = append(b.Calls, "ApplyPatch")
		return b.ApplyPatchHook(ctx, dir, patch)
	}
	return b.Backend.ApplyPatch(ctx, dir, patch)
}
