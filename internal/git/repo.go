package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	cwerrors "worktree.dev/cw/internal/errors"
)

// openRepo opens the repository containing dir with go-git. Linked worktrees
// share refs and objects with the main repository through the common dir.
func openRepo(dir string) (*gogit.Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, cwerrors.NewBackendUnavailableError(dir, err)
	}
	return repo, nil
}

// CurrentBranch returns the branch checked out in dir (the repository root when empty)
func (b *RepoBackend) CurrentBranch(_ context.Context, dir string) (string, error) {
	if dir == "" {
		dir = b.root
	}
	repo, err := openRepo(dir)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD in %s: %w", dir, err)
	}
	if !head.Name().IsBranch() {
		return "", cwerrors.ErrNotOnBranch
	}
	return head.Name().Short(), nil
}

// BranchExists reports whether refs/heads/<name> exists
func (b *RepoBackend) BranchExists(_ context.Context, name string) (bool, error) {
	repo, err := openRepo(b.root)
	if err != nil {
		return false, err
	}
	_, err = repo.Reference(plumbing.NewBranchReferenceName(name), false)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up branch %s: %w", name, err)
	}
	return true, nil
}

// ResolveRevision resolves a branch, remote-tracking ref or SHA to a commit SHA
func (b *RepoBackend) ResolveRevision(_ context.Context, rev string) (string, error) {
	repo, err := openRepo(b.root)
	if err != nil {
		return "", err
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", cwerrors.NewBranchNotFoundError(rev)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", rev, err)
	}
	return hash.String(), nil
}

// IsAncestor checks if the first revision is an ancestor of the second
func (b *RepoBackend) IsAncestor(_ context.Context, ancestor, descendant string) (bool, error) {
	repo, err := openRepo(b.root)
	if err != nil {
		return false, err
	}

	ancestorHash, err := repo.ResolveRevision(plumbing.Revision(ancestor))
	if err != nil {
		return false, fmt.Errorf("failed to resolve ancestor %s: %w", ancestor, err)
	}
	descendantHash, err := repo.ResolveRevision(plumbing.Revision(descendant))
	if err != nil {
		return false, fmt.Errorf("failed to resolve descendant %s: %w", descendant, err)
	}

	if *ancestorHash == *descendantHash {
		return true, nil
	}

	ancestorCommit, err := repo.CommitObject(*ancestorHash)
	if err != nil {
		return false, fmt.Errorf("failed to get ancestor commit: %w", err)
	}
	descendantCommit, err := repo.CommitObject(*descendantHash)
	if err != nil {
		return false, fmt.Errorf("failed to get descendant commit: %w", err)
	}
	return ancestorCommit.IsAncestor(descendantCommit)
}

// CommitSubjects returns the subjects of base..head, oldest first
func (b *RepoBackend) CommitSubjects(ctx context.Context, base, head string) ([]string, error) {
	lines, err := b.runner.RunLinesIn(ctx, "", "log", "--reverse", "--format=%s", base+".."+head)
	if err != nil {
		return nil, b.wrap(err, "failed to list commits %s..%s", base, head)
	}
	subjects := make([]string, 0, len(lines))
	for _, l := range lines {
		if s := strings.TrimSpace(l); s != "" {
			subjects = append(subjects, s)
		}
	}
	return subjects, nil
}
