// Package diff compares the branches of two worktrees.
package diff

import (
	"fmt"
	"strings"

	"worktree.dev/cw/internal/actions"
	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/internal/git"
	"worktree.dev/cw/internal/runtime"
	"worktree.dev/cw/internal/tui"
)

// Options contains options for the diff command
type Options struct {
	From string
	// To defaults to the branch of the current worktree
	To string
	// Stat shows per-file line counts only
	Stat bool
	// Files lists changed paths only
	Files bool
}

// Change is one line of a file listing
type Change struct {
	Status string
	Path   string
}

// Result is a rendered comparison
type Result struct {
	From, To string
	Output   string
	// Changes is filled in Files mode
	Changes []Change
}

// Action compares From with To and prints the result
func Action(ctx *runtime.Context, opts Options) (*Result, error) {
	backend := ctx.Engine.Backend
	splog := ctx.Splog

	if opts.Stat && opts.Files {
		return nil, fmt.Errorf("--stat and --files cannot be combined: %w", cwerrors.ErrValidation)
	}
	if opts.From == "" {
		return nil, fmt.Errorf("a branch to compare is required: %w", cwerrors.ErrValidation)
	}
	to := opts.To
	if to == "" {
		wt, err := actions.ResolveWorktree(ctx, "")
		if err != nil {
			return nil, err
		}
		to = wt.Branch
	}
	for _, branch := range []string{opts.From, to} {
		ok, err := backend.BranchExists(ctx, branch)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, cwerrors.NewBranchNotFoundError(branch)
		}
	}

	format := git.DiffFull
	switch {
	case opts.Stat:
		format = git.DiffStat
	case opts.Files:
		format = git.DiffNameStatus
	}
	out, err := backend.DiffBranches(ctx, opts.From, to, format)
	if err != nil {
		return nil, err
	}
	result := &Result{From: opts.From, To: to, Output: out}

	splog.Info("Comparing %s...%s", actions.Branch(opts.From), actions.Branch(to))
	if strings.TrimSpace(out) == "" {
		splog.Info("No differences.")
		return result, nil
	}
	if !opts.Files {
		splog.Page(out)
		return result, nil
	}

	// renames and copies carry two tab-separated paths
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		status, path, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		path = strings.ReplaceAll(path, "\t", " -> ")
		result.Changes = append(result.Changes, Change{Status: status, Path: path})
		fmt.Fprintf(&b, "  %s  %s\n", tui.ColorChange(status), path)
	}
	splog.Page(b.String())
	return result, nil
}
