package clean

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"worktree.dev/cw/internal/actions"
	deleteaction "worktree.dev/cw/internal/actions/delete"
	"worktree.dev/cw/internal/engine"
	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/internal/runtime"
)

// Options contains options for the clean command
type Options struct {
	// Merged selects worktrees whose branch is contained in its recorded base
	Merged bool
	// Stale selects worktrees whose directory is gone
	Stale bool
	// OlderThan selects worktrees whose directory was last modified before now minus OlderThan
	OlderThan time.Duration
	// Interactive lets the user pick from every feature worktree
	Interactive bool
	DryRun      bool
}

// Candidate is a worktree selected for removal
type Candidate struct {
	Worktree engine.Worktree
	Reasons  []string
}

// Result describes a cleanup
type Result struct {
	Candidates []Candidate
	Deleted    []string
	Failed     map[string]error
}

// Action deletes every feature worktree matching the selected criteria
func Action(ctx *runtime.Context, opts Options) (*Result, error) {
	splog := ctx.Splog
	if !opts.Merged && !opts.Stale && opts.OlderThan <= 0 && !opts.Interactive {
		return nil, fmt.Errorf("specify at least one of --merged, --stale, --older-than or --interactive: %w",
			cwerrors.ErrValidation)
	}

	worktrees, err := ctx.Engine.Registry.List(ctx)
	if err != nil {
		return nil, err
	}
	var features []engine.Worktree
	for _, wt := range worktrees {
		if wt.IsMain || wt.Detached || wt.Branch == "" {
			continue
		}
		features = append(features, wt)
	}

	result := &Result{Failed: map[string]error{}}
	if opts.Interactive {
		if result.Candidates, err = choose(ctx, features); err != nil {
			return result, err
		}
	} else {
		result.Candidates = match(ctx, features, opts, time.Now())
	}

	if len(result.Candidates) == 0 {
		splog.Info("No worktrees match the cleanup criteria.")
		return result, nil
	}

	prefix := ""
	if opts.DryRun {
		prefix = "Dry run: "
	}
	splog.Info("%sWorktrees to delete:", prefix)
	for _, c := range result.Candidates {
		splog.Info("  %s (%s)", actions.Branch(c.Worktree.Branch), strings.Join(c.Reasons, ", "))
		splog.Info("    %s", c.Worktree.Path)
	}
	if opts.DryRun {
		splog.Info("Would delete %d %s.", len(result.Candidates), actions.Pluralize("worktree", len(result.Candidates)))
		return result, nil
	}

	if opts.Interactive {
		ok, err := ctx.Prompter.Confirm(fmt.Sprintf("Delete %d %s?",
			len(result.Candidates), actions.Pluralize("worktree", len(result.Candidates))))
		if err != nil {
			return result, err
		}
		if !ok {
			return result, cwerrors.ErrAborted
		}
	}

	var errs []error
	for i := range result.Candidates {
		wt := result.Candidates[i].Worktree
		_, err := deleteaction.Action(ctx, deleteaction.Options{Worktree: &wt})
		if err != nil {
			splog.Warn("Failed to delete %s: %v", wt.Branch, err)
			result.Failed[wt.Branch] = err
			errs = append(errs, err)
			continue
		}
		result.Deleted = append(result.Deleted, wt.Branch)
	}
	splog.Success("Deleted %d %s.", len(result.Deleted), actions.Pluralize("worktree", len(result.Deleted)))
	if len(errs) > 0 {
		return result, fmt.Errorf("%d of %d worktrees could not be cleaned: %w",
			len(errs), len(result.Candidates), errors.Join(errs...))
	}
	return result, nil
}

func match(ctx *runtime.Context, features []engine.Worktree, opts Options, now time.Time) []Candidate {
	var candidates []Candidate
	for _, wt := range features {
		var reasons []string
		if opts.Stale && wt.Status == engine.StatusStale {
			reasons = append(reasons, "stale")
		}
		if opts.Merged && wt.HasMetadata() {
			merged, err := ctx.Engine.Backend.IsAncestor(ctx, wt.Branch, wt.BaseBranch)
			if err != nil {
				ctx.Splog.Debug("Could not check whether %s is merged: %v", wt.Branch, err)
			} else if merged {
				reasons = append(reasons, "merged into "+wt.BaseBranch)
			}
		}
		if opts.OlderThan > 0 && wt.Status != engine.StatusStale {
			if info, err := os.Stat(wt.Path); err == nil {
				age := now.Sub(info.ModTime())
				if age > opts.OlderThan {
					reasons = append(reasons, fmt.Sprintf("unmodified for %.1f days", age.Hours()/24))
				}
			}
		}
		if len(reasons) > 0 {
			candidates = append(candidates, Candidate{Worktree: wt, Reasons: reasons})
		}
	}
	return candidates
}

func choose(ctx *runtime.Context, features []engine.Worktree) ([]Candidate, error) {
	if len(features) == 0 {
		return nil, nil
	}
	options := make([]string, len(features))
	for i, wt := range features {
		options[i] = wt.Branch
	}
	selected, err := ctx.Prompter.MultiSelect("Select worktrees to delete", options)
	if err != nil {
		return nil, err
	}
	picked := make(map[string]bool, len(selected))
	for _, branch := range selected {
		picked[branch] = true
	}
	var candidates []Candidate
	for _, wt := range features {
		if picked[wt.Branch] {
			candidates = append(candidates, Candidate{Worktree: wt, Reasons: []string{"selected, " + string(wt.Status)}})
		}
	}
	return candidates, nil
}
