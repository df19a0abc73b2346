package changebase

import (
	"fmt"
	"strings"

	"worktree.dev/cw/internal/actions"
	"worktree.dev/cw/internal/engine"
	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/internal/runtime"
)

// Options contains options for the change-base command
type Options struct {
	// Branch selects the feature worktree; empty means the current one
	Branch  string
	NewBase string
	DryRun  bool
}

// Result describes the base change
type Result struct {
	Branch    string
	OldBase   string
	NewBase   string
	Onto      string
	Conflicts []string
}

// Action rebases a feature onto a different base and records the new base.
// The metadata is rewritten only after the rebase succeeded.
func Action(ctx *runtime.Context, opts Options) (*Result, error) {
	eng := ctx.Engine
	backend := eng.Backend
	splog := ctx.Splog

	feature, err := actions.ResolveFeature(ctx, opts.Branch)
	if err != nil {
		return nil, err
	}
	branch := feature.Branch()
	result := &Result{Branch: branch, OldBase: feature.Record.BaseBranch, NewBase: opts.NewBase}

	if opts.NewBase == "" || opts.NewBase == branch {
		return result, fmt.Errorf("%s cannot be based on %q: %w", branch, opts.NewBase, cwerrors.ErrValidation)
	}
	ok, err := backend.BranchExists(ctx, opts.NewBase)
	if err != nil {
		return result, err
	}
	if !ok {
		return result, cwerrors.NewBranchNotFoundError(opts.NewBase)
	}

	if opts.DryRun {
		result.Onto = eng.RebaseTarget(ctx, opts.NewBase)
		sim, err := backend.SimulateMerge(ctx, result.Onto, branch)
		if err != nil {
			return result, err
		}
		result.Conflicts = sim.ConflictedFiles
		splog.Info("Dry run: would rebase %s onto %s and record %s as its base.",
			actions.Branch(branch), result.Onto, actions.Branch(opts.NewBase))
		if len(result.Conflicts) > 0 {
			splog.Warn("The rebase is expected to conflict on: %s", strings.Join(result.Conflicts, ", "))
		}
		return result, nil
	}

	actions.FetchBases(ctx, opts.NewBase)
	target := &actions.Feature{
		Worktree: feature.Worktree,
		Record:   engine.MetadataRecord{BaseBranch: opts.NewBase, BasePath: feature.Record.BasePath},
	}
	if result.Onto, err = actions.RebaseOntoBase(ctx, target); err != nil {
		return result, err
	}

	if err := eng.Metadata.Set(ctx, branch, engine.KeyBaseBranch, opts.NewBase); err != nil {
		return result, err
	}
	splog.Success("Base of %s changed from %s to %s.",
		actions.Branch(branch), actions.Branch(result.OldBase), actions.Branch(opts.NewBase))
	return result, nil
}
