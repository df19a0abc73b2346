package sync

import (
	"errors"
	"fmt"

	"worktree.dev/cw/internal/actions"
	"worktree.dev/cw/internal/engine"
	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/internal/runtime"
)

// Options contains options for the sync command
type Options struct {
	// Branch selects the worktree; empty means the current one
	Branch string
	// All syncs every feature worktree, continuing past failures
	All bool
	// FetchOnly updates remote-tracking refs without rebasing
	FetchOnly bool
}

// Result lists what happened to each worktree
type Result struct {
	Synced  []string
	Skipped []string
	Failed  map[string]error
}

// Action rebases feature worktrees onto the latest tip of their recorded base
func Action(ctx *runtime.Context, opts Options) (*Result, error) {
	result := &Result{Failed: map[string]error{}}

	if !opts.All {
		feature, err := actions.ResolveFeature(ctx, opts.Branch)
		if err != nil {
			return result, err
		}
		actions.FetchBases(ctx, feature.Record.BaseBranch)
		if err := syncOne(ctx, feature, opts.FetchOnly); err != nil {
			result.Failed[feature.Branch()] = err
			return result, err
		}
		result.Synced = append(result.Synced, feature.Branch())
		return result, nil
	}

	features, err := collectFeatures(ctx, result)
	if err != nil {
		return result, err
	}
	if len(features) == 0 {
		ctx.Splog.Info("No worktrees to sync.")
		return result, nil
	}

	var bases []string
	seen := map[string]bool{}
	for _, f := range features {
		if !seen[f.Record.BaseBranch] {
			seen[f.Record.BaseBranch] = true
			bases = append(bases, f.Record.BaseBranch)
		}
	}
	actions.FetchBases(ctx, bases...)

	var errs []error
	for _, f := range features {
		if err := syncOne(ctx, f, opts.FetchOnly); err != nil {
			ctx.Splog.Warn("Failed to sync %s: %v", f.Branch(), err)
			result.Failed[f.Branch()] = err
			errs = append(errs, err)
			continue
		}
		result.Synced = append(result.Synced, f.Branch())
	}

	if len(errs) > 0 {
		return result, fmt.Errorf("%d of %d worktrees failed to sync: %w",
			len(errs), len(features), errors.Join(errs...))
	}
	ctx.Splog.Success("Synced %d %s.", len(result.Synced), actions.Pluralize("worktree", len(result.Synced)))
	return result, nil
}

// collectFeatures returns every live feature worktree with metadata; the rest
// are recorded as skipped.
func collectFeatures(ctx *runtime.Context, result *Result) ([]*actions.Feature, error) {
	worktrees, err := ctx.Engine.Registry.List(ctx)
	if err != nil {
		return nil, err
	}
	var features []*actions.Feature
	for i := range worktrees {
		wt := &worktrees[i]
		if wt.IsMain || wt.Branch == "" || wt.Status == engine.StatusStale {
			continue
		}
		if !wt.HasMetadata() {
			ctx.Splog.Warn("Skipping %s: %v", wt.Branch, cwerrors.NewMissingMetadataError(wt.Branch))
			result.Skipped = append(result.Skipped, wt.Branch)
			continue
		}
		features = append(features, &actions.Feature{
			Worktree: wt,
			Record:   engine.MetadataRecord{BaseBranch: wt.BaseBranch, BasePath: wt.BasePath},
		})
	}
	return features, nil
}

func syncOne(ctx *runtime.Context, f *actions.Feature, fetchOnly bool) error {
	if fetchOnly {
		return nil
	}
	_, err := actions.RebaseOntoBase(ctx, f)
	return err
}
