package prune

import (
	"worktree.dev/cw/internal/actions"
	"worktree.dev/cw/internal/engine"
	"worktree.dev/cw/internal/runtime"
)

// Action drops the registrations of worktrees whose directories are gone and
// returns them. Live worktrees are never touched.
func Action(ctx *runtime.Context) ([]engine.Worktree, error) {
	eng := ctx.Engine
	splog := ctx.Splog

	worktrees, err := eng.Registry.List(ctx)
	if err != nil {
		return nil, err
	}

	var stale []engine.Worktree
	for _, wt := range worktrees {
		if wt.Status == engine.StatusStale {
			stale = append(stale, wt)
		}
	}

	if err := eng.Backend.PruneWorktrees(ctx); err != nil {
		return nil, err
	}

	if len(stale) == 0 {
		splog.Info("No stale worktrees to prune.")
		return nil, nil
	}
	for _, wt := range stale {
		splog.Info("Pruned %s (%s).", actions.Branch(wt.Branch), wt.Path)
	}
	splog.Info("Pruned %d stale %s.", len(stale), actions.Pluralize("worktree", len(stale)))
	return stale, nil
}
