package status

import (
	"worktree.dev/cw/internal/engine"
	"worktree.dev/cw/internal/runtime"
)

// Result is the state shown by the status command
type Result struct {
	// Current is the worktree containing the working directory, nil outside any worktree
	Current   *engine.Worktree
	Worktrees []engine.Worktree
}

// Action lists every worktree and identifies the current one
func Action(ctx *runtime.Context) (*Result, error) {
	worktrees, err := ctx.Engine.Registry.List(ctx)
	if err != nil {
		return nil, err
	}
	result := &Result{Worktrees: worktrees}
	for i := range worktrees {
		if worktrees[i].Status == engine.StatusActive {
			result.Current = &worktrees[i]
			break
		}
	}
	return result, nil
}
