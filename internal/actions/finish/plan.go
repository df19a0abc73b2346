package finish

import (
	"fmt"
	"strings"

	"worktree.dev/cw/internal/actions"
	"worktree.dev/cw/internal/runtime"
)

// plan fills result with what a finish would do. Nothing is fetched, rebased
// or written; conflicts are predicted with an in-memory merge.
func plan(ctx *runtime.Context, feature *actions.Feature, opts Options, result *Result) error {
	eng := ctx.Engine
	backend := eng.Backend
	branch := feature.Branch()
	base := feature.Record.BaseBranch

	onto := eng.RebaseTarget(ctx, base)
	result.Onto = onto

	commits, err := backend.CommitSubjects(ctx, onto, branch)
	if err != nil {
		return err
	}
	result.Commits = commits

	sim, err := backend.SimulateMerge(ctx, onto, branch)
	if err != nil {
		return err
	}
	result.Conflicts = sim.ConflictedFiles

	dirty, err := backend.HasTrackedChanges(ctx, feature.Worktree.Path)
	if err != nil {
		return err
	}

	steps := []string{
		fmt.Sprintf("rebase %s onto %s (%d %s)", branch, onto, len(commits), actions.Pluralize("commit", len(commits))),
		fmt.Sprintf("fast-forward %s to %s", base, branch),
		fmt.Sprintf("remove worktree %s and delete branch %s", feature.Worktree.Path, branch),
		fmt.Sprintf("clear metadata of %s", branch),
	}
	if opts.Push {
		steps = append(steps, fmt.Sprintf("push %s to %s", base, backend.DefaultRemote(ctx)))
	}
	result.Plan = steps

	splog := ctx.Splog
	splog.Info("Dry run: finishing %s into %s would", actions.Branch(branch), actions.Branch(base))
	for i, step := range steps {
		splog.Info("  %d. %s", i+1, step)
	}
	for _, subject := range commits {
		splog.Debug("  commit: %s", subject)
	}
	if dirty {
		splog.Warn("%s has uncommitted changes; commit or stash them first.", feature.Worktree.Path)
	}
	if len(sim.ConflictedFiles) > 0 {
		splog.Warn("The rebase is expected to conflict on: %s", strings.Join(sim.ConflictedFiles, ", "))
	} else {
		splog.Info("No conflicts expected.")
	}
	return nil
}
