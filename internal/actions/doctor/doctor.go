// Package doctor checks the health of a repository's worktrees.
package doctor

import (
	"fmt"
	"strconv"
	"strings"

	"worktree.dev/cw/internal/actions"
	"worktree.dev/cw/internal/engine"
	"worktree.dev/cw/internal/runtime"
)

// MinGitVersion is the oldest git that supports `merge-tree --write-tree`
const MinGitVersion = "2.38"

// Options contains options for the doctor command
type Options struct {
	// NoFetch skips refreshing the remote bases before the behind check
	NoFetch bool
}

// Behind is a feature worktree missing commits of its base
type Behind struct {
	Branch  string
	Onto    string
	Commits int
}

// Report holds everything doctor found
type Report struct {
	GitVersion string
	Checked    int
	Stale      []string
	Dirty      []string
	Behind     []Behind
	// Conflicted maps a branch to its unmerged paths
	Conflicted map[string][]string
	Issues     []string
	Warnings   []string
}

// Healthy reports whether nothing was found
func (r *Report) Healthy() bool {
	return len(r.Issues) == 0 && len(r.Warnings) == 0
}

// Action runs every check and prints a summary. Issues (an old git, stale
// registrations, unresolved conflicts) make it return an error; warnings
// (uncommitted changes, worktrees behind their base) do not.
func Action(ctx *runtime.Context, opts Options) (*Report, error) {
	splog := ctx.Splog
	report := &Report{Conflicted: map[string][]string{}}

	splog.Info("Git:")
	checkGit(ctx, report)
	splog.Newline()

	worktrees, err := ctx.Engine.Registry.List(ctx)
	if err != nil {
		return report, err
	}
	var features []engine.Worktree
	for _, wt := range worktrees {
		if !wt.IsMain && !wt.Detached && wt.Branch != "" {
			features = append(features, wt)
		}
	}
	report.Checked = len(features)

	splog.Info("Worktrees:")
	checkAccessible(ctx, report, features)
	checkDirty(ctx, report, features)
	checkConflicts(ctx, report, features)
	splog.Newline()

	splog.Info("Bases:")
	checkBehind(ctx, opts, report, features)
	splog.Newline()

	summarize(ctx, report)
	if len(report.Issues) > 0 {
		return report, fmt.Errorf("doctor found %d %s", len(report.Issues), actions.Pluralize("issue", len(report.Issues)))
	}
	return report, nil
}

func checkGit(ctx *runtime.Context, report *Report) {
	version, err := ctx.Engine.Backend.Version(ctx)
	if err != nil {
		report.Issues = append(report.Issues, "could not detect the git version")
		ctx.Splog.Warn("  could not detect the git version: %v", err)
		return
	}
	report.GitVersion = version
	if !versionAtLeast(version, MinGitVersion) {
		report.Issues = append(report.Issues, fmt.Sprintf("git %s is older than %s", version, MinGitVersion))
		ctx.Splog.Warn("  git %s is too old (minimum %s)", version, MinGitVersion)
		return
	}
	ctx.Splog.Info("  ✅ git %s (minimum %s)", version, MinGitVersion)
}

func checkAccessible(ctx *runtime.Context, report *Report, features []engine.Worktree) {
	for _, wt := range features {
		if wt.Status == engine.StatusStale {
			report.Stale = append(report.Stale, wt.Branch)
			ctx.Splog.Warn("  %s is stale, %s is missing", wt.Branch, wt.Path)
		}
	}
	if len(report.Stale) > 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("%d stale %s", len(report.Stale),
			actions.Pluralize("worktree", len(report.Stale))))
		return
	}
	ctx.Splog.Info("  ✅ all %d %s accessible", len(features), actions.Pluralize("worktree", len(features)))
}

func checkDirty(ctx *runtime.Context, report *Report, features []engine.Worktree) {
	for _, wt := range features {
		if wt.Status == engine.StatusStale {
			continue
		}
		dirty, err := ctx.Engine.Backend.HasUncommittedChanges(ctx, wt.Path)
		if err != nil {
			ctx.Splog.Debug("Could not read the status of %s: %v", wt.Path, err)
			continue
		}
		if dirty {
			report.Dirty = append(report.Dirty, wt.Branch)
		}
	}
	if len(report.Dirty) == 0 {
		ctx.Splog.Info("  ✅ no uncommitted changes")
		return
	}
	report.Warnings = append(report.Warnings, fmt.Sprintf("%d %s with uncommitted changes",
		len(report.Dirty), actions.Pluralize("worktree", len(report.Dirty))))
	ctx.Splog.Warn("  uncommitted changes in %s", strings.Join(report.Dirty, ", "))
}

func checkConflicts(ctx *runtime.Context, report *Report, features []engine.Worktree) {
	for _, wt := range features {
		if wt.Status == engine.StatusStale {
			continue
		}
		files, err := ctx.Engine.Backend.ConflictedFiles(ctx, wt.Path)
		if err != nil {
			ctx.Splog.Debug("Could not list conflicts in %s: %v", wt.Path, err)
			continue
		}
		if len(files) > 0 {
			report.Conflicted[wt.Branch] = files
			ctx.Splog.Warn("  %s has %d conflicted %s", wt.Branch, len(files), actions.Pluralize("file", len(files)))
		}
	}
	if len(report.Conflicted) == 0 {
		ctx.Splog.Info("  ✅ no unresolved conflicts")
		return
	}
	report.Issues = append(report.Issues, fmt.Sprintf("%d %s with unresolved conflicts",
		len(report.Conflicted), actions.Pluralize("worktree", len(report.Conflicted))))
}

func checkBehind(ctx *runtime.Context, opts Options, report *Report, features []engine.Worktree) {
	eng := ctx.Engine
	var bases []string
	seen := map[string]bool{}
	for _, wt := range features {
		if wt.Status != engine.StatusStale && wt.HasMetadata() && !seen[wt.BaseBranch] {
			seen[wt.BaseBranch] = true
			bases = append(bases, wt.BaseBranch)
		}
	}
	if len(bases) > 0 && !opts.NoFetch {
		actions.FetchBases(ctx, bases...)
	}

	for _, wt := range features {
		if wt.Status == engine.StatusStale || !wt.HasMetadata() {
			continue
		}
		onto := eng.RebaseTarget(ctx, wt.BaseBranch)
		missing, err := eng.Backend.CommitSubjects(ctx, wt.Branch, onto)
		if err != nil {
			ctx.Splog.Debug("Could not compare %s with %s: %v", wt.Branch, onto, err)
			continue
		}
		if len(missing) > 0 {
			report.Behind = append(report.Behind, Behind{Branch: wt.Branch, Onto: onto, Commits: len(missing)})
			ctx.Splog.Warn("  %s is %d %s behind %s", wt.Branch, len(missing), actions.Pluralize("commit", len(missing)), onto)
		}
	}
	if len(report.Behind) == 0 {
		ctx.Splog.Info("  ✅ every worktree is up to date with its base")
		return
	}
	report.Warnings = append(report.Warnings, fmt.Sprintf("%d %s behind their base",
		len(report.Behind), actions.Pluralize("worktree", len(report.Behind))))
}

func summarize(ctx *runtime.Context, report *Report) {
	splog := ctx.Splog
	if report.Healthy() {
		splog.Success("Everything looks healthy.")
		return
	}
	for _, issue := range report.Issues {
		splog.Warn("Issue: %s", issue)
	}
	for _, warning := range report.Warnings {
		splog.Warn("Warning: %s", warning)
	}
	if len(report.Stale) > 0 {
		splog.Tip("Run cw prune to drop stale registrations")
	}
	if len(report.Behind) > 0 {
		splog.Tip("Run cw sync --all to rebase every worktree onto its base")
	}
	if len(report.Conflicted) > 0 {
		splog.Tip("Resolve or abort the conflicted merges in the listed worktrees")
	}
}

// versionAtLeast compares the leading numeric components of two dotted versions
func versionAtLeast(version, minimum string) bool {
	have, want := versionParts(version), versionParts(minimum)
	for i := range want {
		var h int
		if i < len(have) {
			h = have[i]
		}
		if h != want[i] {
			return h > want[i]
		}
	}
	return true
}

func versionParts(v string) []int {
	var parts []int
	for _, field := range strings.Split(v, ".") {
		n, err := strconv.Atoi(field)
		if err != nil {
			break
		}
		parts = append(parts, n)
	}
	return parts
}
