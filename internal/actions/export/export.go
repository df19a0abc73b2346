// Package export moves worktree metadata between repositories as JSON.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"worktree.dev/cw/internal/actions"
	"worktree.dev/cw/internal/engine"
	cwerrors "worktree.dev/cw/internal/errors"
	"worktree.dev/cw/internal/runtime"
)

// Version is written to every export and required on import
const Version = "1.0"

// Document is the export file format
type Document struct {
	ExportVersion string    `json:"export_version"`
	ExportedAt    time.Time `json:"exported_at"`
	Repository    string    `json:"repository"`
	Worktrees     []Entry   `json:"worktrees"`
}

// Entry is the exported state of one feature worktree
type Entry struct {
	Branch     string `json:"branch"`
	BaseBranch string `json:"base_branch,omitempty"`
	BasePath   string `json:"base_path,omitempty"`
	Path       string `json:"path"`
	Status     string `json:"status"`
}

// Options contains options for the export command
type Options struct {
	// Output is the file to write; empty means cw-export-<timestamp>.json in the working directory
	Output string
}

// Action writes the metadata of every feature worktree to a JSON file and
// returns the path written.
func Action(ctx *runtime.Context, opts Options) (string, *Document, error) {
	worktrees, err := ctx.Engine.Registry.List(ctx)
	if err != nil {
		return "", nil, err
	}
	now := time.Now()
	doc := &Document{
		ExportVersion: Version,
		ExportedAt:    now.UTC().Truncate(time.Second),
		Repository:    ctx.RepoRoot,
		Worktrees:     []Entry{},
	}
	for _, wt := range worktrees {
		if wt.IsMain || wt.Detached || wt.Branch == "" {
			continue
		}
		doc.Worktrees = append(doc.Worktrees, Entry{
			Branch:     wt.Branch,
			BaseBranch: wt.BaseBranch,
			BasePath:   wt.BasePath,
			Path:       wt.Path,
			Status:     string(wt.Status),
		})
	}

	path := opts.Output
	if path == "" {
		path = filepath.Join(ctx.Engine.Registry.WorkingDir(), "cw-export-"+now.Format("20060102-150405")+".json")
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", nil, err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", nil, cwerrors.NewIOError("write", path, err)
	}
	ctx.Splog.Success("Exported %d %s to %s.", len(doc.Worktrees), actions.Pluralize("worktree", len(doc.Worktrees)), path)
	return path, doc, nil
}

// ImportOptions contains options for the import command
type ImportOptions struct {
	File string
	// Apply writes the metadata; without it the import is only previewed
	Apply bool
}

// ImportResult describes what an import did or would do
type ImportResult struct {
	Document *Document
	Imported []string
	// Missing lists branches that do not exist in this repository
	Missing []string
	// Invalid counts entries without a branch or base
	Invalid int
}

// Read loads and validates an export file
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("import file %s not found: %w", path, cwerrors.ErrValidation)
	}
	if err != nil {
		return nil, cwerrors.NewIOError("read", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("import file %s is not valid JSON: %v: %w", path, err, cwerrors.ErrValidation)
	}
	if doc.ExportVersion == "" {
		return nil, fmt.Errorf("import file %s is not a cw export: %w", path, cwerrors.ErrValidation)
	}
	return &doc, nil
}

// Import previews an export file and, with Apply, records the metadata of
// every exported branch that exists locally. Base paths point at this
// repository's main worktree.
func Import(ctx *runtime.Context, opts ImportOptions) (*ImportResult, error) {
	eng := ctx.Engine
	splog := ctx.Splog

	doc, err := Read(opts.File)
	if err != nil {
		return nil, err
	}
	result := &ImportResult{Document: doc}

	splog.Info("Exported from %s at %s, %d %s:", doc.Repository, doc.ExportedAt.Format(time.RFC3339),
		len(doc.Worktrees), actions.Pluralize("worktree", len(doc.Worktrees)))
	for _, e := range doc.Worktrees {
		splog.Info("  %s (base %s, was at %s)", actions.Branch(e.Branch), e.BaseBranch, e.Path)
	}

	mainWt, err := eng.MainWorktree(ctx)
	if err != nil {
		return result, err
	}
	for _, e := range doc.Worktrees {
		if e.Branch == "" || e.BaseBranch == "" {
			result.Invalid++
			continue
		}
		ok, err := eng.Backend.BranchExists(ctx, e.Branch)
		if err != nil {
			return result, err
		}
		if !ok {
			result.Missing = append(result.Missing, e.Branch)
			splog.Warn("Branch %s not found locally, create it with: cw new %s --base %s", e.Branch, e.Branch, e.BaseBranch)
			continue
		}
		if !opts.Apply {
			result.Imported = append(result.Imported, e.Branch)
			continue
		}
		if err := eng.Metadata.Write(ctx, e.Branch, engine.MetadataRecord{
			BaseBranch: e.BaseBranch,
			BasePath:   mainWt.Path,
		}); err != nil {
			return result, err
		}
		result.Imported = append(result.Imported, e.Branch)
	}

	if !opts.Apply {
		splog.Info("Preview only, run again with --apply to import %d %s.",
			len(result.Imported), actions.Pluralize("branch", len(result.Imported)))
		return result, nil
	}
	splog.Success("Imported metadata for %d %s.", len(result.Imported), actions.Pluralize("branch", len(result.Imported)))
	return result, nil
}
