package engine

// Status is the live state of a worktree. It is recomputed on every listing.
type Status string

const (
	// StatusClean indicates no uncommitted or untracked changes
	StatusClean Status = "clean"
	// StatusModified indicates uncommitted or untracked changes
	StatusModified Status = "modified"
	// StatusStale indicates the worktree is registered but its directory is gone
	StatusStale Status = "stale"
	// StatusActive indicates the current process runs inside the worktree
	StatusActive Status = "active"
)

// Worktree is a registered worktree joined with its branch metadata
type Worktree struct {
	Branch     string
	Path       string
	Head       string
	Status     Status
	BaseBranch string // empty when no metadata is recorded
	BasePath   string
	IsMain     bool
	Detached   bool
}

// HasMetadata reports whether the worktree's branch has a recorded base
func (w Worktree) HasMetadata() bool {
	return w.BaseBranch != ""
}

// MetadataRecord is the provenance of a feature branch. It outlives the
// worktree directory until it is cleared explicitly.
type MetadataRecord struct {
	BaseBranch string
	BasePath   string
}
