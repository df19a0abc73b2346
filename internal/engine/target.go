package engine

import (
	"os"
	"path/filepath"
	"strings"
)

// Target identifies a worktree either by branch or by filesystem path.
// It is parsed once at the command boundary and resolved once by the Registry.
type Target interface {
	String() string
	isTarget()
}

// BranchTarget selects the worktree that has a branch checked out
type BranchTarget struct {
	Name string
}

func (t BranchTarget) String() string { return t.Name }
func (BranchTarget) isTarget()        {}

// PathTarget selects the worktree whose directory is (or contains) Path
type PathTarget struct {
	Path string
}

func (t PathTarget) String() string { return t.Path }
func (PathTarget) isTarget()        {}

// ParseTarget interprets s as a path when it names an existing file system
// entry and as a branch name otherwise. A refs/heads/ prefix is stripped.
func ParseTarget(s string) Target {
	if s == "" {
		return BranchTarget{}
	}
	if _, err := os.Stat(s); err == nil {
		if abs, err := filepath.Abs(s); err == nil {
			return PathTarget{Path: abs}
		}
	}
	return BranchTarget{Name: strings.TrimPrefix(s, "refs/heads/")}
}
