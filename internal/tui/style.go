package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"worktree.dev/cw/internal/engine"
)

var (
	branchStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	currentBranchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	dimStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle        = lipgloss.NewStyle().Bold(true)

	statusStyles = map[engine.Status]lipgloss.Style{
		engine.StatusClean:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		engine.StatusModified: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		engine.StatusStale:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		engine.StatusActive:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
	}

	changeStyles = map[byte]lipgloss.Style{
		'A': lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		'M': lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		'D': lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		'R': lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		'C': lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	}
)

// ColorBranchName colors a branch name, highlighting the current one
func ColorBranchName(name string, isCurrent bool) string {
	if isCurrent {
		return currentBranchStyle.Render(name)
	}
	return branchStyle.Render(name)
}

// ColorStatus colors a worktree status
func ColorStatus(status engine.Status) string {
	if s, ok := statusStyles[status]; ok {
		return s.Render(string(status))
	}
	return string(status)
}

// ColorChange colors a `git diff --name-status` letter such as M or R100
func ColorChange(status string) string {
	if status == "" {
		return status
	}
	if s, ok := changeStyles[status[0]]; ok {
		return s.Render(status)
	}
	return status
}

// ColorDim renders secondary text
func ColorDim(text string) string {
	return dimStyle.Render(text)
}

// RenderWorktreeList renders worktrees as an aligned table
func RenderWorktreeList(worktrees []engine.Worktree) string {
	branchWidth, statusWidth := len("BRANCH"), len("STATUS")
	for _, wt := range worktrees {
		branchWidth = max(branchWidth, len(displayBranch(wt)))
		statusWidth = max(statusWidth, len(wt.Status))
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-*s  %-*s  %s", branchWidth, "BRANCH", statusWidth, "STATUS", "PATH")))
	b.WriteString("\n")
	for _, wt := range worktrees {
		name := displayBranch(wt)
		pad := strings.Repeat(" ", branchWidth-len(name))
		statusPad := strings.Repeat(" ", statusWidth-len(wt.Status))
		line := ColorBranchName(name, wt.Status == engine.StatusActive) + pad + "  " +
			ColorStatus(wt.Status) + statusPad + "  " + wt.Path
		if wt.BaseBranch != "" {
			line += " " + ColorDim("(base: "+wt.BaseBranch+")")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func displayBranch(wt engine.Worktree) string {
	if wt.Branch == "" {
		return "(detached)"
	}
	return wt.Branch
}
