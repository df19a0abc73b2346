package main

import (
	"os"

	"worktree.dev/cw/internal/cli"
	"worktree.dev/cw/internal/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := cli.NewRootCmd(version, commit, date)
	if err := rootCmd.Execute(); err != nil {
		if splog, logErr := tui.NewSplogWithConfig(os.Stderr, ""); logErr == nil {
			splog.Error("%v", err)
		}
		os.Exit(1)
	}
}
