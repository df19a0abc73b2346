// Package utils provides small OS helpers shared by commands.
package utils

import (
	"context"
	"os/exec"
	"runtime"
)

// BrowserCommand returns the command that opens url in the default browser on goos
func BrowserCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "cmd", []string{"/c", "start", url}
	default:
		return "xdg-open", []string{url}
	}
}

// OpenBrowser opens url in the default browser
func OpenBrowser(ctx context.Context, url string) error {
	name, args := BrowserCommand(runtime.GOOS, url)
	return exec.CommandContext(ctx, name, args...).Run()
}
