// Package testhelper builds the cw binary for end-to-end CLI tests.
package testhelper

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

var (
	binaryOnce sync.Once
	binaryPath string
	binaryErr  error
)

// Binary returns the path of a cw binary built from this module, building it
// on first use. The binary is shared by every test in the process.
func Binary() (string, error) {
	binaryOnce.Do(func() {
		binaryPath, binaryErr = build()
	})
	return binaryPath, binaryErr
}

func build() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root := moduleRoot(wd)
	if root == "" {
		return "", fmt.Errorf("no go.mod above %s", wd)
	}

	dir, err := os.MkdirTemp("", "cw-test-binary-*")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "cw")
	cmd := exec.Command("go", "build", "-o", path, "./cmd/cw")
	cmd.Dir = root
	if out, err := cmd.CombinedOutput(); err != nil {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("go build ./cmd/cw: %s: %w", out, err)
	}
	return path, nil
}

func moduleRoot(dir string) string {
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
