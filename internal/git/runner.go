package git

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	cwerrors "worktree.dev/cw/internal/errors"
)

// DefaultCommandTimeout is the default timeout for git commands
const DefaultCommandTimeout = 5 * time.Minute

// CommandRunner handles execution of git commands
type CommandRunner struct {
	workingDir string
	env        []string
}

// NewCommandRunner creates a new CommandRunner
func NewCommandRunner(workingDir string) *CommandRunner {
	return &CommandRunner{workingDir: workingDir}
}

// WithEnv returns a copy of the runner that adds env to every command
func (r *CommandRunner) WithEnv(env ...string) *CommandRunner {
	return &CommandRunner{workingDir: r.workingDir, env: append(append([]string{}, r.env...), env...)}
}

// WorkingDir returns the directory commands run in by default
func (r *CommandRunner) WorkingDir() string {
	return r.workingDir
}

// Run executes a git command in the runner's working directory and returns trimmed output
func (r *CommandRunner) Run(ctx context.Context, args ...string) (string, error) {
	out, err := r.run(ctx, r.workingDir, nil, args...)
	return strings.TrimSpace(out), err
}

// RunIn executes a git command in dir and returns trimmed output
func (r *CommandRunner) RunIn(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := r.run(ctx, r.dirOrDefault(dir), nil, args...)
	return strings.TrimSpace(out), err
}

// RunRawIn executes a git command in dir and returns the untrimmed output
func (r *CommandRunner) RunRawIn(ctx context.Context, dir string, args ...string) (string, error) {
	return r.run(ctx, r.dirOrDefault(dir), nil, args...)
}

// RunLinesIn executes a git command in dir and returns non-empty output lines
func (r *CommandRunner) RunLinesIn(ctx context.Context, dir string, args ...string) ([]string, error) {
	out, err := r.RunIn(ctx, dir, args...)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return []string{}, nil
	}
	return strings.Split(out, "\n"), nil
}

// RunWithInputIn executes a git command in dir with input on stdin
func (r *CommandRunner) RunWithInputIn(ctx context.Context, dir string, input []byte, args ...string) (string, error) {
	out, err := r.run(ctx, r.dirOrDefault(dir), input, args...)
	return strings.TrimSpace(out), err
}

func (r *CommandRunner) dirOrDefault(dir string) string {
	if dir == "" {
		return r.workingDir
	}
	return dir
}

func (r *CommandRunner) run(ctx context.Context, dir string, input []byte, args ...string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// If no timeout/deadline is set in the context, add the default one
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCommandTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", cwerrors.NewGitCommandError("git", args, dir, stdout.String(), stderr.String(), ctx.Err())
		}
		return stdout.String(), cwerrors.NewGitCommandError("git", args, dir, stdout.String(), stderr.String(), err)
	}
	return stdout.String(), nil
}
