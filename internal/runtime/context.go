package runtime

import (
	"context"
	"fmt"
	"os"

	"worktree.dev/cw/internal/config"
	"worktree.dev/cw/internal/engine"
	"worktree.dev/cw/internal/git"
	"worktree.dev/cw/internal/github"
	"worktree.dev/cw/internal/tui"
)

// Prompter asks the user questions. tui.SurveyPrompter is the terminal implementation.
type Prompter interface {
	Confirm(message string) (bool, error)
	MultiSelect(message string, options []string) ([]string, error)
}

// Context provides access to engine and output for commands
type Context struct {
	context.Context

	Engine   *engine.Engine
	Splog    *tui.Splog
	Config   config.Config
	RepoRoot string
	Prompter Prompter

	githubClient *github.Client
}

// NewContext creates a context over an existing engine
func NewContext(ctx context.Context, eng *engine.Engine, splog *tui.Splog, cfg config.Config) *Context {
	return &Context{
		Context:  ctx,
		Engine:   eng,
		Splog:    splog,
		Config:   cfg,
		RepoRoot: eng.Backend.RepoRoot(),
		Prompter: tui.NewSurveyPrompter(),
	}
}

// GetContext loads the user configuration and opens the repository containing
// the working directory.
func GetContext(ctx context.Context) (*Context, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	splog, err := tui.NewSplogWithConfig(os.Stdout, cfg.LogFile)
	if err != nil {
		// a broken log location must not block commands
		splog = tui.NewSplog()
		splog.Debug("log file disabled: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	backend, err := git.Open(ctx, wd)
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}
	backend.SetDefaultRemote(cfg.Remote)

	eng := engine.New(backend, engine.WithWorkingDir(wd))
	return NewContext(ctx, eng, splog, cfg), nil
}

// GitHubClient returns a client for the repository's PR remote, creating it on first use
func (c *Context) GitHubClient() (*github.Client, error) {
	if c.githubClient != nil {
		return c.githubClient, nil
	}

	remote := c.Config.PR.BaseRemote
	if remote == "" {
		remote = c.Engine.Backend.DefaultRemote(c)
	}
	remoteURL, err := c.Engine.Backend.RemoteURL(c, remote)
	if err != nil {
		return nil, err
	}

	client, err := github.NewClient(c, remoteURL)
	if err != nil {
		return nil, err
	}
	c.githubClient = client
	return client, nil
}

// SetGitHubClient replaces the lazily created client
func (c *Context) SetGitHubClient(client *github.Client) {
	c.githubClient = client
}
