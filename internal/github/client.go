// Package github provides a client for opening pull requests on GitHub.
package github

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

// tokenTimeout bounds the `gh auth token` fallback
const tokenTimeout = 30 * time.Second

// Client opens pull requests against one repository
type Client struct {
	client *github.Client
	owner  string
	repo   string
}

// NewClient creates a client for the repository behind remoteURL. The token
// comes from GITHUB_TOKEN or, failing that, `gh auth token`.
func NewClient(ctx context.Context, remoteURL string) (*Client, error) {
	info, err := ParseRemoteURL(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get repository info: %w", err)
	}
	token, err := Token(ctx)
	if err != nil {
		return nil, err
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	// GitHub Enterprise serves the API under /api/v3/
	if info.Hostname != "github.com" {
		baseURL, err := url.Parse(fmt.Sprintf("https://%s/api/v3/", info.Hostname))
		if err != nil {
			return nil, fmt.Errorf("failed to parse base URL for hostname %s: %w", info.Hostname, err)
		}
		uploadURL, err := url.Parse(fmt.Sprintf("https://%s/api/uploads/", info.Hostname))
		if err != nil {
			return nil, fmt.Errorf("failed to parse upload URL for hostname %s: %w", info.Hostname, err)
		}
		client.BaseURL = baseURL
		client.UploadURL = uploadURL
	}

	return &Client{client: client, owner: info.Owner, repo: info.Repo}, nil
}

// NewClientWithAPI wraps an existing go-github client, e.g. one pointed at a test server
func NewClientWithAPI(client *github.Client, owner, repo string) *Client {
	return &Client{client: client, owner: owner, repo: repo}
}

// OwnerRepo returns the repository owner and name
func (c *Client) OwnerRepo() (string, string) {
	return c.owner, c.repo
}

// CreatePullRequest opens a pull request from head into base and returns its URL
func (c *Client) CreatePullRequest(ctx context.Context, head, base, title, body string, draft bool) (string, error) {
	pr := &github.NewPullRequest{
		Title: github.String(title),
		Head:  github.String(head),
		Base:  github.String(base),
		Draft: github.Bool(draft),
	}
	if body != "" {
		pr.Body = github.String(body)
	}

	created, _, err := c.client.PullRequests.Create(ctx, c.owner, c.repo, pr)
	if err != nil {
		return "", fmt.Errorf("failed to create pull request for %s: %w", head, err)
	}
	return created.GetHTMLURL(), nil
}

// Token returns a GitHub token from GITHUB_TOKEN or the gh CLI
func Token(ctx context.Context) (string, error) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}

	ctx, cancel := context.WithTimeout(ctx, tokenTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "gh", "auth", "token")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to get GitHub token (set GITHUB_TOKEN or run 'gh auth login'): %w", err)
	}

	token := strings.TrimSpace(stdout.String())
	if token == "" {
		return "", fmt.Errorf("empty GitHub token")
	}
	return token, nil
}

// RepoInfo contains parsed information from a git remote URL
type RepoInfo struct {
	Hostname string
	Owner    string
	Repo     string
}

// ParseRemoteURL extracts hostname, owner and repo from an https or ssh remote URL:
//   - https://github.com/owner/repo.git
//   - git@github.com:owner/repo.git
//   - ssh://git@github.company.com/owner/repo
func ParseRemoteURL(remoteURL string) (*RepoInfo, error) {
	s := strings.TrimSuffix(strings.TrimSpace(remoteURL), ".git")
	s = strings.TrimSuffix(s, "/")

	var hostname, path string
	switch {
	case strings.Contains(s, "://"):
		u, err := url.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid remote URL %q: %w", remoteURL, err)
		}
		hostname = u.Hostname()
		path = strings.TrimPrefix(u.Path, "/")
	case strings.Contains(s, "@") && strings.Contains(s, ":"):
		_, hostAndPath, _ := strings.Cut(s, "@")
		hostname, path, _ = strings.Cut(hostAndPath, ":")
	default:
		return nil, fmt.Errorf("unsupported remote URL %q", remoteURL)
	}

	parts := strings.Split(path, "/")
	if hostname == "" || len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return nil, fmt.Errorf("remote URL %q must look like host/owner/repo", remoteURL)
	}
	return &RepoInfo{
		Hostname: hostname,
		Owner:    parts[len(parts)-2],
		Repo:     parts[len(parts)-1],
	}, nil
}
