// Package ghclient fetches repository metadata from the GitHub REST API.
package ghclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/spiffcs/stalemate/internal/log"
	"github.com/spiffcs/stalemate/internal/model"
)

// maxRateLimitWait bounds how long a request waits for the limit to reset.
const maxRateLimitWait = time.Hour

// rateLimitTransport wraps an http.RoundTripper to track GitHub rate limits.
type rateLimitTransport struct {
	base  http.RoundTripper
	state *RateLimitState
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.state.IsLimited() {
		return nil, ErrRateLimited
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	remaining, limit, resetAt := parseRateLimitHeaders(resp)
	if remaining >= 0 && limit > 0 {
		t.state.Update(remaining, limit, resetAt)
	}
	if remaining <= RateLimitLowWatermark && remaining > 0 {
		log.Debug("rate limit low", "remaining", remaining, "resets_at", resetAt.Format(time.RFC3339))
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		if resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.StatusCode == http.StatusTooManyRequests {
			t.state.SetLimited(true, resetAt)
			_ = resp.Body.Close()
			return nil, ErrRateLimited
		}
	}
	return resp, nil
}

// Client fetches repository metadata.
type Client struct {
	client *gh.Client
	limits *RateLimitState
}

// NewClient creates a client authenticated with a personal access token,
// falling back to GITHUB_TOKEN.
func NewClient(ctx context.Context, token string) (*Client, error) {
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("GitHub token not provided. Set the GITHUB_TOKEN environment variable")
	}

	tc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	return newClient(tc), nil
}

// NewClientWithBaseURL creates an unauthenticated client against another
// API endpoint, such as an enterprise server or a test server.
func NewClientWithBaseURL(baseURL string) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	c := newClient(&http.Client{})
	c.client.BaseURL = u
	return c, nil
}

func newClient(hc *http.Client) *Client {
	limits := &RateLimitState{}
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc.Transport = &rateLimitTransport{base: base, state: limits}
	return &Client{client: gh.NewClient(hc), limits: limits}
}

// RateLimits returns the last rate limit reported by the API.
func (c *Client) RateLimits() *RateLimitState {
	return c.limits
}

// SplitProject splits "owner/repo" into its parts.
func SplitProject(project string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(project, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid project %q, expected owner/repo", project)
	}
	return owner, repo, nil
}

// FetchMetadata returns the metadata of a repository. When the rate limit
// is exhausted it waits for the reset, bounded by the context.
func (c *Client) FetchMetadata(ctx context.Context, project string) (model.Metadata, error) {
	owner, name, err := SplitProject(project)
	if err != nil {
		return model.Metadata{}, err
	}

	for {
		repo, _, err := c.client.Repositories.Get(ctx, owner, name)
		if err == nil {
			return toMetadata(project, repo), nil
		}
		resetAt := c.limits.ResetAt()
		var rle *gh.RateLimitError
		switch {
		case errors.As(err, &rle):
			resetAt = rle.Rate.Reset.Time
		case !errors.Is(err, ErrRateLimited):
			return model.Metadata{}, fmt.Errorf("failed to get repository %s: %w", project, err)
		}

		wait := time.Until(resetAt)
		if wait <= 0 || wait > maxRateLimitWait {
			return model.Metadata{}, fmt.Errorf("repository %s: %w", project, err)
		}
		log.Info("rate limited, waiting for reset", "project", project, "wait", wait.Round(time.Second))
		select {
		case <-ctx.Done():
			return model.Metadata{}, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func toMetadata(project string, repo *gh.Repository) model.Metadata {
	return model.Metadata{
		Project:   project,
		CreatedAt: repo.GetCreatedAt().Time.UTC(),
		Language:  repo.GetLanguage(),
		Watchers:  repo.GetWatchersCount(),
		Archived:  repo.GetArchived(),
		Fork:      repo.GetFork(),
	}
}

// Quota is one rate limit bucket of the API.
type Quota struct {
	Name      string
	Remaining int
	Limit     int
	Reset     time.Time
}

// FetchQuotas returns the core and search rate limits of the token.
func (c *Client) FetchQuotas(ctx context.Context) ([]Quota, error) {
	limits, _, err := c.client.RateLimit.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limits: %w", err)
	}
	var quotas []Quota
	for _, b := range []struct {
		name string
		rate *gh.Rate
	}{{"Core API", limits.Core}, {"Search API", limits.Search}} {
		if b.rate == nil {
			continue
		}
		quotas = append(quotas, Quota{Name: b.name, Remaining: b.rate.Remaining, Limit: b.rate.Limit, Reset: b.rate.Reset.Time})
	}
	return quotas, nil
}
