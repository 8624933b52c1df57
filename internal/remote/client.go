// Package remote fetches ground-truth releases from the network origin and
// decides when the local cache needs refreshing.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"
)

const (
	defaultAPIBase = "https://api.github.com"

	// DefaultOwner and DefaultRepo identify the upstream reference dataset.
	DefaultOwner = "fityannugroho"
	DefaultRepo  = "idn-area-data"

	// DefaultTimeout bounds every request. Retry policy belongs to the
	// acquisition manager, not the client.
	DefaultTimeout = 30 * time.Second
)

// NetworkError reports a connectivity or protocol failure at the origin.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("remote: %s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// RateLimitError reports origin throttling. A caller-supplied token raises
// the limit; absent one, requests run unauthenticated.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	if e.ResetAt.IsZero() {
		return "remote: rate limit exceeded"
	}
	return fmt.Sprintf("remote: rate limit exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// Release describes the latest upstream dataset release.
type Release struct {
	Tag         string    `json:"tag_name"`
	PublishedAt time.Time `json:"published_at"`
	ZipballURL  string    `json:"zipball_url"`
}

// ProgressFunc receives download progress. total is -1 when the origin
// does not announce a content length.
type ProgressFunc func(received, total int64)

// ClientConfig configures a Client. Zero values fall back to the public
// GitHub API and the default dataset repository.
type ClientConfig struct {
	BaseURL string
	Owner   string
	Repo    string
	Token   string
	Timeout time.Duration
}

// Client talks to the release origin. It never retries internally.
type Client struct {
	http    *http.Client
	baseURL string
	owner   string
	repo    string
	token   string
}

// NewClient creates a Client from cfg.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAPIBase
	}
	if cfg.Owner == "" {
		cfg.Owner = DefaultOwner
	}
	if cfg.Repo == "" {
		cfg.Repo = DefaultRepo
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		token:   cfg.Token,
	}
}

// LatestRelease fetches the newest release descriptor.
func (c *Client) LatestRelease(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{Op: "build release request", Err: err}
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "fetch latest release", Err: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "fetch latest release"); err != nil {
		return nil, err
	}

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, &NetworkError{Op: "decode release response", Err: err}
	}
	if rel.Tag == "" || rel.ZipballURL == "" {
		return nil, &NetworkError{Op: "decode release response", Err: fmt.Errorf("incomplete release payload")}
	}
	return &rel, nil
}

// DownloadArchive streams the release zipball to dst, reporting progress.
// A partial download never survives: dst is removed on any failure.
func (c *Client) DownloadArchive(ctx context.Context, url, dst string, progress ProgressFunc) (err error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if reqErr != nil {
		return &NetworkError{Op: "build download request", Err: reqErr}
	}
	c.setHeaders(req)

	resp, doErr := c.http.Do(req)
	if doErr != nil {
		return &NetworkError{Op: "download archive", Err: doErr}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "download archive"); err != nil {
		return err
	}

	out, createErr := os.Create(dst)
	if createErr != nil {
		return fmt.Errorf("remote: create download target: %w", createErr)
	}
	defer func() {
		out.Close()
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	src := io.Reader(resp.Body)
	if progress != nil {
		src = &progressReader{r: resp.Body, total: resp.ContentLength, fn: progress}
	}
	if _, copyErr := io.Copy(out, src); copyErr != nil {
		return &NetworkError{Op: "download archive", Err: copyErr}
	}
	if closeErr := out.Close(); closeErr != nil {
		return fmt.Errorf("remote: finish download: %w", closeErr)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// checkStatus maps non-2xx responses to typed errors. GitHub signals an
// exhausted rate limit with 403/429 plus X-RateLimit-Remaining: 0.
func checkStatus(resp *http.Response, op string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			var resetAt time.Time
			if v, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
				resetAt = time.Unix(v, 0).UTC()
			}
			return &RateLimitError{ResetAt: resetAt}
		}
	}
	return &NetworkError{Op: op, Err: fmt.Errorf("unexpected status %s", resp.Status)}
}

// progressReader forwards reads while reporting cumulative progress.
type progressReader struct {
	r        io.Reader
	total    int64
	received int64
	fn       ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.received += int64(n)
		p.fn(p.received, p.total)
	}
	return n, err
}
