package wordpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnauthorized reports a credential failure (401/403). Callers treat it
// as fatal for the run, unlike transient transport errors.
var ErrUnauthorized = errors.New("wordpress: unauthorized")

// Post is the subset of the created-post response the pipelines use.
type Post struct {
	ID   int64
	Link string
}

// CreatePostRequest describes a post to create.
type CreatePostRequest struct {
	Title      string
	Content    string // HTML
	Excerpt    string
	Status     string // draft | publish
	Tags       []string
	Categories []string
}

// Client is a minimal HTTP client for the WordPress REST API. Auth is HTTP
// Basic with an application password, or a JWT bearer token when set.
type Client struct {
	baseURL  string
	username string
	password string
	jwtToken string
	http     *http.Client
}

// New creates a client for a site like "https://example.com" (no trailing
// slash, no /wp-json suffix).
func New(baseURL, username, appPassword, jwtToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: appPassword,
		jwtToken: jwtToken,
		http:     &http.Client{Timeout: timeout},
	}
}

func (c *Client) apiURL(path string) string {
	return c.baseURL + "/wp-json/wp/v2" + path
}

func (c *Client) authorize(req *http.Request) {
	if c.jwtToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.jwtToken)
		return
	}
	creds := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.password))
	req.Header.Set("Authorization", "Basic "+creds)
}

// CreatePost creates a post with the given status and returns its ID and
// permalink. Tag and category names are resolved (or created) first;
// failures there degrade to an untagged post rather than aborting.
func (c *Client) CreatePost(ctx context.Context, p CreatePostRequest) (Post, error) {
	if c == nil {
		return Post{}, errors.New("nil wordpress client")
	}
	body := map[string]any{
		"title":   p.Title,
		"content": p.Content,
		"status":  p.Status,
		"excerpt": p.Excerpt,
	}
	if len(p.Tags) > 0 {
		if ids := c.resolveTerms(ctx, "tags", p.Tags); len(ids) > 0 {
			body["tags"] = ids
		}
	}
	if len(p.Categories) > 0 {
		if ids := c.resolveTerms(ctx, "categories", p.Categories); len(ids) > 0 {
			body["categories"] = ids
		}
	}

	var out struct {
		ID   int64  `json:"id"`
		Link string `json:"link"`
	}
	if err := c.do(ctx, http.MethodPost, c.apiURL("/posts"), body, &out); err != nil {
		return Post{}, err
	}
	if out.ID == 0 {
		return Post{}, errors.New("create post: missing id in response")
	}
	return Post{ID: out.ID, Link: out.Link}, nil
}

// Ping verifies API reachability and credentials.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, c.apiURL("/posts?per_page=1"), nil, nil)
}

// resolveTerms maps tag/category names to IDs, creating missing ones.
// Individual term failures are logged and dropped.
func (c *Client) resolveTerms(ctx context.Context, taxonomy string, names []string) []int64 {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, err := c.getOrCreateTerm(ctx, taxonomy, name)
		if err != nil {
			slog.Warn("wordpress: resolve term failed", "taxonomy", taxonomy, "name", name, "err", err)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (c *Client) getOrCreateTerm(ctx context.Context, taxonomy, name string) (int64, error) {
	var found []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	searchURL := c.apiURL("/" + taxonomy + "?search=" + url.QueryEscape(name))
	if err := c.do(ctx, http.MethodGet, searchURL, nil, &found); err != nil {
		return 0, err
	}
	if len(found) > 0 && strings.EqualFold(found[0].Name, name) {
		return found[0].ID, nil
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, c.apiURL("/"+taxonomy), map[string]any{"name": name}, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: status=%d", ErrUnauthorized, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("wordpress: %s %s failed: status=%d body=%s", method, url, resp.StatusCode, string(b))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return err
		}
	}
	return nil
}
