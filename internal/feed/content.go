package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// CleanHTML strips markup from a feed summary and truncates it to limit
// runes, appending an ellipsis when cut.
func CleanHTML(s string, limit int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	text := strings.Join(strings.Fields(doc.Text()), " ")
	r := []rune(text)
	if limit > 0 && len(r) > limit {
		return string(r[:limit-3]) + "..."
	}
	return text
}

// ContentFetcher pulls full article text from a page when the feed entry
// carries none. Best-effort; callers treat errors as "no content".
type ContentFetcher struct {
	client *http.Client
}

func NewContentFetcher(timeout time.Duration) *ContentFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ContentFetcher{client: &http.Client{Timeout: timeout}}
}

var contentSelectors = []string{"article", "main", ".post-content", ".article-content"}

// FetchText downloads the page and extracts the main article text.
func (c *ContentFetcher) FetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch content: status=%d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, nav, footer, aside").Remove()
	for _, sel := range contentSelectors {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			return strings.TrimSpace(node.Text()), nil
		}
	}
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return "", fmt.Errorf("fetch content: no body")
	}
	return strings.TrimSpace(body.Text()), nil
}
