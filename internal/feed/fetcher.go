package feed

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"contentpilot/internal/model"
)

const maxSummaryLen = 500

// Fetcher retrieves and normalizes recent items from a set of RSS/Atom
// sources. A failing feed is skipped and logged; it never aborts the batch.
type Fetcher struct {
	sources []string
	parser  *gofeed.Parser
	timeout time.Duration
}

// NewFetcher builds a fetcher for the given feed URLs.
func NewFetcher(sources []string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	p := gofeed.NewParser()
	p.UserAgent = "contentpilot/1.0"
	return &Fetcher{sources: sources, parser: p, timeout: timeout}
}

// Fetch returns items published within the lookback window across all
// sources, deduplicated by URL and ordered most recent first, capped at max.
func (f *Fetcher) Fetch(ctx context.Context, lookback time.Duration, max int) ([]model.FeedItem, error) {
	cutoff := time.Now().Add(-lookback)
	var all []model.FeedItem
	for _, src := range f.sources {
		items, err := f.fetchOne(ctx, src, cutoff)
		if err != nil {
			slog.Error("feed: fetch failed", "url", src, "err", err)
			continue
		}
		slog.Info("feed: fetched", "url", src, "items", len(items))
		all = append(all, items...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PublishedAt.After(all[j].PublishedAt)
	})

	seen := map[string]struct{}{}
	out := make([]model.FeedItem, 0, len(all))
	for _, it := range all {
		if _, ok := seen[it.URL]; ok {
			continue
		}
		seen[it.URL] = struct{}{}
		out = append(out, it)
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, url string, cutoff time.Time) ([]model.FeedItem, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	parsed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, err
	}
	source := strings.TrimSpace(parsed.Title)
	if source == "" {
		source = url
	}

	items := make([]model.FeedItem, 0, len(parsed.Items))
	for _, e := range parsed.Items {
		if e == nil || strings.TrimSpace(e.Link) == "" {
			continue
		}
		pub := entryTime(e)
		if pub.Before(cutoff) {
			continue
		}
		summary := e.Description
		if strings.TrimSpace(summary) == "" {
			summary = e.Content
		}
		items = append(items, model.FeedItem{
			Source:      source,
			Title:       titleOrDefault(e.Title),
			URL:         e.Link,
			Summary:     CleanHTML(summary, maxSummaryLen),
			Author:      entryAuthor(e),
			Tags:        e.Categories,
			PublishedAt: pub,
		})
	}
	return items, nil
}

// entryTime picks the best available timestamp, falling back to now so
// undated entries count as fresh rather than being dropped.
func entryTime(e *gofeed.Item) time.Time {
	if e.PublishedParsed != nil {
		return *e.PublishedParsed
	}
	if e.UpdatedParsed != nil {
		return *e.UpdatedParsed
	}
	return time.Now()
}

func entryAuthor(e *gofeed.Item) string {
	if len(e.Authors) > 0 && e.Authors[0] != nil {
		return e.Authors[0].Name
	}
	return ""
}

func titleOrDefault(t string) string {
	t = strings.TrimSpace(t)
	if t == "" {
		return "No Title"
	}
	return t
}
