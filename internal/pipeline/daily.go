package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"contentpilot/internal/ai"
	"contentpilot/internal/model"
	"contentpilot/internal/wordpress"
)

// Fetcher pulls recent feed items.
type Fetcher interface {
	Fetch(ctx context.Context, lookback time.Duration, max int) ([]model.FeedItem, error)
}

// Publisher creates posts on the CMS.
type Publisher interface {
	CreatePost(ctx context.Context, p wordpress.CreatePostRequest) (wordpress.Post, error)
}

// Enricher pulls full article text when a feed entry carries only a stub
// summary.
type Enricher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// ArticleStore is the persistence the daily run needs.
type ArticleStore interface {
	IsPublished(ctx context.Context, sourceURL string) (bool, error)
	AddArticle(ctx context.Context, a model.PublishedArticle) (int64, error)
	QueueSocialPost(ctx context.Context, articleID int64, content string) (int64, error)
}

// DailyReport is the structured outcome of one daily run.
type DailyReport struct {
	Fetched   int // items within the window, after dedup
	Attempted int // items that entered per-item processing
	Published int
	Errored   int // per-item failures (generation or publish)
	Skipped   int // fresh items left beyond the quota
}

func (r DailyReport) String() string {
	return fmt.Sprintf("fetched=%d attempted=%d published=%d errored=%d skipped=%d",
		r.Fetched, r.Attempted, r.Published, r.Errored, r.Skipped)
}

// Daily runs fetch → generate → publish → queue, bounded by Quota. A
// failure in one item never aborts the others; only an authentication
// failure at the CMS ends the run early.
type Daily struct {
	Fetcher   Fetcher
	Generator ai.Generator
	Publisher Publisher
	Store     ArticleStore
	Enricher  Enricher // optional

	Quota         int
	Lookback      time.Duration
	MaxFetch      int
	PostStatus    string // draft | publish
	RetryAttempts int    // extra publish attempts on transient failure
	RetryBackoff  time.Duration
}

const (
	minSummaryRunes  = 200
	maxEnrichedRunes = 4000
)

// Run executes one daily pipeline invocation.
func (d *Daily) Run(ctx context.Context) (DailyReport, error) {
	var report DailyReport

	slog.Info("daily: fetching feed items", "lookback", d.Lookback)
	items, err := d.Fetcher.Fetch(ctx, d.Lookback, d.MaxFetch)
	if err != nil {
		return report, fmt.Errorf("fetch feeds: %w", err)
	}

	fresh := make([]model.FeedItem, 0, len(items))
	for _, it := range items {
		published, err := d.Store.IsPublished(ctx, it.URL)
		if err != nil {
			return report, fmt.Errorf("dedup check: %w", err)
		}
		if !published {
			fresh = append(fresh, it)
		}
	}
	report.Fetched = len(fresh)
	slog.Info("daily: fresh items after dedup", "count", len(fresh), "fetched", len(items))

	quota := d.Quota
	if quota <= 0 {
		quota = 5
	}
	if len(fresh) > quota {
		report.Skipped = len(fresh) - quota
		fresh = fresh[:quota]
	}

	for _, item := range fresh {
		report.Attempted++
		if err := d.processItem(ctx, item); err != nil {
			if errors.Is(err, wordpress.ErrUnauthorized) {
				// credential failure: nothing later in the batch can succeed
				report.Errored++
				slog.Error("daily: aborting run on auth failure", "err", err)
				return report, err
			}
			report.Errored++
			slog.Error("daily: item failed", "url", item.URL, "err", err)
			continue
		}
		report.Published++
	}

	slog.Info("daily: run complete", "report", report.String())
	return report, nil
}

func (d *Daily) processItem(ctx context.Context, item model.FeedItem) error {
	slog.Info("daily: processing", "title", item.Title, "url", item.URL)

	// Thin summaries produce thin posts; pull the page text when we can.
	if d.Enricher != nil && len([]rune(item.Summary)) < minSummaryRunes {
		if text, err := d.Enricher.FetchText(ctx, item.URL); err == nil && text != "" {
			if r := []rune(text); len(r) > maxEnrichedRunes {
				text = string(r[:maxEnrichedRunes])
			}
			item.Summary = text
		} else if err != nil {
			slog.Warn("daily: content enrichment failed", "url", item.URL, "err", err)
		}
	}

	post, err := d.Generator.GenerateBlogPost(ctx, item)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	category, err := d.Generator.SuggestCategory(ctx, post.Title, post.Excerpt)
	if err != nil {
		return fmt.Errorf("categorize: %w", err)
	}

	html, err := wordpress.RenderArticleHTML(post.Content, post.Excerpt, item.URL)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	created, err := d.publishWithRetry(ctx, wordpress.CreatePostRequest{
		Title:      post.Title,
		Content:    html,
		Excerpt:    post.Excerpt,
		Status:     d.PostStatus,
		Tags:       post.Tags,
		Categories: []string{category},
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	slog.Info("daily: published", "title", post.Title, "post_url", created.Link)

	articleID, err := d.Store.AddArticle(ctx, model.PublishedArticle{
		Title:      post.Title,
		Excerpt:    post.Excerpt,
		SourceURL:  item.URL,
		SourceName: item.Source,
		PostID:     created.ID,
		PostURL:    created.Link,
		Tags:       post.Tags,
	})
	if err != nil {
		return fmt.Errorf("track article: %w", err)
	}

	social, err := d.Generator.GenerateSocialPost(ctx, item)
	if err != nil {
		return fmt.Errorf("generate social: %w", err)
	}
	if _, err := d.Store.QueueSocialPost(ctx, articleID, social); err != nil {
		return fmt.Errorf("queue social: %w", err)
	}
	return nil
}

// publishWithRetry retries transient transport failures a configured number
// of times with backoff. Authentication failures are never retried.
func (d *Daily) publishWithRetry(ctx context.Context, req wordpress.CreatePostRequest) (wordpress.Post, error) {
	var lastErr error
	for attempt := 0; attempt <= d.RetryAttempts; attempt++ {
		if attempt > 0 {
			slog.Warn("daily: retrying publish", "attempt", attempt, "backoff", d.RetryBackoff, "err", lastErr)
			select {
			case <-ctx.Done():
				return wordpress.Post{}, ctx.Err()
			case <-time.After(d.RetryBackoff):
			}
		}
		post, err := d.Publisher.CreatePost(ctx, req)
		if err == nil {
			return post, nil
		}
		if errors.Is(err, wordpress.ErrUnauthorized) {
			return wordpress.Post{}, err
		}
		lastErr = err
	}
	return wordpress.Post{}, lastErr
}
