package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"contentpilot/internal/ai"
	"contentpilot/internal/email"
	"contentpilot/internal/model"
)

// WeeklyStore is the persistence the weekly run needs.
type WeeklyStore interface {
	RecentArticles(ctx context.Context, days int) ([]model.PublishedArticle, error)
	ListActive(ctx context.Context) ([]model.Subscriber, error)
	RecordSend(ctx context.Context, subject string, articleIDs []int64, recipients int) error
}

// WeeklyReport is the structured outcome of one weekly run.
type WeeklyReport struct {
	Collected  int // articles found in the lookback window
	Selected   int // articles in the digest
	Recipients int // eligible subscribers at send time
	Sent       int
	Failed     int
}

func (r WeeklyReport) String() string {
	return fmt.Sprintf("collected=%d selected=%d recipients=%d sent=%d failed=%d",
		r.Collected, r.Selected, r.Recipients, r.Sent, r.Failed)
}

// Weekly runs collect → rank → render → send. Ranking degrades to recency
// order when the model call fails; a failed recipient never blocks the rest.
type Weekly struct {
	Generator ai.Generator
	Sender    email.Sender
	Store     WeeklyStore

	TopN         int
	LookbackDays int
}

// Run executes one weekly pipeline invocation.
func (w *Weekly) Run(ctx context.Context) (WeeklyReport, error) {
	var report WeeklyReport

	days := w.LookbackDays
	if days <= 0 {
		days = 7
	}
	articles, err := w.Store.RecentArticles(ctx, days)
	if err != nil {
		return report, fmt.Errorf("collect articles: %w", err)
	}
	report.Collected = len(articles)
	if len(articles) == 0 {
		slog.Warn("weekly: no articles published in the window; nothing to send")
		return report, nil
	}

	top := w.rank(ctx, articles)
	report.Selected = len(top)

	intro, err := w.Generator.GenerateIntro(ctx, top)
	if err != nil || intro == "" {
		slog.Warn("weekly: intro generation failed, using fallback", "err", err)
		intro = fmt.Sprintf("Welcome to this week's digest! Here are the top %d stories you shouldn't miss.", len(top))
	}
	task, err := w.Generator.GeneratePracticeTask(ctx, top)
	if err != nil {
		slog.Warn("weekly: practice task generation failed, omitting", "err", err)
		task = ""
	}

	subs, err := w.Store.ListActive(ctx)
	if err != nil {
		return report, fmt.Errorf("list subscribers: %w", err)
	}
	report.Recipients = len(subs)
	if len(subs) == 0 {
		slog.Warn("weekly: no confirmed active subscribers; skipping send")
		return report, nil
	}

	digest := email.Digest{
		Subject:      fmt.Sprintf("Top %d Software Engineering News - %s", len(top), time.Now().Format("January 2, 2006")),
		Intro:        intro,
		PracticeTask: task,
		Articles:     make([]email.Article, 0, len(top)),
	}
	articleIDs := make([]int64, 0, len(top))
	for _, a := range top {
		url := a.PostURL
		if url == "" {
			url = a.SourceURL
		}
		digest.Articles = append(digest.Articles, email.Article{
			Title:   a.Title,
			Summary: summaryFor(a),
			URL:     url,
			Source:  a.SourceName,
		})
		articleIDs = append(articleIDs, a.ID)
	}

	slog.Info("weekly: sending digest", "subject", digest.Subject, "recipients", len(subs))
	tally, err := w.Sender.SendDigest(ctx, subs, digest)
	report.Sent = tally.Sent
	report.Failed = len(tally.Failed)
	if err != nil {
		return report, fmt.Errorf("send digest: %w", err)
	}

	// the audit record carries the eligible-recipient count, not the
	// delivered count; partial failures are visible in logs and the report
	if err := w.Store.RecordSend(ctx, digest.Subject, articleIDs, len(subs)); err != nil {
		return report, fmt.Errorf("record send: %w", err)
	}
	slog.Info("weekly: run complete", "report", report.String())
	return report, nil
}

// rank orders articles by newsletter value via the model, keeping recency
// order when the ranking call fails.
func (w *Weekly) rank(ctx context.Context, articles []model.PublishedArticle) []model.PublishedArticle {
	n := w.TopN
	if n <= 0 {
		n = 5
	}
	if n > len(articles) {
		n = len(articles)
	}
	top, err := w.Generator.RankArticles(ctx, articles, n)
	if err != nil || len(top) == 0 {
		slog.Warn("weekly: ranking failed, falling back to recency order", "err", err)
		return articles[:n]
	}
	return top
}

func summaryFor(a model.PublishedArticle) string {
	if a.Excerpt != "" {
		return a.Excerpt
	}
	return fmt.Sprintf("From %s.", a.SourceName)
}
