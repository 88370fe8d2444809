package cmd

import (
	"fmt"
	"time"

	"contentpilot/internal/ai"
	"contentpilot/internal/config"
	"contentpilot/internal/email"
	"contentpilot/internal/feed"
	"contentpilot/internal/pipeline"
	"contentpilot/internal/redisclient"
	"contentpilot/internal/runlock"
	"contentpilot/internal/store"
	"contentpilot/internal/wordpress"

	"github.com/redis/go-redis/v9"
)

// Shared wiring between the daily, weekly, serve and post commands.

func mustDuration(name, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return d, nil
}

func newGenerator(cfg config.Config) (ai.Generator, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("openai.api_key is required")
	}
	return ai.NewOpenAI(ai.Config{
		APIKey:     cfg.OpenAI.APIKey,
		Model:      cfg.OpenAI.Model,
		BaseURL:    cfg.OpenAI.BaseURL,
		SiteName:   cfg.Site.Name,
		Audience:   cfg.Site.Audience,
		Categories: cfg.Site.Categories,
	}), nil
}

func newPublisher(cfg config.Config) (*wordpress.Client, error) {
	if cfg.WordPress.BaseURL == "" {
		return nil, fmt.Errorf("wordpress.base_url is required")
	}
	timeout, err := mustDuration("wordpress.timeout", cfg.WordPress.Timeout)
	if err != nil {
		return nil, err
	}
	return wordpress.New(cfg.WordPress.BaseURL, cfg.WordPress.Username,
		cfg.WordPress.AppPassword, cfg.WordPress.JWTToken, timeout), nil
}

func newDailyPipeline(cfg config.Config, st *store.Store) (*pipeline.Daily, error) {
	gen, err := newGenerator(cfg)
	if err != nil {
		return nil, err
	}
	pub, err := newPublisher(cfg)
	if err != nil {
		return nil, err
	}
	if len(cfg.Feeds.URLs) == 0 {
		return nil, fmt.Errorf("feeds.urls is empty")
	}
	fetchTimeout, err := mustDuration("feeds.timeout", cfg.Feeds.Timeout)
	if err != nil {
		return nil, err
	}
	lookback, err := mustDuration("feeds.lookback", cfg.Feeds.Lookback)
	if err != nil {
		return nil, err
	}
	backoff, err := mustDuration("wordpress.retry_backoff", cfg.WordPress.RetryBackoff)
	if err != nil {
		return nil, err
	}
	return &pipeline.Daily{
		Fetcher:       feed.NewFetcher(cfg.Feeds.URLs, fetchTimeout),
		Generator:     gen,
		Publisher:     pub,
		Store:         st,
		Enricher:      feed.NewContentFetcher(fetchTimeout),
		Quota:         cfg.Daily.Quota,
		Lookback:      lookback,
		MaxFetch:      cfg.Feeds.MaxArticles,
		PostStatus:    cfg.WordPress.PostStatus,
		RetryAttempts: cfg.WordPress.RetryAttempts,
		RetryBackoff:  backoff,
	}, nil
}

func newWeeklyPipeline(cfg config.Config, st *store.Store) (*pipeline.Weekly, error) {
	gen, err := newGenerator(cfg)
	if err != nil {
		return nil, err
	}
	mailer, err := email.NewMailer(cfg.Email, cfg.Site.Name, cfg.Site.BaseURL)
	if err != nil {
		return nil, err
	}
	return &pipeline.Weekly{
		Generator:    gen,
		Sender:       mailer,
		Store:        st,
		TopN:         cfg.Weekly.TopN,
		LookbackDays: cfg.Weekly.LookbackDays,
	}, nil
}

// newRunLock returns a redis-backed run lock, or nil when redis is not
// configured. The caller closes the returned client.
func newRunLock(cfg config.Config) (*runlock.Lock, *redis.Client) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	rdb := redisclient.New(cfg.Redis)
	return runlock.New(rdb, 0), rdb
}
