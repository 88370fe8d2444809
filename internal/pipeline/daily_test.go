package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"contentpilot/internal/model"
	"contentpilot/internal/wordpress"
)

type fakeFetcher struct {
	items []model.FeedItem
	err   error
}

func (f *fakeFetcher) Fetch(context.Context, time.Duration, int) ([]model.FeedItem, error) {
	return f.items, f.err
}

type fakeGenerator struct {
	failBlogFor  string // item URL whose generation fails
	rankErr      error
	rankOrder    []int // indices into the input slice
	introErr     error
	taskErr      error
	practiceTask string
}

func (g *fakeGenerator) GenerateBlogPost(_ context.Context, item model.FeedItem) (model.GeneratedPost, error) {
	if item.URL == g.failBlogFor {
		return model.GeneratedPost{}, errors.New("model overloaded")
	}
	return model.GeneratedPost{
		Title:   "Generated: " + item.Title,
		Excerpt: "About " + item.Title,
		Content: "## " + item.Title + "\n\nBody.",
		Tags:    []string{"news"},
	}, nil
}

func (g *fakeGenerator) GenerateSocialPost(_ context.Context, item model.FeedItem) (string, error) {
	return "Read our take on " + item.Title, nil
}

func (g *fakeGenerator) SuggestCategory(context.Context, string, string) (string, error) {
	return ".NET Development", nil
}

func (g *fakeGenerator) RankArticles(_ context.Context, articles []model.PublishedArticle, n int) ([]model.PublishedArticle, error) {
	if g.rankErr != nil {
		return nil, g.rankErr
	}
	if g.rankOrder == nil {
		if n > len(articles) {
			n = len(articles)
		}
		return articles[:n], nil
	}
	out := make([]model.PublishedArticle, 0, len(g.rankOrder))
	for _, i := range g.rankOrder {
		out = append(out, articles[i])
	}
	return out, nil
}

func (g *fakeGenerator) GenerateIntro(context.Context, []model.PublishedArticle) (string, error) {
	if g.introErr != nil {
		return "", g.introErr
	}
	return "A fine week for software.", nil
}

func (g *fakeGenerator) GeneratePracticeTask(context.Context, []model.PublishedArticle) (string, error) {
	if g.taskErr != nil {
		return "", g.taskErr
	}
	return g.practiceTask, nil
}

type fakePublisher struct {
	created   []wordpress.CreatePostRequest
	failFirst int // fail this many calls with a transient error
	authFail  bool
	calls     int
}

func (p *fakePublisher) CreatePost(_ context.Context, req wordpress.CreatePostRequest) (wordpress.Post, error) {
	p.calls++
	if p.authFail {
		return wordpress.Post{}, fmt.Errorf("%w: status=401", wordpress.ErrUnauthorized)
	}
	if p.calls <= p.failFirst {
		return wordpress.Post{}, errors.New("status=502")
	}
	p.created = append(p.created, req)
	return wordpress.Post{ID: int64(100 + p.calls), Link: fmt.Sprintf("https://blog.example.com/?p=%d", 100+p.calls)}, nil
}

type fakeArticleStore struct {
	published map[string]bool
	articles  []model.PublishedArticle
	social    []string
	nextID    int64
}

func newFakeArticleStore(published ...string) *fakeArticleStore {
	m := map[string]bool{}
	for _, u := range published {
		m[u] = true
	}
	return &fakeArticleStore{published: m}
}

func (s *fakeArticleStore) IsPublished(_ context.Context, url string) (bool, error) {
	return s.published[url], nil
}

func (s *fakeArticleStore) AddArticle(_ context.Context, a model.PublishedArticle) (int64, error) {
	s.nextID++
	a.ID = s.nextID
	s.articles = append(s.articles, a)
	s.published[a.SourceURL] = true
	return a.ID, nil
}

func (s *fakeArticleStore) QueueSocialPost(_ context.Context, articleID int64, content string) (int64, error) {
	s.social = append(s.social, content)
	return int64(len(s.social)), nil
}

func feedItems(n int) []model.FeedItem {
	items := make([]model.FeedItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, model.FeedItem{
			Source:      "Dev Blog",
			Title:       fmt.Sprintf("Item %d", i),
			URL:         fmt.Sprintf("https://example.com/item-%d", i),
			Summary:     strings.Repeat("Interesting summary text. ", 20),
			PublishedAt: time.Now().Add(-time.Duration(i) * time.Hour),
		})
	}
	return items
}

func TestDailyRunHappyPath(t *testing.T) {
	store := newFakeArticleStore()
	pub := &fakePublisher{}
	d := &Daily{
		Fetcher:    &fakeFetcher{items: feedItems(3)},
		Generator:  &fakeGenerator{},
		Publisher:  pub,
		Store:      store,
		Quota:      5,
		PostStatus: "draft",
	}
	report, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Fetched != 3 || report.Attempted != 3 || report.Published != 3 || report.Errored != 0 || report.Skipped != 0 {
		t.Errorf("report = %s", report)
	}
	if len(store.articles) != 3 || len(store.social) != 3 {
		t.Errorf("stored %d articles, %d social posts", len(store.articles), len(store.social))
	}
	if pub.created[0].Status != "draft" {
		t.Errorf("status = %q", pub.created[0].Status)
	}
	if len(pub.created[0].Categories) != 1 || pub.created[0].Categories[0] != ".NET Development" {
		t.Errorf("categories = %v", pub.created[0].Categories)
	}
	if !strings.Contains(pub.created[0].Content, "<h2") {
		t.Errorf("content should be rendered HTML, got %q", pub.created[0].Content[:60])
	}
}

func TestDailyRunSkipsAlreadyPublished(t *testing.T) {
	items := feedItems(3)
	store := newFakeArticleStore(items[1].URL)
	d := &Daily{
		Fetcher:   &fakeFetcher{items: items},
		Generator: &fakeGenerator{},
		Publisher: &fakePublisher{},
		Store:     store,
		Quota:     5,
	}
	report, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Fetched != 2 || report.Published != 2 {
		t.Errorf("report = %s", report)
	}

	// a second run over the same feed publishes nothing
	report, err = d.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if report.Fetched != 0 || report.Published != 0 {
		t.Errorf("second run report = %s, want all deduplicated", report)
	}
}

func TestDailyRunQuota(t *testing.T) {
	store := newFakeArticleStore()
	d := &Daily{
		Fetcher:   &fakeFetcher{items: feedItems(8)},
		Generator: &fakeGenerator{},
		Publisher: &fakePublisher{},
		Store:     store,
		Quota:     5,
	}
	report, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Published != 5 || report.Skipped != 3 {
		t.Errorf("report = %s", report)
	}
}

func TestDailyRunIsolatesItemFailure(t *testing.T) {
	items := feedItems(5)
	store := newFakeArticleStore()
	d := &Daily{
		Fetcher:   &fakeFetcher{items: items},
		Generator: &fakeGenerator{failBlogFor: items[2].URL},
		Publisher: &fakePublisher{},
		Store:     store,
		Quota:     5,
	}
	report, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Published != 4 || report.Errored != 1 {
		t.Errorf("report = %s, want 4 published and 1 errored", report)
	}
	if store.published[items[2].URL] {
		t.Errorf("failed item must not be recorded as published")
	}
}

func TestDailyRunAbortsOnAuthFailure(t *testing.T) {
	store := newFakeArticleStore()
	pub := &fakePublisher{authFail: true}
	d := &Daily{
		Fetcher:   &fakeFetcher{items: feedItems(4)},
		Generator: &fakeGenerator{},
		Publisher: pub,
		Store:     store,
		Quota:     5,
	}
	report, err := d.Run(context.Background())
	if !errors.Is(err, wordpress.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if report.Attempted != 1 {
		t.Errorf("run must stop at the first auth failure, attempted = %d", report.Attempted)
	}
	if pub.calls != 1 {
		t.Errorf("auth failures must not be retried, calls = %d", pub.calls)
	}
}

func TestDailyRunRetriesTransientPublish(t *testing.T) {
	store := newFakeArticleStore()
	pub := &fakePublisher{failFirst: 1}
	d := &Daily{
		Fetcher:       &fakeFetcher{items: feedItems(1)},
		Generator:     &fakeGenerator{},
		Publisher:     pub,
		Store:         store,
		Quota:         5,
		RetryAttempts: 2,
		RetryBackoff:  time.Millisecond,
	}
	report, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Published != 1 || report.Errored != 0 {
		t.Errorf("report = %s", report)
	}
	if pub.calls != 2 {
		t.Errorf("calls = %d, want 2 (one failure, one retry)", pub.calls)
	}
}

type fakeEnricher struct {
	text string
	got  []string
}

func (e *fakeEnricher) FetchText(_ context.Context, url string) (string, error) {
	e.got = append(e.got, url)
	return e.text, nil
}

func TestDailyRunEnrichesThinSummaries(t *testing.T) {
	item := model.FeedItem{
		Title:       "Thin",
		URL:         "https://example.com/thin",
		Summary:     "short",
		PublishedAt: time.Now(),
	}
	enricher := &fakeEnricher{text: "The full article text."}
	d := &Daily{
		Fetcher:   &fakeFetcher{items: []model.FeedItem{item}},
		Generator: &fakeGenerator{},
		Publisher: &fakePublisher{},
		Store:     newFakeArticleStore(),
		Enricher:  enricher,
		Quota:     5,
	}
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(enricher.got) != 1 || enricher.got[0] != item.URL {
		t.Errorf("enricher called for %v, want [%s]", enricher.got, item.URL)
	}
}
