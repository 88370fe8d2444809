package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"contentpilot/internal/email"
	"contentpilot/internal/model"
)

type fakeWeeklyStore struct {
	articles []model.PublishedArticle
	subs     []model.Subscriber
	sends    []recordedSend
}

type recordedSend struct {
	subject    string
	articleIDs []int64
	recipients int
}

func (s *fakeWeeklyStore) RecentArticles(context.Context, int) ([]model.PublishedArticle, error) {
	return s.articles, nil
}

func (s *fakeWeeklyStore) ListActive(context.Context) ([]model.Subscriber, error) {
	return s.subs, nil
}

func (s *fakeWeeklyStore) RecordSend(_ context.Context, subject string, articleIDs []int64, recipients int) error {
	s.sends = append(s.sends, recordedSend{subject, articleIDs, recipients})
	return nil
}

type fakeSender struct {
	digests []email.Digest
	lists   [][]model.Subscriber
	failFor string
}

func (f *fakeSender) SendConfirmation(context.Context, model.Subscriber) error { return nil }

func (f *fakeSender) SendDigest(_ context.Context, subs []model.Subscriber, d email.Digest) (email.Tally, error) {
	f.digests = append(f.digests, d)
	f.lists = append(f.lists, subs)
	var tally email.Tally
	for _, s := range subs {
		if s.Email == f.failFor {
			tally.Failed = append(tally.Failed, s.Email)
			continue
		}
		tally.Sent++
	}
	return tally, nil
}

func weekArticles(n int) []model.PublishedArticle {
	out := make([]model.PublishedArticle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.PublishedArticle{
			ID:          int64(i + 1),
			Title:       "Article " + string(rune('A'+i)),
			Excerpt:     "excerpt",
			SourceURL:   "https://example.com/src",
			SourceName:  "Dev Blog",
			PostURL:     "https://blog.example.com/?p=" + string(rune('0'+i)),
			PublishedAt: time.Now().Add(-time.Duration(i) * time.Hour),
		})
	}
	return out
}

func TestWeeklyRunHappyPath(t *testing.T) {
	store := &fakeWeeklyStore{
		articles: weekArticles(8),
		subs: []model.Subscriber{
			{Email: "a@example.com", Confirmed: true, Active: true, UnsubscribeToken: "ua"},
			{Email: "b@example.com", Confirmed: true, Active: true, UnsubscribeToken: "ub"},
		},
	}
	sender := &fakeSender{}
	w := &Weekly{
		Generator:    &fakeGenerator{rankOrder: []int{2, 0, 4, 1, 3}, practiceTask: "Build something."},
		Sender:       sender,
		Store:        store,
		TopN:         5,
		LookbackDays: 7,
	}
	report, err := w.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Collected != 8 || report.Selected != 5 || report.Recipients != 2 || report.Sent != 2 || report.Failed != 0 {
		t.Errorf("report = %s", report)
	}

	if len(sender.digests) != 1 {
		t.Fatalf("sent %d digests", len(sender.digests))
	}
	d := sender.digests[0]
	if !strings.HasPrefix(d.Subject, "Top 5 Software Engineering News - ") {
		t.Errorf("subject = %q", d.Subject)
	}
	if len(d.Articles) != 5 {
		t.Fatalf("digest has %d articles", len(d.Articles))
	}
	if d.Articles[0].Title != "Article C" {
		t.Errorf("ranked order not honored, first = %q", d.Articles[0].Title)
	}
	if d.PracticeTask != "Build something." {
		t.Errorf("practice task = %q", d.PracticeTask)
	}

	if len(store.sends) != 1 {
		t.Fatalf("recorded %d sends", len(store.sends))
	}
	rec := store.sends[0]
	if rec.recipients != 2 {
		t.Errorf("recorded recipients = %d, want the eligible count", rec.recipients)
	}
	if len(rec.articleIDs) != 5 || rec.articleIDs[0] != 3 {
		t.Errorf("recorded article ids = %v", rec.articleIDs)
	}
}

func TestWeeklyRunRankFallback(t *testing.T) {
	store := &fakeWeeklyStore{
		articles: weekArticles(4),
		subs:     []model.Subscriber{{Email: "a@example.com", Confirmed: true, Active: true}},
	}
	sender := &fakeSender{}
	w := &Weekly{
		Generator: &fakeGenerator{rankErr: errors.New("model down")},
		Sender:    sender,
		Store:     store,
		TopN:      3,
	}
	report, err := w.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Selected != 3 {
		t.Errorf("selected = %d, want recency fallback of 3", report.Selected)
	}
	if sender.digests[0].Articles[0].Title != "Article A" {
		t.Errorf("fallback should keep recency order, first = %q", sender.digests[0].Articles[0].Title)
	}
}

func TestWeeklyRunIntroFallback(t *testing.T) {
	store := &fakeWeeklyStore{
		articles: weekArticles(2),
		subs:     []model.Subscriber{{Email: "a@example.com", Confirmed: true, Active: true}},
	}
	sender := &fakeSender{}
	w := &Weekly{
		Generator: &fakeGenerator{introErr: errors.New("model down"), taskErr: errors.New("model down")},
		Sender:    sender,
		Store:     store,
		TopN:      5,
	}
	if _, err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	d := sender.digests[0]
	if d.Intro == "" {
		t.Errorf("intro must fall back to static text")
	}
	if d.PracticeTask != "" {
		t.Errorf("practice task should be omitted on failure, got %q", d.PracticeTask)
	}
}

func TestWeeklyRunNoArticles(t *testing.T) {
	store := &fakeWeeklyStore{subs: []model.Subscriber{{Email: "a@example.com"}}}
	sender := &fakeSender{}
	w := &Weekly{Generator: &fakeGenerator{}, Sender: sender, Store: store, TopN: 5}

	report, err := w.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Collected != 0 || len(sender.digests) != 0 || len(store.sends) != 0 {
		t.Errorf("empty week must send and record nothing: report = %s", report)
	}
}

func TestWeeklyRunNoSubscribers(t *testing.T) {
	store := &fakeWeeklyStore{articles: weekArticles(3)}
	sender := &fakeSender{}
	w := &Weekly{Generator: &fakeGenerator{}, Sender: sender, Store: store, TopN: 5}

	report, err := w.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sender.digests) != 0 || len(store.sends) != 0 {
		t.Errorf("no-subscriber week must send and record nothing: report = %s", report)
	}
}

func TestWeeklyRunRecordsEligibleCountOnPartialFailure(t *testing.T) {
	store := &fakeWeeklyStore{
		articles: weekArticles(3),
		subs: []model.Subscriber{
			{Email: "a@example.com", Confirmed: true, Active: true},
			{Email: "b@example.com", Confirmed: true, Active: true},
			{Email: "c@example.com", Confirmed: true, Active: true},
		},
	}
	sender := &fakeSender{failFor: "b@example.com"}
	w := &Weekly{Generator: &fakeGenerator{}, Sender: sender, Store: store, TopN: 5}

	report, err := w.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Sent != 2 || report.Failed != 1 {
		t.Errorf("report = %s", report)
	}
	if store.sends[0].recipients != 3 {
		t.Errorf("recorded recipients = %d, want 3 (eligible at send time)", store.sends[0].recipients)
	}
}
