package store

import (
	"context"
	"database/sql"
	"testing"

	"contentpilot/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	// the in-memory database disappears with a second connection
	db.SetMaxOpenConns(1)
	s := New(db, "sqlite3")
	if err := s.InitSchema(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return s
}

func TestSubscribeIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Subscribe(ctx, "Dev@Example.com", "Dev")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if !first.Created {
		t.Errorf("first subscribe should create")
	}
	if first.Subscriber.Email != "dev@example.com" {
		t.Errorf("email not lowercased: %q", first.Subscriber.Email)
	}
	if first.Subscriber.ConfirmationToken == "" || first.Subscriber.UnsubscribeToken == "" {
		t.Errorf("tokens missing: %+v", first.Subscriber)
	}
	if first.Subscriber.ConfirmationToken == first.Subscriber.UnsubscribeToken {
		t.Errorf("tokens must be independent")
	}

	second, err := s.Subscribe(ctx, "dev@example.com", "Developer")
	if err != nil {
		t.Fatalf("repeat Subscribe: %v", err)
	}
	if second.Created {
		t.Errorf("repeat subscribe must not create a second row")
	}
	if second.Subscriber.ID != first.Subscriber.ID {
		t.Errorf("ids differ: %d vs %d", second.Subscriber.ID, first.Subscriber.ID)
	}
	if second.Subscriber.Name != "Developer" {
		t.Errorf("name should update on resubscribe: %q", second.Subscriber.Name)
	}
}

func TestSubscribeRejectsInvalidEmail(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Subscribe(context.Background(), "not-an-email", ""); err != ErrInvalidEmail {
		t.Fatalf("err = %v, want ErrInvalidEmail", err)
	}
}

func TestConfirmAndUnsubscribe(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	res, err := s.Subscribe(ctx, "a@example.com", "A")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	sub := res.Subscriber

	ok, err := s.Confirm(ctx, sub.ConfirmationToken)
	if err != nil || !ok {
		t.Fatalf("Confirm = %v, %v", ok, err)
	}
	// confirming again with the same token still succeeds
	ok, err = s.Confirm(ctx, sub.ConfirmationToken)
	if err != nil || !ok {
		t.Fatalf("repeat Confirm = %v, %v", ok, err)
	}
	ok, err = s.Confirm(ctx, "bogus")
	if err != nil {
		t.Fatalf("Confirm bogus: %v", err)
	}
	if ok {
		t.Errorf("unknown token must not confirm")
	}

	ok, err = s.Unsubscribe(ctx, sub.UnsubscribeToken)
	if err != nil || !ok {
		t.Fatalf("Unsubscribe = %v, %v", ok, err)
	}
	ok, err = s.Unsubscribe(ctx, sub.UnsubscribeToken)
	if err != nil || !ok {
		t.Fatalf("repeat Unsubscribe = %v, %v", ok, err)
	}

	got, err := s.GetSubscriberByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("GetSubscriberByEmail: %v", err)
	}
	if got == nil || got.Active {
		t.Errorf("subscriber should be inactive after unsubscribe: %+v", got)
	}
}

func TestListActiveOnlyConfirmedActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, _ := s.Subscribe(ctx, "a@example.com", "A") // confirmed + active
	b, _ := s.Subscribe(ctx, "b@example.com", "B") // confirmed then unsubscribed
	if _, err := s.Subscribe(ctx, "c@example.com", "C"); err != nil {
		t.Fatal(err) // never confirmed
	}

	if _, err := s.Confirm(ctx, a.Subscriber.ConfirmationToken); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Confirm(ctx, b.Subscriber.ConfirmationToken); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Unsubscribe(ctx, b.Subscriber.UnsubscribeToken); err != nil {
		t.Fatal(err)
	}

	subs, err := s.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(subs) != 1 || subs[0].Email != "a@example.com" {
		t.Fatalf("active = %+v, want only a@example.com", subs)
	}
}

func TestAddArticleUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.AddArticle(ctx, model.PublishedArticle{
		Title:     "Post A",
		Excerpt:   "about A",
		SourceURL: "https://example.com/a",
		PostID:    10,
		PostURL:   "https://blog.example.com/?p=10",
		Tags:      []string{"go", "testing"},
	})
	if err != nil {
		t.Fatalf("AddArticle: %v", err)
	}

	published, err := s.IsPublished(ctx, "https://example.com/a")
	if err != nil || !published {
		t.Fatalf("IsPublished = %v, %v", published, err)
	}
	published, err = s.IsPublished(ctx, "https://example.com/unknown")
	if err != nil || published {
		t.Fatalf("IsPublished unknown = %v, %v", published, err)
	}

	id2, err := s.AddArticle(ctx, model.PublishedArticle{
		Title:     "Post A",
		SourceURL: "https://example.com/a",
		PostID:    11,
		PostURL:   "https://blog.example.com/?p=11",
	})
	if err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if id2 != id1 {
		t.Errorf("re-add returned new id %d, want %d", id2, id1)
	}

	articles, err := s.RecentArticles(ctx, 7)
	if err != nil {
		t.Fatalf("RecentArticles: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1", len(articles))
	}
	a := articles[0]
	if a.PostID != 11 || a.PostURL != "https://blog.example.com/?p=11" {
		t.Errorf("upsert should refresh post reference: %+v", a)
	}
	if a.Excerpt != "about A" {
		t.Errorf("excerpt = %q", a.Excerpt)
	}
	if len(a.Tags) != 2 || a.Tags[0] != "go" {
		t.Errorf("tags = %v", a.Tags)
	}
}

func TestSocialQueue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	articleID, err := s.AddArticle(ctx, model.PublishedArticle{Title: "T", SourceURL: "https://example.com/t"})
	if err != nil {
		t.Fatal(err)
	}
	id, err := s.QueueSocialPost(ctx, articleID, "Check out our new post!")
	if err != nil {
		t.Fatalf("QueueSocialPost: %v", err)
	}

	pending, err := s.PendingSocialPosts(ctx, 10)
	if err != nil {
		t.Fatalf("PendingSocialPosts: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id || pending[0].Posted {
		t.Fatalf("pending = %+v", pending)
	}

	if err := s.MarkSocialPosted(ctx, id); err != nil {
		t.Fatalf("MarkSocialPosted: %v", err)
	}
	pending, err = s.PendingSocialPosts(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("queue should be empty after marking, got %+v", pending)
	}
}

func TestRecordSend(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.RecordSend(ctx, "Top 5 News", []int64{3, 5, 8}, 12); err != nil {
		t.Fatalf("RecordSend: %v", err)
	}
	sends, err := s.RecentSends(ctx, 10)
	if err != nil {
		t.Fatalf("RecentSends: %v", err)
	}
	if len(sends) != 1 {
		t.Fatalf("got %d sends, want 1", len(sends))
	}
	ns := sends[0]
	if ns.Subject != "Top 5 News" || ns.RecipientCount != 12 {
		t.Errorf("send = %+v", ns)
	}
	if len(ns.ArticleIDs) != 3 || ns.ArticleIDs[2] != 8 {
		t.Errorf("article ids = %v", ns.ArticleIDs)
	}
}

func TestNewTokenUniqueness(t *testing.T) {
	if NewToken() == NewToken() {
		t.Fatal("tokens must differ")
	}
	if len(NewToken()) < 40 {
		t.Fatalf("token too short: %q", NewToken())
	}
}
