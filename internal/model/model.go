package model

import "time"

// FeedItem is one normalized entry fetched from an RSS/Atom source.
// Its URL is the identity used for deduplication.
type FeedItem struct {
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Summary     string    `json:"summary"`
	Author      string    `json:"author,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// GeneratedPost is the AI output for one feed item.
type GeneratedPost struct {
	Title   string
	Excerpt string
	Content string // markdown body
	Tags    []string
}

// PublishedArticle tracks one post created on the CMS. At most one row
// exists per source URL.
type PublishedArticle struct {
	ID          int64
	Title       string
	Excerpt     string
	SourceURL   string
	SourceName  string
	PostID      int64
	PostURL     string
	Tags        []string
	PublishedAt time.Time
}

// SocialPost is a queued short-form post awaiting manual publication.
type SocialPost struct {
	ID        int64
	ArticleID int64
	Content   string
	Posted    bool
	CreatedAt time.Time
	PostedAt  *time.Time
}

// Subscriber is one newsletter recipient. Email is the uniqueness key;
// the two tokens are independent secrets.
type Subscriber struct {
	ID                int64
	Email             string
	Name              string
	SubscribedAt      time.Time
	Confirmed         bool
	Active            bool
	ConfirmationToken string
	UnsubscribeToken  string
}

// Eligible reports whether the subscriber should receive the digest.
func (s Subscriber) Eligible() bool {
	return s.Confirmed && s.Active
}

// NewsletterSend is an append-only audit record for one digest fan-out.
type NewsletterSend struct {
	ID             int64
	SentAt         time.Time
	Subject        string
	ArticleIDs     []int64
	RecipientCount int
}
