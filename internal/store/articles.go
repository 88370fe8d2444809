package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"contentpilot/internal/model"
)

// AddArticle records a published article. Source URL is the uniqueness key;
// re-adding the same URL updates the post reference instead of duplicating.
func (s *Store) AddArticle(ctx context.Context, a model.PublishedArticle) (int64, error) {
	if a.PublishedAt.IsZero() {
		a.PublishedAt = time.Now().UTC()
	}
	var id int64
	err := s.sb.Insert("published_articles").
		Columns("title", "excerpt", "source_url", "source_name", "post_id", "post_url", "tags", "published_at").
		Values(a.Title, a.Excerpt, a.SourceURL, a.SourceName, a.PostID, a.PostURL, strings.Join(a.Tags, ","), a.PublishedAt).
		Suffix(`ON CONFLICT (source_url) DO UPDATE SET post_id = EXCLUDED.post_id, post_url = EXCLUDED.post_url RETURNING id`).
		QueryRowContext(ctx).
		Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("add article: %w", err)
	}
	return id, nil
}

// IsPublished reports whether a source URL already produced a post.
func (s *Store) IsPublished(ctx context.Context, sourceURL string) (bool, error) {
	var one int
	err := s.sb.Select("1").
		From("published_articles").
		Where(sq.Eq{"source_url": sourceURL}).
		QueryRowContext(ctx).
		Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check published: %w", err)
	}
	return true, nil
}

// RecentArticles returns articles published within the trailing number of
// days, newest first.
func (s *Store) RecentArticles(ctx context.Context, days int) ([]model.PublishedArticle, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := s.sb.Select("id", "title", "excerpt", "source_url", "source_name", "post_id", "post_url", "tags", "published_at").
		From("published_articles").
		Where(sq.Gt{"published_at": since}).
		OrderBy("published_at DESC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("recent articles: %w", err)
	}
	defer rows.Close()

	var out []model.PublishedArticle
	for rows.Next() {
		var a model.PublishedArticle
		var excerpt, sourceName, postURL, tags sql.NullString
		var postID sql.NullInt64
		if err := rows.Scan(&a.ID, &a.Title, &excerpt, &a.SourceURL, &sourceName, &postID, &postURL, &tags, &a.PublishedAt); err != nil {
			return nil, err
		}
		a.Excerpt = excerpt.String
		a.SourceName = sourceName.String
		a.PostID = postID.Int64
		a.PostURL = postURL.String
		if tags.String != "" {
			a.Tags = strings.Split(tags.String, ",")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
