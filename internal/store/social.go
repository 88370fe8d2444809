package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"contentpilot/internal/model"
)

// QueueSocialPost appends a generated social snippet to the manual-posting
// queue.
func (s *Store) QueueSocialPost(ctx context.Context, articleID int64, content string) (int64, error) {
	var id int64
	err := s.sb.Insert("social_queue").
		Columns("article_id", "content", "created_at", "posted").
		Values(articleID, content, time.Now().UTC(), false).
		Suffix("RETURNING id").
		QueryRowContext(ctx).
		Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("queue social post: %w", err)
	}
	return id, nil
}

// PendingSocialPosts returns unposted queue entries, newest first.
func (s *Store) PendingSocialPosts(ctx context.Context, limit int) ([]model.SocialPost, error) {
	q := s.sb.Select("id", "article_id", "content", "created_at", "posted", "posted_at").
		From("social_queue").
		Where(sq.Eq{"posted": false}).
		OrderBy("created_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("pending social posts: %w", err)
	}
	defer rows.Close()

	var out []model.SocialPost
	for rows.Next() {
		var p model.SocialPost
		var articleID sql.NullInt64
		var postedAt sql.NullTime
		if err := rows.Scan(&p.ID, &articleID, &p.Content, &p.CreatedAt, &p.Posted, &postedAt); err != nil {
			return nil, err
		}
		p.ArticleID = articleID.Int64
		if postedAt.Valid {
			t := postedAt.Time
			p.PostedAt = &t
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSocialPosted flips the posted flag after a manual publication.
func (s *Store) MarkSocialPosted(ctx context.Context, id int64) error {
	_, err := s.sb.Update("social_queue").
		Set("posted", true).
		Set("posted_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("mark social posted: %w", err)
	}
	return nil
}
