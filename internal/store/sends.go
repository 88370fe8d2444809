package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"contentpilot/internal/model"
)

// RecordSend appends one newsletter send to the audit log.
func (s *Store) RecordSend(ctx context.Context, subject string, articleIDs []int64, recipients int) error {
	ids := make([]string, 0, len(articleIDs))
	for _, id := range articleIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	_, err := s.sb.Insert("newsletter_sends").
		Columns("sent_at", "subject", "article_ids", "recipient_count").
		Values(time.Now().UTC(), subject, strings.Join(ids, ","), recipients).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("record send: %w", err)
	}
	return nil
}

// RecentSends returns the newest audit records, for operator inspection.
func (s *Store) RecentSends(ctx context.Context, limit int) ([]model.NewsletterSend, error) {
	q := s.sb.Select("id", "sent_at", "subject", "article_ids", "recipient_count").
		From("newsletter_sends").
		OrderBy("sent_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("recent sends: %w", err)
	}
	defer rows.Close()

	var out []model.NewsletterSend
	for rows.Next() {
		var ns model.NewsletterSend
		var ids string
		if err := rows.Scan(&ns.ID, &ns.SentAt, &ns.Subject, &ids, &ns.RecipientCount); err != nil {
			return nil, err
		}
		for _, part := range strings.Split(ids, ",") {
			if part == "" {
				continue
			}
			if id, err := strconv.ParseInt(part, 10, 64); err == nil {
				ns.ArticleIDs = append(ns.ArticleIDs, id)
			}
		}
		out = append(out, ns)
	}
	return out, rows.Err()
}
