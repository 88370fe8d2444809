package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"contentpilot/internal/model"
)

// ErrInvalidEmail reports a syntactically invalid subscription address.
var ErrInvalidEmail = errors.New("invalid email address")

// SubscribeResult reports the outcome of a subscribe call.
type SubscribeResult struct {
	Subscriber model.Subscriber
	Created    bool // false when an existing row was reactivated
}

// Message is the user-facing status line.
func (r SubscribeResult) Message() string {
	if r.Created {
		return "Thanks for subscribing! Please check your inbox to confirm your email."
	}
	return "Your subscription has been updated. Welcome back!"
}

// Subscribe inserts a new subscriber with fresh tokens, or reactivates an
// existing one (updating the name and setting active). Idempotent on email.
func (s *Store) Subscribe(ctx context.Context, email, name string) (SubscribeResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return SubscribeResult{}, ErrInvalidEmail
	}
	name = strings.TrimSpace(name)

	existing, err := s.GetSubscriberByEmail(ctx, email)
	if err != nil {
		return SubscribeResult{}, err
	}
	if existing != nil {
		_, err := s.sb.Update("subscribers").
			Set("name", name).
			Set("active", true).
			Where(sq.Eq{"email": email}).
			ExecContext(ctx)
		if err != nil {
			return SubscribeResult{}, fmt.Errorf("reactivate subscriber: %w", err)
		}
		existing.Name = name
		existing.Active = true
		return SubscribeResult{Subscriber: *existing, Created: false}, nil
	}

	sub := model.Subscriber{
		Email:             email,
		Name:              name,
		SubscribedAt:      time.Now().UTC(),
		Confirmed:         false,
		Active:            true,
		ConfirmationToken: NewToken(),
		UnsubscribeToken:  NewToken(),
	}
	err = s.sb.Insert("subscribers").
		Columns("email", "name", "subscribed_at", "confirmed", "active", "confirmation_token", "unsubscribe_token").
		Values(sub.Email, sub.Name, sub.SubscribedAt, sub.Confirmed, sub.Active, sub.ConfirmationToken, sub.UnsubscribeToken).
		Suffix("RETURNING id").
		QueryRowContext(ctx).
		Scan(&sub.ID)
	if err != nil {
		return SubscribeResult{}, fmt.Errorf("insert subscriber: %w", err)
	}
	return SubscribeResult{Subscriber: sub, Created: true}, nil
}

// Confirm flips confirmed for the subscriber holding the token. Returns
// false for an unknown token; repeating with a valid token stays true.
func (s *Store) Confirm(ctx context.Context, token string) (bool, error) {
	res, err := s.sb.Update("subscribers").
		Set("confirmed", true).
		Where(sq.Eq{"confirmation_token": token}).
		ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("confirm subscriber: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Unsubscribe deactivates the subscriber holding the token. Idempotent.
func (s *Store) Unsubscribe(ctx context.Context, token string) (bool, error) {
	res, err := s.sb.Update("subscribers").
		Set("active", false).
		Where(sq.Eq{"unsubscribe_token": token}).
		ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("unsubscribe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListActive returns every confirmed, active subscriber.
func (s *Store) ListActive(ctx context.Context) ([]model.Subscriber, error) {
	rows, err := s.selectSubscribers().
		Where(sq.Eq{"confirmed": true, "active": true}).
		OrderBy("subscribed_at").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active subscribers: %w", err)
	}
	defer rows.Close()
	return scanSubscribers(rows)
}

// GetSubscriberByEmail returns the subscriber or nil when absent.
func (s *Store) GetSubscriberByEmail(ctx context.Context, email string) (*model.Subscriber, error) {
	row := s.selectSubscribers().
		Where(sq.Eq{"email": strings.ToLower(strings.TrimSpace(email))}).
		QueryRowContext(ctx)
	sub, err := scanSubscriber(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscriber: %w", err)
	}
	return &sub, nil
}

func (s *Store) selectSubscribers() sq.SelectBuilder {
	return s.sb.Select(
		"id", "email", "name", "subscribed_at",
		"confirmed", "active", "confirmation_token", "unsubscribe_token",
	).From("subscribers")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscriber(r rowScanner) (model.Subscriber, error) {
	var sub model.Subscriber
	var name sql.NullString
	err := r.Scan(&sub.ID, &sub.Email, &name, &sub.SubscribedAt,
		&sub.Confirmed, &sub.Active, &sub.ConfirmationToken, &sub.UnsubscribeToken)
	sub.Name = name.String
	return sub, err
}

func scanSubscribers(rows *sql.Rows) ([]model.Subscriber, error) {
	var out []model.Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}
