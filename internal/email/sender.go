package email

import (
	"context"
	"fmt"
	"log/slog"

	"contentpilot/internal/config"
	"contentpilot/internal/model"
)

// Article is one digest entry.
type Article struct {
	Title   string
	Summary string
	URL     string
	Source  string
}

// Digest is the weekly email content, rendered once per recipient so the
// unsubscribe link can carry that recipient's token.
type Digest struct {
	Subject      string
	Intro        string
	PracticeTask string
	Articles     []Article
}

// Tally reports a bulk send per-recipient: a failed address never blocks
// the rest of the list.
type Tally struct {
	Sent   int
	Failed []string
}

// Sender delivers transactional and bulk mail.
type Sender interface {
	SendConfirmation(ctx context.Context, sub model.Subscriber) error
	SendDigest(ctx context.Context, subs []model.Subscriber, d Digest) (Tally, error)
}

// message is one rendered outbound email.
type message struct {
	ToEmail string
	ToName  string
	Subject string
	HTML    string
}

// provider is a transport backend able to deliver one message.
type provider interface {
	send(ctx context.Context, m message) error
}

// Mailer implements Sender over a configured provider backend.
type Mailer struct {
	provider provider
	siteName string
	siteURL  string
}

// NewMailer selects the provider from configuration (sendgrid or gmail).
func NewMailer(cfg config.EmailConfig, siteName, siteURL string) (*Mailer, error) {
	from := from{Email: cfg.FromEmail, Name: cfg.FromName}
	var p provider
	switch cfg.Provider {
	case "gmail":
		p = newGmailProvider(cfg.Gmail, from)
	case "sendgrid":
		p = newSendGridProvider(cfg.SendGrid.APIKey, from)
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
	}
	return &Mailer{provider: p, siteName: siteName, siteURL: siteURL}, nil
}

type from struct {
	Email string
	Name  string
}

// SendConfirmation emails the double-opt-in link to one subscriber.
func (m *Mailer) SendConfirmation(ctx context.Context, sub model.Subscriber) error {
	html, err := renderConfirmation(confirmationData{
		Name:            sub.Name,
		SiteName:        m.siteName,
		SiteURL:         m.siteURL,
		ConfirmationURL: fmt.Sprintf("%s/?confirm=1&token=%s", m.siteURL, sub.ConfirmationToken),
	})
	if err != nil {
		return err
	}
	return m.provider.send(ctx, message{
		ToEmail: sub.Email,
		ToName:  sub.Name,
		Subject: fmt.Sprintf("Confirm your subscription to %s", m.siteName),
		HTML:    html,
	})
}

// SendDigest fans the digest out to the given subscribers and reports a
// per-recipient tally.
func (m *Mailer) SendDigest(ctx context.Context, subs []model.Subscriber, d Digest) (Tally, error) {
	var tally Tally
	for _, sub := range subs {
		html, err := renderDigest(digestData{
			Intro:          d.Intro,
			PracticeTask:   d.PracticeTask,
			Articles:       d.Articles,
			SiteName:       m.siteName,
			SiteURL:        m.siteURL,
			UnsubscribeURL: fmt.Sprintf("%s/?unsubscribe=1&token=%s", m.siteURL, sub.UnsubscribeToken),
		})
		if err != nil {
			// template failure affects every recipient; surface it
			return tally, err
		}
		msg := message{ToEmail: sub.Email, ToName: sub.Name, Subject: d.Subject, HTML: html}
		if err := m.provider.send(ctx, msg); err != nil {
			slog.Error("email: digest send failed", "to", sub.Email, "err", err)
			tally.Failed = append(tally.Failed, sub.Email)
			continue
		}
		tally.Sent++
	}
	return tally, nil
}
