package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const sendGridURL = "https://api.sendgrid.com/v3/mail/send"

// sendGridProvider delivers mail through the SendGrid v3 API.
type sendGridProvider struct {
	apiKey string
	from   from
	http   *http.Client
	url    string
}

func newSendGridProvider(apiKey string, f from) *sendGridProvider {
	return &sendGridProvider{
		apiKey: apiKey,
		from:   f,
		http:   &http.Client{Timeout: 30 * time.Second},
		url:    sendGridURL,
	}
}

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgRequest struct {
	Personalizations []struct {
		To []sgAddress `json:"to"`
	} `json:"personalizations"`
	From    sgAddress `json:"from"`
	Subject string    `json:"subject"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

func (p *sendGridProvider) send(ctx context.Context, m message) error {
	var req sgRequest
	req.Personalizations = []struct {
		To []sgAddress `json:"to"`
	}{{To: []sgAddress{{Email: m.ToEmail, Name: m.ToName}}}}
	req.From = sgAddress{Email: p.from.Email, Name: p.from.Name}
	req.Subject = m.Subject
	req.Content = []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{{Type: "text/html", Value: m.HTML}}

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sendgrid: send failed: status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}
