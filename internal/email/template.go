package email

import (
	"bytes"
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))

type confirmationData struct {
	Name            string
	SiteName        string
	SiteURL         string
	ConfirmationURL string
	Year            int
}

type digestData struct {
	Intro          string
	PracticeTask   string
	Articles       []Article
	SiteName       string
	SiteURL        string
	UnsubscribeURL string
	Year           int
}

func renderConfirmation(d confirmationData) (string, error) {
	d.Year = time.Now().Year()
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "confirmation.html.tmpl", d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderDigest(d digestData) (string, error) {
	d.Year = time.Now().Year()
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "digest.html.tmpl", d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
