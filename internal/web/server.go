package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"contentpilot/internal/email"
	"contentpilot/internal/model"
	"contentpilot/internal/store"
)

//go:embed templates/*.html
var templatesFS embed.FS

// SubscriberStore is the slice of the store the web server needs.
type SubscriberStore interface {
	Subscribe(ctx context.Context, email, name string) (store.SubscribeResult, error)
	Confirm(ctx context.Context, token string) (bool, error)
	Unsubscribe(ctx context.Context, token string) (bool, error)
	Ping(ctx context.Context) error
}

// Server hosts the public subscription surface: a signup form, the
// confirmation link and the unsubscribe link.
type Server struct {
	store     SubscriberStore
	sender    email.Sender
	siteName  string
	templates *template.Template
}

func NewServer(st SubscriberStore, sender email.Sender, siteName string) (*Server, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Server{
		store:     st,
		sender:    sender,
		siteName:  siteName,
		templates: tmpl,
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/subscribe", s.handleSubscribe)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

type pageData struct {
	SiteName string
	Message  string
	IsError  bool
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	data.SiteName = s.siteName
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.Error("render template failed", "error", err)
	}
}

// handleIndex serves the signup form and processes the two token links.
// Both links are idempotent: clicking them again yields the same page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	switch {
	case q.Get("confirm") == "1":
		s.handleConfirm(w, r, q.Get("token"))
	case q.Get("unsubscribe") == "1":
		s.handleUnsubscribe(w, r, q.Get("token"))
	default:
		s.render(w, http.StatusOK, pageData{})
	}
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request, token string) {
	ok, err := s.store.Confirm(r.Context(), token)
	if err != nil {
		slog.Error("confirm failed", "error", err)
		s.render(w, http.StatusInternalServerError, pageData{Message: "Something went wrong. Please try again later.", IsError: true})
		return
	}
	if !ok {
		s.render(w, http.StatusNotFound, pageData{Message: "This confirmation link is not valid.", IsError: true})
		return
	}
	slog.Info("subscription confirmed")
	s.render(w, http.StatusOK, pageData{Message: "Your subscription is confirmed. Welcome aboard!"})
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request, token string) {
	ok, err := s.store.Unsubscribe(r.Context(), token)
	if err != nil {
		slog.Error("unsubscribe failed", "error", err)
		s.render(w, http.StatusInternalServerError, pageData{Message: "Something went wrong. Please try again later.", IsError: true})
		return
	}
	if !ok {
		s.render(w, http.StatusNotFound, pageData{Message: "This unsubscribe link is not valid.", IsError: true})
		return
	}
	slog.Info("subscriber unsubscribed")
	s.render(w, http.StatusOK, pageData{Message: "You have been unsubscribed. Sorry to see you go."})
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, pageData{Message: "Could not read the form.", IsError: true})
		return
	}
	addr := strings.TrimSpace(r.PostFormValue("email"))
	name := strings.TrimSpace(r.PostFormValue("name"))
	if addr == "" {
		s.render(w, http.StatusBadRequest, pageData{Message: "Please enter your email address.", IsError: true})
		return
	}

	res, err := s.store.Subscribe(r.Context(), addr, name)
	if err != nil {
		if errors.Is(err, store.ErrInvalidEmail) {
			s.render(w, http.StatusBadRequest, pageData{Message: "That email address does not look valid.", IsError: true})
			return
		}
		slog.Error("subscribe failed", "error", err)
		s.render(w, http.StatusInternalServerError, pageData{Message: "Something went wrong. Please try again later.", IsError: true})
		return
	}

	// The confirmation mail is best effort: the row exists either way and
	// the operator can resend.
	if s.sender != nil && !res.Subscriber.Confirmed {
		if err := s.sendConfirmation(r.Context(), res.Subscriber); err != nil {
			slog.Error("send confirmation failed", "email", res.Subscriber.Email, "error", err)
		}
	}

	slog.Info("subscription request", "email", res.Subscriber.Email, "created", res.Created)
	s.render(w, http.StatusOK, pageData{Message: res.Message()})
}

func (s *Server) sendConfirmation(ctx context.Context, sub model.Subscriber) error {
	return s.sender.SendConfirmation(ctx, sub)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		http.Error(w, "db unreachable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "ok")
}
