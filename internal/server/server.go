package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/korgalidze/persona-chat/internal/chat"
	"github.com/korgalidze/persona-chat/internal/conversation"
	"github.com/korgalidze/persona-chat/internal/session"
)

//go:embed web/templates/*.html web/static/*
var webFS embed.FS

// Assistant is the part of the chat pipeline the HTTP surface needs.
type Assistant interface {
	Ask(ctx context.Context, v chat.Visitor, question string) (string, error)
	Recent(ctx context.Context, limit int) ([]conversation.Record, error)
}

type Options struct {
	Addr                string
	RepoURL             string
	AssistantName       string
	ExposeConversations bool
}

// Server is the public HTTP face of the assistant.
type Server struct {
	assistant Assistant
	sessions  *session.Manager
	opts      Options
	log       *zap.Logger
	page      *template.Template
	server    *http.Server
}

func New(assistant Assistant, sessions *session.Manager, opts Options, log *zap.Logger) (*Server, error) {
	page, err := template.ParseFS(webFS, "web/templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &Server{
		assistant: assistant,
		sessions:  sessions,
		opts:      opts,
		log:       log,
		page:      page,
	}, nil
}

// Handler builds the router. It is exposed separately from Start for tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	static, _ := fs.Sub(webFS, "web/static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/", s.handleIndex)
	r.Post("/ask", s.handleAsk)
	r.Get("/health", s.handleHealth)
	if s.opts.ExposeConversations {
		r.Get("/conversations", s.handleConversations)
	}
	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.log.Info("starting http server", zap.String("addr", s.opts.Addr))
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("took", time.Since(start)),
		)
	})
}
