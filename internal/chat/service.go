// Package chat runs one visitor question through history, completion,
// persistence and notification.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/korgalidze/persona-chat/internal/conversation"
	"github.com/korgalidze/persona-chat/internal/llm"
	"github.com/korgalidze/persona-chat/internal/notify"
)

var ErrEmptyQuestion = errors.New("question must not be empty")

// Visitor identifies who is asking.
type Visitor struct {
	SessionID string
	IP        string
	UserAgent string
}

type Options struct {
	// MaxHistoryMessages bounds the history sent to the model; 0 sends all.
	MaxHistoryMessages int
	// RecordLink builds the deep link embedded in notifications.
	RecordLink func(sessionID string) string
}

type Service struct {
	store    conversation.Store
	llm      llm.Client
	notifier notify.Notifier
	prompt   string
	opts     Options
	log      *zap.Logger
	now      func() time.Time
}

func NewService(store conversation.Store, client llm.Client, notifier notify.Notifier, prompt string, opts Options, log *zap.Logger) *Service {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if opts.RecordLink == nil {
		opts.RecordLink = func(id string) string { return id }
	}
	return &Service{
		store:    store,
		llm:      client,
		notifier: notifier,
		prompt:   prompt,
		opts:     opts,
		log:      log,
		now:      func() time.Time { return time.Now().UTC().Truncate(conversation.Precision) },
	}
}

// Ask answers question in the context of the visitor's conversation. Only a
// completion failure is returned to the caller; store and notifier failures
// are logged and the visitor still gets an answer.
func (s *Service) Ask(ctx context.Context, v Visitor, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}
	log := s.log.With(zap.String("session_id", v.SessionID))

	rec, err := conversation.LoadOrNew(ctx, s.store, v.SessionID)
	if err != nil {
		log.Warn("history unavailable, continuing without it", zap.Error(err))
	}

	rec.Messages = append(rec.Messages, conversation.Message{
		Role:      llm.RoleUser,
		Content:   question,
		Timestamp: s.now(),
	})

	history := llm.Window(conversation.ToLLM(rec.Messages), s.opts.MaxHistoryMessages)
	resp, err := s.llm.Generate(ctx, llm.WithSystem(s.prompt, history))
	if err != nil {
		log.Error("completion failed", zap.Error(err), zap.Int("history", len(history)))
		return "", err
	}
	log.Info("completion",
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", resp.PromptTokens),
		zap.Int("completion_tokens", resp.CompletionTokens),
		zap.Int("total_tokens", resp.TotalTokens),
	)

	rec.Messages = append(rec.Messages, conversation.Message{
		Role:      llm.RoleAssistant,
		Content:   resp.Content,
		Timestamp: s.now(),
	})
	rec.VisitorIP = v.IP
	rec.UserAgent = v.UserAgent

	if err := s.store.Save(ctx, rec); err != nil {
		log.Error("failed to persist conversation", zap.Error(err))
	}

	if notify.ShouldNotify(len(rec.Messages)) {
		n := notify.Notification{
			SessionID:  v.SessionID,
			VisitorIP:  v.IP,
			UserAgent:  v.UserAgent,
			Messages:   rec.Messages,
			RecordLink: s.opts.RecordLink(v.SessionID),
			SentAt:     s.now(),
		}
		if err := s.notifier.Notify(ctx, n); err != nil {
			log.Warn("failed to send notification", zap.Error(err))
		}
	}

	return resp.Content, nil
}

// Recent lists the latest conversations, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]conversation.Record, error) {
	return s.store.Recent(ctx, limit)
}
