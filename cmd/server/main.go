package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/korgalidze/persona-chat/internal/chat"
	"github.com/korgalidze/persona-chat/internal/config"
	"github.com/korgalidze/persona-chat/internal/conversation"
	"github.com/korgalidze/persona-chat/internal/llm"
	"github.com/korgalidze/persona-chat/internal/logging"
	"github.com/korgalidze/persona-chat/internal/notify"
	"github.com/korgalidze/persona-chat/internal/persona"
	"github.com/korgalidze/persona-chat/internal/scheduler"
	"github.com/korgalidze/persona-chat/internal/server"
	"github.com/korgalidze/persona-chat/internal/session"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	docs, err := persona.LoadDocuments(cfg.PersonaDocuments)
	if err != nil {
		return err
	}
	prompt := persona.BuildPrompt(cfg.AssistantName, docs)
	logger.Info("persona prompt assembled", zap.Int("documents", len(docs)), zap.Int("chars", len(prompt)))

	store, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	}()

	llmClient, err := llm.NewFactory(cfg).CreateClient(cfg.LLMProvider)
	if err != nil {
		return fmt.Errorf("failed to create llm client: %w", err)
	}

	notifier, reporter, err := newNotifier(ctx, cfg)
	if err != nil {
		return err
	}

	svc := chat.NewService(store, llmClient, notifier, prompt, chat.Options{
		MaxHistoryMessages: cfg.MaxHistoryMessages,
		RecordLink: func(id string) string {
			return notify.RecordLink(cfg.RecordLinkTemplate, cfg.Region, cfg.ConversationsTable, id)
		},
	}, logger)

	sched := scheduler.New(store, reporter, logger)
	if err := sched.Start(cfg.RetentionSchedule, cfg.DigestSchedule); err != nil {
		return err
	}
	defer sched.Stop()

	srv, err := server.New(svc, session.NewManager(cfg.SessionMaxAge, cfg.CookieSecure), server.Options{
		Addr:                cfg.HTTPAddr,
		RepoURL:             cfg.RepoURL,
		AssistantName:       cfg.AssistantName,
		ExposeConversations: cfg.ExposeConversations,
	}, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

func newStore(ctx context.Context, cfg *config.Config) (conversation.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return conversation.NewMongoStore(connectCtx, cfg.MongoURI, cfg.MongoDatabase, cfg.ConversationsTable, cfg.ConversationRetention)
	case config.StoreMemory:
		return conversation.NewMemoryStore(cfg.ConversationRetention), nil
	default:
		return conversation.NewBoltStore(cfg.BoltPath, cfg.ConversationsTable, cfg.ConversationRetention)
	}
}

// newNotifier returns the per-conversation notifier and the digest sender,
// which are the same backend. With notifications off the digest is disabled.
func newNotifier(ctx context.Context, cfg *config.Config) (notify.Notifier, notify.TextSender, error) {
	switch cfg.NotifyDriver {
	case config.NotifyGmail:
		g, err := notify.NewGmailNotifier(ctx, cfg.GmailClientID, cfg.GmailClientSecret, cfg.GmailRefreshToken, cfg.NotifySender, cfg.NotifyRecipient)
		if err != nil {
			return nil, nil, err
		}
		return g, g, nil
	case config.NotifyTelegram:
		t, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			return nil, nil, err
		}
		return t, t, nil
	default:
		return notify.Noop{}, nil, nil
	}
}
