package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/korgalidze/persona-chat/internal/analytics"
	"github.com/korgalidze/persona-chat/internal/conversation"
	"github.com/korgalidze/persona-chat/internal/notify"
)

// Scheduler runs the periodic housekeeping jobs: dropping conversations past
// their retention deadline and mailing the daily activity digest.
type Scheduler struct {
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
	store    conversation.Store
	reporter notify.TextSender
	log      *zap.Logger
	now      func() time.Time
}

func New(store conversation.Store, reporter notify.TextSender, log *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		ctx:      ctx,
		cancel:   cancel,
		store:    store,
		reporter: reporter,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start registers the jobs with a non-empty schedule and starts the cron loop.
func (s *Scheduler) Start(retentionSpec, digestSpec string) error {
	if retentionSpec != "" {
		if _, err := s.cron.AddFunc(retentionSpec, s.runJob("retention sweep", s.SweepExpired)); err != nil {
			return fmt.Errorf("schedule retention sweep %q: %w", retentionSpec, err)
		}
	}
	if digestSpec != "" {
		if s.reporter == nil {
			s.log.Warn("digest schedule set without a notifier, digest disabled")
		} else if _, err := s.cron.AddFunc(digestSpec, s.runJob("daily digest", s.SendDigest)); err != nil {
			return fmt.Errorf("schedule daily digest %q: %w", digestSpec, err)
		}
	}

	s.cron.Start()
	s.log.Info("scheduler started",
		zap.String("retention", retentionSpec),
		zap.String("digest", digestSpec),
		zap.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

func (s *Scheduler) runJob(name string, job func(ctx context.Context) error) func() {
	return func() {
		if err := job(s.ctx); err != nil {
			s.log.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
		}
	}
}

// SweepExpired deletes every conversation whose retention deadline passed.
func (s *Scheduler) SweepExpired(ctx context.Context) error {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Info("expired conversations removed", zap.Int("count", n))
	}
	return nil
}

// SendDigest reports the activity of the previous UTC day.
func (s *Scheduler) SendDigest(ctx context.Context) error {
	y := s.now().AddDate(0, 0, -1)
	day := time.Date(y.Year(), y.Month(), y.Day(), 0, 0, 0, 0, time.UTC)

	records, err := s.store.Since(ctx, day)
	if err != nil {
		return fmt.Errorf("collect conversations: %w", err)
	}
	stats := analytics.AnalyzeDay(records, day)
	if ce := s.log.Check(zap.DebugLevel, "daily digest stats"); ce != nil {
		if js, err := stats.ToJSON(); err == nil {
			ce.Write(zap.String("stats", js))
		}
	}
	if err := s.reporter.SendText(ctx, "AI Assistant: daily digest for "+stats.Date, stats.Summary()); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	s.log.Info("daily digest sent", zap.String("date", stats.Date), zap.Int("questions", stats.Questions))
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.log.Info("scheduler stopped")
}
