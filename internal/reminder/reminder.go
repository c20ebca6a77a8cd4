// Package reminder по расписанию собирает истекающие подписки и отправляет сводку.
package reminder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mmeshcher/premium-shop/internal/model"
	"github.com/mmeshcher/premium-shop/internal/notify"
)

// DefaultSchedule — ежедневно в 8 утра по времени магазина.
const DefaultSchedule = "0 8 * * *"

// Source возвращает подписки, истекающие в ближайшие дни, и дату, на которую они посчитаны.
type Source interface {
	ExpiringOrders(ctx context.Context) ([]model.Order, time.Time, error)
}

// Notifier доставляет сводку во внешнюю систему.
type Notifier interface {
	SendDigest(ctx context.Context, d notify.Digest) (int, time.Duration, error)
}

// Reminder запускает проверку истекающих подписок по cron-расписанию.
type Reminder struct {
	src      Source
	notifier Notifier
	logger   *zap.Logger
	schedule string
	loc      *time.Location
}

// New создаёт планировщик. notifier может быть nil: тогда сводка только пишется в лог.
func New(src Source, notifier Notifier, logger *zap.Logger, schedule string, loc *time.Location) (*Reminder, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("parse reminder schedule %q: %w", schedule, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reminder{
		src:      src,
		notifier: notifier,
		logger:   logger,
		schedule: schedule,
		loc:      loc,
	}, nil
}

// Run выполняет проверку по расписанию до отмены контекста.
func (r *Reminder) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(r.loc))

	if _, err := c.AddFunc(r.schedule, func() {
		if err := r.RunOnce(ctx); err != nil {
			r.logger.Error("expiry reminder failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule reminder: %w", err)
	}

	r.logger.Info("expiry reminder scheduled", zap.String("schedule", r.schedule), zap.String("tz", r.loc.String()))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// RunOnce собирает истекающие подписки и отправляет сводку.
// Ответ 429 фиксируется в логе, повторной отправки нет.
func (r *Reminder) RunOnce(ctx context.Context) error {
	orders, today, err := r.src.ExpiringOrders(ctx)
	if err != nil {
		return fmt.Errorf("fetch expiring orders: %w", err)
	}

	r.logger.Info("expiring subscriptions",
		zap.String("today", model.FormatDate(today)),
		zap.Int("count", len(orders)),
	)

	if r.notifier == nil || len(orders) == 0 {
		return nil
	}

	code, retryAfter, err := r.notifier.SendDigest(ctx, notify.NewDigest(orders, today))
	if err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	if code == http.StatusTooManyRequests {
		r.logger.Warn("notify webhook rate limited, digest dropped",
			zap.Duration("retry_after", retryAfter),
		)
	}
	return nil
}
