// Package main запускает HTTP-сервер магазина подписок.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mmeshcher/premium-shop/internal/cart"
	"github.com/mmeshcher/premium-shop/internal/catalog"
	"github.com/mmeshcher/premium-shop/internal/config"
	"github.com/mmeshcher/premium-shop/internal/handler"
	"github.com/mmeshcher/premium-shop/internal/middleware"
	"github.com/mmeshcher/premium-shop/internal/notify"
	"github.com/mmeshcher/premium-shop/internal/reminder"
	"github.com/mmeshcher/premium-shop/internal/repository"
	"github.com/mmeshcher/premium-shop/internal/service"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewProduction()
	if cfg.Development() {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	var repo service.Repository
	if cfg.DatabaseURI == "" {
		sugar.Warn("DATABASE_URI is empty, orders are kept in memory")
		repo = repository.NewMemoryRepository()
	} else {
		pg, err := repository.NewPostgresRepository(cfg.DatabaseURI)
		if err != nil {
			sugar.Fatalw("database initialization error", "error", err.Error())
		}
		repo = pg
	}

	cat, err := catalog.Load()
	if err != nil {
		sugar.Fatalw("catalog initialization error", "error", err.Error())
	}

	svc := service.NewService(repo, service.WithLocation(cfg.Location()))
	defer svc.Close()

	if cfg.AuthSecret == "" {
		sugar.Warn("AUTH_SECRET is empty, admin sessions will not survive a restart")
	}
	if cfg.AdminPassword == "" {
		sugar.Warn("ADMIN_PASSWORD_HASH is empty, admin login is disabled")
	}
	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret, cfg.AdminPassword)

	carts := cart.NewStore(cfg.CartTTL)
	loginLimiter := middleware.NewRateLimiter(rate.Every(time.Second), 5)

	h := handler.NewHandler(svc, cat, carts, logger, authMiddleware,
		handler.WithMetrics(middleware.NewMetrics()),
		handler.WithLoginLimiter(loginLimiter),
		handler.WithSupportContact(cfg.SupportZalo),
	)

	var notifier reminder.Notifier
	if cfg.NotifyWebhookURL != "" {
		notifier = notify.NewClient(cfg.NotifyWebhookURL)
	}

	rem, err := reminder.New(svc, notifier, logger, cfg.ReminderSchedule, cfg.Location())
	if err != nil {
		sugar.Fatalw("reminder initialization error", "error", err.Error())
	}

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Напоминания об истекающих подписках
	g.Go(func() error {
		return rem.Run(ctx)
	})

	// Очистка брошенных корзин и счётчиков лимита
	g.Go(func() error {
		carts.Run(ctx, time.Minute)
		return nil
	})
	g.Go(func() error {
		loginLimiter.Run(ctx)
		return nil
	})

	g.Go(func() error {
		sugar.Infow("starting shop server", "addr", cfg.RunAddress, "tz", cfg.Location().String())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
