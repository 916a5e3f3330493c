package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/sms-campaigns/backend/internal/clock"
	"github.com/sms-campaigns/backend/internal/config"
	"github.com/sms-campaigns/backend/internal/db"
	"github.com/sms-campaigns/backend/internal/events"
	"github.com/sms-campaigns/backend/internal/metrics"
	"github.com/sms-campaigns/backend/internal/repositories"
	"github.com/sms-campaigns/backend/internal/scheduler"
	"github.com/sms-campaigns/backend/internal/services"
	"github.com/sms-campaigns/backend/migrations"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)
	if cfg.CompletesInProcess() {
		log.Fatal("worker needs POSTGRES_DSN and REDIS_URL; without them the API completes campaigns in-process")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := clock.RealClock{}
	m := metrics.New()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	store := repositories.NewPgStore(pool)
	sched := scheduler.NewRedis(rdb, scheduler.DefaultKey, log)

	publishers := events.MultiPublisher{events.NewRedisPublisher(rdb, log)}
	if len(cfg.KafkaBrokers) > 0 {
		kafka := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		defer kafka.Close()
		publishers = append(publishers, kafka)
	}

	var gateway services.MessagingGateway
	if cfg.MessagingGatewayURL != "" {
		gateway = services.NewGatewayClient(cfg.MessagingGatewayURL, cfg.MessagingGatewayAPIKey, cfg.HTTPClientTimeout, log)
	}

	// The worker never submits campaigns, so it needs no template checker.
	balanceService := services.NewBalanceService(store, publishers, m, log)
	campaignService := services.NewCampaignService(store, balanceService, services.AllowAllTemplates{}, gateway, sched, publishers, m, clk, cfg, log)

	runner := scheduler.NewRunner(sched, func(ctx context.Context, id uuid.UUID) error {
		_, err := campaignService.Complete(ctx, id)
		return err
	}, clk, time.Minute, m, log)

	go serveMetrics(cfg.WorkerPort, m, log)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down worker")
		cancel()
	}()

	log.Info("worker started",
		zap.Duration("poll_interval", cfg.WorkerPollInterval),
		zap.Duration("sweep_interval", cfg.SweepInterval),
	)
	runner.Loop(ctx, cfg.WorkerPollInterval, func(ctx context.Context) (int, error) {
		return campaignService.CompleteOverdue(ctx, cfg.OverdueGrace)
	}, cfg.SweepInterval)
}

func serveMetrics(port string, m *metrics.Metrics, log *zap.Logger) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	addr := fmt.Sprintf(":%s", port)
	if err := app.Listen(addr); err != nil {
		log.Error("worker metrics server stopped", zap.Error(err))
	}
}
