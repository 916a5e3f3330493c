package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sms-campaigns/backend/internal/clock"
	"github.com/sms-campaigns/backend/internal/config"
	"github.com/sms-campaigns/backend/internal/db"
	"github.com/sms-campaigns/backend/internal/events"
	apphttp "github.com/sms-campaigns/backend/internal/http"
	"github.com/sms-campaigns/backend/internal/http/handlers"
	"github.com/sms-campaigns/backend/internal/metrics"
	"github.com/sms-campaigns/backend/internal/repositories"
	"github.com/sms-campaigns/backend/internal/repositories/memstore"
	"github.com/sms-campaigns/backend/internal/scheduler"
	"github.com/sms-campaigns/backend/internal/services"
	"github.com/sms-campaigns/backend/internal/webhook"
	"github.com/sms-campaigns/backend/migrations"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := clock.RealClock{}
	m := metrics.New()

	// Storage
	var store repositories.Store
	if cfg.PostgresDSN != "" {
		pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
		if err != nil {
			log.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()

		if err := db.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
		store = repositories.NewPgStore(pool)
	} else {
		store = memstore.New()
	}

	// Redis backs dedup, scheduling, rate limits and fan-out when configured
	var (
		rdb        *redis.Client
		seen       webhook.SeenSet
		sched      scheduler.Scheduler
		publishers []events.Publisher
		subscriber events.Subscriber
	)
	if cfg.RedisURL != "" {
		var err error
		rdb, err = db.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()

		seen = webhook.NewRedisSeen(rdb, cfg.WebhookSeenTTL)
		sched = scheduler.NewRedis(rdb, scheduler.DefaultKey, log)
		if cfg.PostgresDSN == "" {
			// Memstore campaigns die with the process, so their jobs stay here too.
			sched = scheduler.NewMemory()
		}
		publishers = append(publishers, events.NewRedisPublisher(rdb, log))
		subscriber = events.NewRedisSubscriber(rdb, log)
	} else {
		bus := events.NewMemoryBus()
		seen = webhook.NewMemorySeen(cfg.WebhookSeenTTL, clk)
		sched = scheduler.NewMemory()
		publishers = append(publishers, bus)
		subscriber = bus
	}
	if len(cfg.KafkaBrokers) > 0 {
		kafka := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		defer kafka.Close()
		publishers = append(publishers, kafka)
	}
	publisher := events.MultiPublisher(publishers)

	// External services
	templates := services.NewTemplateChecker(cfg.TemplateServiceURL, cfg.RequiresTemplateService(), cfg.HTTPClientTimeout, log)
	var gateway services.MessagingGateway
	if cfg.MessagingGatewayURL != "" {
		gateway = services.NewGatewayClient(cfg.MessagingGatewayURL, cfg.MessagingGatewayAPIKey, cfg.HTTPClientTimeout, log)
	}

	// Services
	balanceService := services.NewBalanceService(store, publisher, m, log)
	campaignService := services.NewCampaignService(store, balanceService, templates, gateway, sched, publisher, m, clk, cfg, log)
	intake := webhook.NewIntake(webhook.NewVerifier(cfg.PaymentWebhookSecret, cfg.WebhookTolerance, clk), seen, balanceService, publisher, m, log)

	// No worker can serve this store or schedule, so completion runs here.
	if cfg.CompletesInProcess() {
		runner := scheduler.NewRunner(sched, func(ctx context.Context, id uuid.UUID) error {
			_, err := campaignService.Complete(ctx, id)
			return err
		}, clk, time.Minute, m, log)
		sweep := func(ctx context.Context) (int, error) {
			return campaignService.CompleteOverdue(ctx, cfg.OverdueGrace)
		}
		log.Info("running campaign completion in-process")
		go runner.Loop(ctx, cfg.WorkerPollInterval, sweep, cfg.SweepInterval)
	}

	// Handlers
	wsHub := handlers.NewWSHub(cfg, subscriber, log)
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 1 << 20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, m, balanceService, apphttp.Handlers{
		Account:  handlers.NewAccountHandler(balanceService, log),
		Campaign: handlers.NewCampaignHandler(campaignService, log),
		Webhook:  handlers.NewWebhookHandler(intake, log),
		WSHub:    wsHub,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
