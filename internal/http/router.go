package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/sms-campaigns/backend/internal/config"
	"github.com/sms-campaigns/backend/internal/http/handlers"
	"github.com/sms-campaigns/backend/internal/metrics"
	"github.com/sms-campaigns/backend/internal/middleware"
	"github.com/sms-campaigns/backend/internal/rbac"
	"go.uber.org/zap"
)

type Handlers struct {
	Account  *handlers.AccountHandler
	Campaign *handlers.CampaignHandler
	Webhook  *handlers.WebhookHandler
	WSHub    *handlers.WSHub
}

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	m *metrics.Metrics,
	accounts middleware.AccountOpener,
	h Handlers,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}

	// Payment gateway, authenticated by signature rather than a token
	app.Post("/webhooks/payments", h.Webhook.PaymentWebhook)

	api := app.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute))

	protected := api.Group("", middleware.AuthMiddleware(cfg, accounts, log))

	// Account
	protected.Get("/me", h.Account.GetMe)
	protected.Get("/me/balance", middleware.RequirePermission(rbac.PermViewBalance), h.Account.GetBalance)
	protected.Get("/me/transactions", middleware.RequirePermission(rbac.PermViewBalance), h.Account.GetHistory)

	// Campaigns
	campaigns := protected.Group("/campaigns", middleware.RequirePermission(rbac.PermManageCampaign))
	campaigns.Post("", h.Campaign.CreateCampaign)
	campaigns.Get("", h.Campaign.ListCampaigns)
	campaigns.Get("/:id", h.Campaign.GetCampaign)
	campaigns.Put("/:id", h.Campaign.UpdateCampaign)
	campaigns.Delete("/:id", h.Campaign.DeleteCampaign)
	campaigns.Post("/:id/submit", h.Campaign.SubmitCampaign)
	campaigns.Post("/:id/resubmit", h.Campaign.ResubmitCampaign)
	campaigns.Post("/:id/prepare", h.Campaign.PrepareCampaign)
	campaigns.Post("/:id/start", h.Campaign.StartCampaign)
	campaigns.Post("/:id/stop", h.Campaign.StopCampaign)
	campaigns.Post("/:id/cancel", h.Campaign.CancelCampaign)
	campaigns.Get("/:id/report", h.Campaign.GetReport)
	campaigns.Get("/:id/events", h.Campaign.GetEvents)

	// Review
	review := protected.Group("/review", middleware.RequirePermission(rbac.PermReviewCampaign))
	review.Get("/campaigns", h.Campaign.ReviewQueue)
	review.Post("/campaigns/:id/approve", h.Campaign.ApproveCampaign)
	review.Post("/campaigns/:id/reject", h.Campaign.RejectCampaign)

	// Admin
	admin := protected.Group("/admin", middleware.RequirePermission(rbac.PermCompleteManual))
	admin.Post("/campaigns/:id/complete", h.Campaign.CompleteCampaign)

	// WebSocket
	if h.WSHub != nil {
		app.Use("/ws", handlers.WSUpgradeMiddleware())
		app.Get("/ws", websocket.New(h.WSHub.HandleWS))
	}
}
