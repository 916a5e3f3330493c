package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const defaultJWTSecret = "change-me-in-production"

type Config struct {
	// Storage. An empty PostgresDSN selects the in-memory store and an empty
	// RedisURL selects in-process dedup, scheduling and events.
	PostgresDSN string
	RedisURL    string

	// Auth
	JWTSecret       string
	JWTExpiration   time.Duration
	AdminAccountIDs []uuid.UUID

	// Payment webhook
	PaymentWebhookSecret string
	WebhookTolerance     time.Duration
	WebhookSeenTTL       time.Duration

	// External services
	MessagingGatewayURL    string
	MessagingGatewayAPIKey string
	TemplateServiceURL     string
	HTTPClientTimeout      time.Duration

	// Pricing, minor currency units per message
	CostSMS int64
	CostMMS int64
	CostRCS int64

	// Campaign lifecycle
	CompletionDelay    time.Duration
	WorkerPollInterval time.Duration
	OverdueGrace       time.Duration
	SweepInterval      time.Duration

	// Events
	KafkaBrokers []string
	KafkaTopic   string

	// Server
	APIPort            string
	WorkerPort         string
	RateLimitPerMinute int
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		PostgresDSN: getEnv("POSTGRES_DSN", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		JWTSecret:       getEnv("JWT_SECRET", defaultJWTSecret),
		JWTExpiration:   time.Duration(getEnvInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,
		AdminAccountIDs: parseIDList(getEnv("ADMIN_ACCOUNT_IDS", "")),

		PaymentWebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		WebhookTolerance:     time.Duration(getEnvInt("WEBHOOK_TOLERANCE_SECONDS", 300)) * time.Second,
		WebhookSeenTTL:       time.Duration(getEnvInt("WEBHOOK_SEEN_TTL_SECONDS", 86400)) * time.Second,

		MessagingGatewayURL:    getEnv("MESSAGING_GATEWAY_URL", ""),
		MessagingGatewayAPIKey: getEnv("MESSAGING_GATEWAY_API_KEY", ""),
		TemplateServiceURL:     getEnv("TEMPLATE_SERVICE_URL", ""),
		HTTPClientTimeout:      time.Duration(getEnvInt("HTTP_CLIENT_TIMEOUT_SECONDS", 15)) * time.Second,

		CostSMS: int64(getEnvInt("COST_SMS", 20)),
		CostMMS: int64(getEnvInt("COST_MMS", 50)),
		CostRCS: int64(getEnvInt("COST_RCS", 30)),

		CompletionDelay:    time.Duration(getEnvInt("CAMPAIGN_COMPLETION_DELAY_SECONDS", 300)) * time.Second,
		WorkerPollInterval: time.Duration(getEnvInt("WORKER_POLL_SECONDS", 5)) * time.Second,
		OverdueGrace:       time.Duration(getEnvInt("CAMPAIGN_OVERDUE_GRACE_SECONDS", 600)) * time.Second,
		SweepInterval:      time.Duration(getEnvInt("CAMPAIGN_SWEEP_SECONDS", 300)) * time.Second,

		KafkaBrokers: parseList(getEnv("EVENTS_KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("EVENTS_KAFKA_TOPIC", "sms-campaign-events"),

		APIPort:            getEnv("API_PORT", "3000"),
		WorkerPort:         getEnv("WORKER_PORT", "3001"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 100),
	}
}

// CostPerMessage returns the configured price for a message type, or false
// for an unknown type.
func (c *Config) CostPerMessage(messageType string) (int64, bool) {
	switch messageType {
	case "sms":
		return c.CostSMS, true
	case "mms":
		return c.CostMMS, true
	case "rcs":
		return c.CostRCS, true
	}
	return 0, false
}

// CompletesInProcess reports whether the API must run campaign completion
// itself. The worker needs both Postgres and Redis to see the same campaigns
// and schedule as the API.
func (c *Config) CompletesInProcess() bool {
	return c.PostgresDSN == "" || c.RedisURL == ""
}

// RequiresTemplateService reports whether submitting without a template
// service must fail. Only memstore runs may skip the template check.
func (c *Config) RequiresTemplateService() bool {
	return c.PostgresDSN != ""
}

func (c *Config) IsAdmin(accountID uuid.UUID) bool {
	for _, id := range c.AdminAccountIDs {
		if id == accountID {
			return true
		}
	}
	return false
}

func (c *Config) Validate(log *zap.Logger) {
	if c.JWTSecret == defaultJWTSecret {
		log.Warn("JWT_SECRET is default, change in production")
	}
	if c.PaymentWebhookSecret == "" {
		log.Warn("PAYMENT_WEBHOOK_SECRET is not set, payment webhooks will be rejected")
	}
	if c.PostgresDSN == "" {
		log.Warn("POSTGRES_DSN is not set, using the in-memory store")
	}
	if c.RedisURL == "" {
		log.Warn("REDIS_URL is not set, webhook dedup and completion scheduling are process-local")
	}
	if c.TemplateServiceURL == "" {
		if c.RequiresTemplateService() {
			log.Warn("TEMPLATE_SERVICE_URL is not set, campaign submission will be refused")
		} else {
			log.Warn("TEMPLATE_SERVICE_URL is not set, every template is treated as approved")
		}
	}
	if c.WorkerPollInterval <= 0 {
		log.Warn("WORKER_POLL_SECONDS must be positive, using 5")
		c.WorkerPollInterval = 5 * time.Second
	}
	if c.SweepInterval <= 0 {
		log.Warn("CAMPAIGN_SWEEP_SECONDS must be positive, using 300")
		c.SweepInterval = 5 * time.Minute
	}
	if c.OverdueGrace < 0 {
		c.OverdueGrace = 0
	}
	if c.CompletionDelay < 0 {
		log.Warn("CAMPAIGN_COMPLETION_DELAY_SECONDS is negative, using 0")
		c.CompletionDelay = 0
	}
	for _, t := range []string{"sms", "mms", "rcs"} {
		if cost, _ := c.CostPerMessage(t); cost < 0 {
			log.Fatal("message cost must not be negative", zap.String("message_type", t))
		}
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIDList(s string) []uuid.UUID {
	var ids []uuid.UUID
	for _, p := range parseList(s) {
		id, err := uuid.Parse(p)
		if err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
