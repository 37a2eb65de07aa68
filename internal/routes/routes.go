package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/YamirG/WEAREEXPORTERS/internal/bonus"
	"github.com/YamirG/WEAREEXPORTERS/internal/campaign"
	"github.com/YamirG/WEAREEXPORTERS/internal/config"
	"github.com/YamirG/WEAREEXPORTERS/internal/ledger"
	"github.com/YamirG/WEAREEXPORTERS/internal/middleware"
	"github.com/YamirG/WEAREEXPORTERS/internal/notification"
	"github.com/YamirG/WEAREEXPORTERS/internal/payments"
	"github.com/YamirG/WEAREEXPORTERS/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// In-memory fallbacks are a development convenience only.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	// Replay guards for mutating routes. A nil cache (dev only) disables
	// them; the ledger's externalRef idempotency still holds either way.
	replayGuard := middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger, middleware.HeaderKey)
	webhookGuard := middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger, middleware.WebhookKey("external_ref"))

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	var store ledger.Store
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB)
	} else {
		store = ledger.NewMemoryStore()
	}
	ledgerSvc := ledger.NewService(store)

	notifier := notification.NewLoggerNotifier(d.Logger)
	paymentSvc := payments.NewService(ledgerSvc, payments.StaticVerifier{}, notifier)
	bonusSvc := bonus.NewService(ledgerSvc, notifier, d.Cfg.BonusCents)

	var campaignRepo campaign.Repository
	if d.DB != nil {
		campaignRepo = campaign.NewPostgresRepository(d.DB)
	} else {
		campaignRepo = campaign.NewMemoryRepository()
	}
	campaignSvc := campaign.NewService(campaignRepo, ledgerSvc, notifier, d.Cfg.CampaignCostCents)

	walletHandler := wallet.NewHandler(ledgerSvc)
	paymentHandler := payments.NewHandler(paymentSvc)
	campaignHandler := campaign.NewHandler(campaignSvc)
	bonusHandler := bonus.NewHandler(bonusSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterWalletRoutes(api, walletHandler, bonusHandler)
	RegisterPaymentRoutes(api, paymentHandler, webhookGuard)
	launchLimiter := middleware.LaunchRateLimit(d.Cache, d.Cfg.LaunchesPerMinute)
	RegisterCampaignRoutes(api, campaignHandler, replayGuard, launchLimiter)

	return nil
}
