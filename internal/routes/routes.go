package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/consultacpf/consulta-clientes/internal/account"
	"github.com/consultacpf/consulta-clientes/internal/auth"
	"github.com/consultacpf/consulta-clientes/internal/config"
	"github.com/consultacpf/consulta-clientes/internal/customer"
	"github.com/consultacpf/consulta-clientes/internal/importer"
	"github.com/consultacpf/consulta-clientes/internal/lookup"
	"github.com/consultacpf/consulta-clientes/internal/middleware"
	"github.com/consultacpf/consulta-clientes/internal/notification"
	"github.com/consultacpf/consulta-clientes/internal/store"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	Store    store.DB
	Cache    *redis.Client
	Notifier notification.Notifier
	Logger   *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Store == nil {
		return fmt.Errorf("store is required")
	}
	// Enforce Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDevelopment() && d.Cache == nil {
		return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
	}
	if d.Notifier == nil {
		d.Notifier = notification.NewLoggerNotifier(d.Logger)
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	customers := customer.NewRepository(d.Store)
	accountRepo := account.NewSQLRepository(d.Store)
	accountSvc := account.NewService(accountRepo, d.Logger)
	authSvc := auth.NewService(d.Cfg, accountRepo)
	lookupSvc := lookup.NewService(customers)
	imp := importer.New(customers, d.Notifier, d.Logger)

	authHandler := auth.NewHandler(accountSvc, authSvc)
	lookupHandler := lookup.NewHandler(lookupSvc)
	importHandler := importer.NewHandler(imp)
	accountHandler := account.NewHandler(accountSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals(middleware.RequestIDHeader).(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	rateLimiter := middleware.LoginRateLimit(d.Cache, d.Cfg.LoginAttemptsPerMinute)
	jwtmw := middleware.JWTAuth(authSvc)
	RegisterAuthRoutes(api, authHandler, rateLimiter, jwtmw)

	// Authenticated routes
	protected := api.Group("", jwtmw)
	protected.Get("/me", func(c *fiber.Ctx) error {
		id, _ := c.Locals(auth.LocalAccountID).(int64)
		acc, err := accountSvc.Get(c.UserContext(), id)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "account not found")
		}
		return c.JSON(fiber.Map{
			"account_id":    acc.ID,
			"username":      acc.Username,
			"role":          acc.Role,
			"token_version": acc.TokenVersion,
		})
	})
	RegisterLookupRoutes(protected, lookupHandler)

	// Admin routes
	admin := protected.Group("", middleware.RequireRole(account.RoleAdmin))
	var idempotency fiber.Handler
	if d.Cache != nil {
		idempotency = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}
	RegisterImportRoutes(admin, importHandler, idempotency)
	RegisterStatsRoutes(admin, customers, d.Store)
	RegisterAccountRoutes(admin, accountHandler)

	return nil
}
