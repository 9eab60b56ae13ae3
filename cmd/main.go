package main

import (
	"context"
	"time"

	"github.com/afsalck/sme-business-suite-sub002/internal/handler"
	"github.com/afsalck/sme-business-suite-sub002/internal/mailer"
	"github.com/afsalck/sme-business-suite-sub002/internal/middleware"
	"github.com/afsalck/sme-business-suite-sub002/internal/model"
	"github.com/afsalck/sme-business-suite-sub002/internal/notification"
	"github.com/afsalck/sme-business-suite-sub002/internal/scheduler"
	"github.com/afsalck/sme-business-suite-sub002/internal/tenant"
	"github.com/afsalck/sme-business-suite-sub002/pkg/config"
	"github.com/afsalck/sme-business-suite-sub002/pkg/database"
	"github.com/afsalck/sme-business-suite-sub002/pkg/jwtutil"
	"github.com/afsalck/sme-business-suite-sub002/pkg/logger"
	"github.com/afsalck/sme-business-suite-sub002/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting SME business suite...", cfg.LogConfig()...)

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(
		&model.Tenant{},
		&model.DomainMapping{},
		&model.User{},
		&model.Notification{},
		&model.Employee{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.CompanySetting{},
	); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	db := database.GetDB()
	if err := seedDefaultTenant(db); err != nil {
		log.Fatal("Failed to seed default tenant", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT validation for externally issued identity tokens
	jwtutil.Initialize(&cfg.JWT)

	// Initialize Prometheus metrics
	prometheus.InitMetrics()

	loc, err := time.LoadLocation(cfg.Notification.Timezone)
	if err != nil {
		log.Warn("Unknown timezone, falling back to UTC", zap.String("timezone", cfg.Notification.Timezone))
		loc = time.UTC
	}

	// Core components
	resolver := tenant.NewResolver(tenant.NewGormStore(db), cfg.Tenant, log)
	engine := notification.NewEngine(db, loc, log)
	notifService := notification.NewService(db)

	// Digest mailer; the scheduler runs without it when SES is unavailable
	var sender notification.DigestSender
	if cfg.Notification.DigestEnabled {
		sesSender, err := mailer.NewSESDigestSender(context.Background(), cfg.Mail)
		if err != nil {
			log.Warn("Digest mailer unavailable, digests disabled", zap.Error(err))
		} else {
			sender = sesSender
		}
	}

	// Daily batch scheduler
	sched := scheduler.New(engine, sender, cfg.Notification.ScanInterval, log)
	sched.Start()
	defer sched.Stop()

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", prometheus.Handler())

	notifHandler := handler.NewNotificationHandler(notifService, engine)
	tenantHandler := handler.NewTenantHandler(resolver, db)
	employeeHandler := handler.NewEmployeeHandler(db, engine)
	invoiceHandler := handler.NewInvoiceHandler(db)

	// API routes - authentication plus tenant context on everything
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)
	api.Use(middleware.TenantContextMiddleware(resolver, db))

	notifications := api.Group("/notifications")
	notifications.GET("", notifHandler.List)
	notifications.PATCH("/:id/read", notifHandler.MarkRead)
	notifications.POST("/read-all", notifHandler.MarkAllRead)

	employees := api.Group("/employees")
	employees.GET("", employeeHandler.List)
	employees.POST("", employeeHandler.Create)
	employees.PATCH("/:id", employeeHandler.Update)

	invoices := api.Group("/invoices")
	invoices.GET("", invoiceHandler.List)
	invoices.POST("", invoiceHandler.Create)

	// Admin-only operations
	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdmin)
	admin.POST("/tenants", tenantHandler.CreateTenant)
	admin.GET("/domain-mappings", tenantHandler.ListDomainMappings)
	admin.POST("/domain-mappings", tenantHandler.AddDomainMapping)
	admin.DELETE("/domain-mappings/:domain", tenantHandler.RemoveDomainMapping)
	admin.POST("/notifications/run-checks", notifHandler.RunChecks)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}

// seedDefaultTenant guarantees the fallback tenant row exists. It is the
// fail-open target of the resolver and must never be missing or deleted.
func seedDefaultTenant(db *gorm.DB) error {
	var existing model.Tenant
	err := db.First(&existing, model.DefaultTenantID).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return db.Create(&model.Tenant{
		ID:   model.DefaultTenantID,
		Name: "Default Company",
	}).Error
}
