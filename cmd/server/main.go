// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/licensechain/internal/config"
	"github.com/javajoker/licensechain/internal/database"
	"github.com/javajoker/licensechain/internal/i18n"
	"github.com/javajoker/licensechain/internal/ledger"
	"github.com/javajoker/licensechain/internal/metrics"
	"github.com/javajoker/licensechain/internal/middleware"
	"github.com/javajoker/licensechain/internal/router"
	"github.com/javajoker/licensechain/internal/services"
	"github.com/javajoker/licensechain/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	setupLogging(cfg)

	// Initialize i18n
	if err := i18n.Initialize(cfg.I18n.DefaultLocale); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	utils.SetJWTSecret(cfg.JWT.SecretKey)
	utils.SetJWTIssuer(cfg.JWT.Issuer)

	// Initialize database; only the postgres ledger needs one
	var db *gorm.DB
	if cfg.Ledger.Driver == config.LedgerDriverPostgres {
		db, err = database.Initialize(cfg.Database)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to initialize database")
		}
		defer database.Close(db)

		if err := database.RunMigrations(db); err != nil {
			logrus.WithError(err).Fatal("Failed to run migrations")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	gw := ledger.NewInstrumented(openLedger(cfg, db), m)

	storageService, err := services.NewStorageService(cfg.AWS)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize document storage")
	}

	policy := services.RevokedReusable
	if !cfg.Ledger.RevokedReusable() {
		policy = services.RevokedRetired
	}
	gate := services.NewAdminGate(cfg.Ledger.AdminAddress)
	nonces, closeNonces := openNonceStore(ctx, cfg)
	defer closeNonces()
	authService := services.NewAuthService(nonces, gate, cfg.JWT)
	licenseService := services.NewLicenseService(gw, gate, services.NewUniquenessGuard(gw, policy), m,
		services.LicenseServiceConfig{ScanConcurrency: cfg.Ledger.ScanConcurrency})
	verificationService := services.NewVerificationService(gw, m, nil)

	limiters := middleware.NewRateLimiters(cfg.RateLimit)
	go limiters.Run(ctx)

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := router.Initialize(cfg, router.Dependencies{
		DB:                  db,
		Gate:                gate,
		AuthService:         authService,
		LicenseService:      licenseService,
		VerificationService: verificationService,
		Documents:           storageService,
		RateLimiters:        limiters,
		Gatherer:            prometheus.DefaultGatherer,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":          srv.Addr,
			"ledger":        cfg.Ledger.Driver,
			"contract":      gw.ContractAddress(),
			"administrator": gate.Administrator(),
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	logrus.Info("Server exited")
}

func setupLogging(cfg *config.Config) {
	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)
}

func openLedger(cfg *config.Config, db *gorm.DB) ledger.Gateway {
	opts := ledger.Options{
		Administrator:     cfg.Ledger.AdminAddress,
		Validity:          cfg.Ledger.Validity(),
		EnforceUniqueness: cfg.Ledger.EnforceUniqueness,
		RetireRevoked:     !cfg.Ledger.RevokedReusable(),
		Address:           cfg.Ledger.ContractAddress,
	}

	switch cfg.Ledger.Driver {
	case config.LedgerDriverPostgres:
		return ledger.NewPostgres(db, opts)
	default:
		logrus.Warn("Using the in-memory ledger; records are lost on restart")
		return ledger.NewMemory(opts)
	}
}

// openNonceStore shares sign-in nonces through Redis when REDIS_URL is set.
func openNonceStore(ctx context.Context, cfg *config.Config) (services.NonceStore, func()) {
	client, err := database.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to redis")
	}
	if client != nil {
		return services.NewRedisNonceStore(client), func() { _ = client.Close() }
	}

	store := services.NewMemoryNonceStore()
	go store.Run(ctx)
	return store, func() {}
}
