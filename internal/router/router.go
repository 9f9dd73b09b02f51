// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/javajoker/licensechain/internal/config"
	"github.com/javajoker/licensechain/internal/handlers"
	"github.com/javajoker/licensechain/internal/middleware"
	"github.com/javajoker/licensechain/internal/services"
	"github.com/javajoker/licensechain/internal/utils"
)

// Dependencies are built once in main (or a test) and shared by every route.
type Dependencies struct {
	DB                  *gorm.DB
	Gate                *services.AdminGate
	AuthService         *services.AuthService
	LicenseService      *services.LicenseService
	VerificationService *services.VerificationService
	Documents           services.DocumentStore
	RateLimiters        *middleware.RateLimiters
	Gatherer            prometheus.Gatherer
}

func Initialize(cfg *config.Config, deps Dependencies) *gin.Engine {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	licenseHandler := handlers.NewLicenseHandler(deps.LicenseService, deps.Documents)
	adminHandler := handlers.NewAdminHandler(deps.LicenseService, deps.DB)
	verificationHandler := handlers.NewVerificationHandler(deps.VerificationService)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware())
	r.Use(deps.RateLimiters.General.Middleware())
	r.Use(middleware.AuditLogMiddleware(deps.DB))

	// Health check round-trips the ledger
	r.GET("/health", func(c *gin.Context) {
		count, err := deps.LicenseService.Ping(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"ledger": "unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"version":  "1.0.0",
			"licenses": count,
		})
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// API v1 routes
	v1 := r.Group("/v1")
	v1.Use(middleware.CallTimeout(cfg.Ledger.CallTimeout))
	{
		// Wallet sign-in
		auth := v1.Group("/auth")
		{
			auth.POST("/nonce", authHandler.Nonce)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetSession)
		}

		// Verification routes (public)
		v1.POST("/verify", deps.RateLimiters.Verify.Middleware(), middleware.OptionalAuth(), verificationHandler.VerifyLicense)

		// License routes
		licenses := v1.Group("/licenses")
		{
			licenses.GET("/catalogue", licenseHandler.GetCatalogue)

			// Authenticated routes
			protected := licenses.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("/apply", deps.RateLimiters.Upload.Middleware(), licenseHandler.ApplyForLicense)
				protected.GET("/mine", licenseHandler.GetMyLicenses)
				protected.GET("/:id", licenseHandler.GetLicense)
				protected.GET("/:id/certificate", licenseHandler.GetCertificate)
			}
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(deps.Gate))
		{
			adminLicenses := admin.Group("/licenses")
			{
				adminLicenses.GET("", adminHandler.GetLicenses)
				adminLicenses.GET("/stats", adminHandler.GetLicenseStats)
				adminLicenses.POST("/:id/approve", adminHandler.ApproveLicense)
				adminLicenses.POST("/:id/reject", adminHandler.RejectLicense)
				adminLicenses.POST("/:id/revoke", adminHandler.RevokeLicense)
			}

			admin.GET("/audit-logs", adminHandler.GetAuditLogs)
		}
	}

	// 404 handler
	r.NoRoute(func(c *gin.Context) {
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})

	return r
}
