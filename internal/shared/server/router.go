package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"loangate-backend/internal/applications"
	"loangate-backend/internal/documents"
	"loangate-backend/internal/eligibility"
	"loangate-backend/internal/risk"
	"loangate-backend/internal/services/health"
	"loangate-backend/internal/shared/config"
	"loangate-backend/internal/shared/metrics"
	"loangate-backend/internal/shared/server/middleware"
	"loangate-backend/internal/shared/server/respond"
	"loangate-backend/internal/uploads"
)

const extractionGroup = "EXTRACTION"

// RouterDeps carries the handlers the router mounts. Nil handlers are skipped.
type RouterDeps struct {
	Config             config.Config
	Health             *health.Service
	RiskHandler        *risk.Handler
	ApplicationHandler *applications.Handler
	DocumentHandler    *documents.Handler
	EligibilityHandler *eligibility.Handler
	UploadHandler      *uploads.Handler
	RateLimiter        middleware.Limiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})

	if deps.RiskHandler != nil {
		deps.RiskHandler.RegisterRoutes(api)
	}
	if deps.ApplicationHandler != nil {
		deps.ApplicationHandler.RegisterRoutes(api)
	}
	if deps.EligibilityHandler != nil {
		deps.EligibilityHandler.RegisterRoutes(api)
	}
	if deps.UploadHandler != nil {
		deps.UploadHandler.RegisterRoutes(api)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)

		extraction := api.Group("")
		extraction.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Rules:        extractionRules(deps.Config),
			DefaultGroup: extractionGroup,
			Limiter:      deps.RateLimiter,
		}))
		deps.DocumentHandler.RegisterUploadRoutes(extraction)
	}

	return r
}

// extractionRules returns no rules when the configured rate is not positive,
// which leaves the extraction endpoints unthrottled.
func extractionRules(cfg config.Config) map[string]middleware.RateLimitRule {
	if cfg.ExtractionRateLimit <= 0 {
		return nil
	}
	burst := cfg.ExtractionBurst
	if burst <= 0 {
		burst = 1
	}
	return map[string]middleware.RateLimitRule{
		extractionGroup: {Rate: cfg.ExtractionRateLimit, Burst: burst},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
