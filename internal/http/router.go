package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/policyforge/policyforge-backend/internal/http/handlers"
	httpMW "github.com/policyforge/policyforge-backend/internal/http/middleware"
	"github.com/policyforge/policyforge-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	TemplateHandler   *httpH.TemplateHandler
	RuleHandler       *httpH.RuleHandler
	ValidationHandler *httpH.ValidationHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("policyforge-backend"))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Templates
		if cfg.TemplateHandler != nil {
			api.POST("/templates", cfg.TemplateHandler.Create)
			api.GET("/templates", cfg.TemplateHandler.List)
			api.GET("/templates/:id", cfg.TemplateHandler.Get)
			api.PUT("/templates/:id", cfg.TemplateHandler.Update)
			api.DELETE("/templates/:id", cfg.TemplateHandler.Delete)
			api.GET("/templates/:id/versions", cfg.TemplateHandler.ListVersions)
			api.GET("/templates/:id/versions/:versionID", cfg.TemplateHandler.GetVersion)
			api.GET("/templates/:id/versions/:versionID/diff", cfg.TemplateHandler.DiffVersion)
			api.POST("/templates/:id/publish", cfg.TemplateHandler.Publish)
		}

		// Rules
		if cfg.RuleHandler != nil {
			api.POST("/rules", cfg.RuleHandler.Create)
			api.GET("/rules", cfg.RuleHandler.List)
			api.GET("/rules/:id", cfg.RuleHandler.Get)
			api.PUT("/rules/:id", cfg.RuleHandler.Update)
			api.DELETE("/rules/:id", cfg.RuleHandler.Delete)
			api.GET("/rules/:id/versions", cfg.RuleHandler.ListVersions)
			api.GET("/rules/:id/versions/:versionID", cfg.RuleHandler.GetVersion)
			api.GET("/rules/:id/versions/:versionID/diff", cfg.RuleHandler.DiffVersion)
			api.POST("/rules/:id/publish", cfg.RuleHandler.Publish)
		}

		// Rego validation
		if cfg.ValidationHandler != nil {
			api.POST("/validation/rego", cfg.ValidationHandler.ValidateRego)
			api.POST("/validation/rego/eval", cfg.ValidationHandler.EvaluateRego)
		}
	}

	return r
}
