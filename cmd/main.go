package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/policyforge/policyforge-backend/internal/data/db"
	"github.com/policyforge/policyforge-backend/internal/data/repos"
	policyHTTP "github.com/policyforge/policyforge-backend/internal/http"
	"github.com/policyforge/policyforge-backend/internal/http/handlers"
	"github.com/policyforge/policyforge-backend/internal/observability"
	"github.com/policyforge/policyforge-backend/internal/platform/envutil"
	"github.com/policyforge/policyforge-backend/internal/platform/jfrog"
	"github.com/policyforge/policyforge-backend/internal/platform/logger"
	"github.com/policyforge/policyforge-backend/internal/platform/opatool"
	"github.com/policyforge/policyforge-backend/internal/services"
)

func main() {
	// Logger
	logMode := envutil.String("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	shutdownOtel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "policyforge-backend",
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),
	})
	if shutdownOtel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownOtel(ctx); err != nil {
				log.Warn("otel shutdown failed", "error", err)
			}
		}()
	}

	// Database
	dbService, err := db.New(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Error("Database auto migration failed", "error", err)
		os.Exit(1)
	}
	conn := dbService.DB()

	// Repos
	log.Info("Setting up repos...")
	templateRepo := repos.NewTemplateRepo(conn, log)
	templateVersionRepo := repos.NewTemplateVersionRepo(conn, log)
	ruleRepo := repos.NewRuleRepo(conn, log)
	ruleVersionRepo := repos.NewRuleVersionRepo(conn, log)

	// Remote governance client
	remote, err := jfrog.NewFromEnv(log)
	if err != nil {
		log.Warn("Unified policy client unconfigured, publish disabled", "error", err)
		remote = jfrog.Disabled()
	}

	// OPA toolchain
	opaTools := opatool.New(log)
	if !opaTools.Available() {
		log.Warn("opa binary not found, rego validation runs in degraded mode")
	}

	// Services
	log.Info("Setting up services...")
	versioningService := services.NewVersioningService(conn, log, templateVersionRepo, ruleVersionRepo)
	templateService := services.NewTemplateService(conn, log, templateRepo, templateVersionRepo, ruleRepo, versioningService, remote)
	ruleService := services.NewRuleService(conn, log, ruleRepo, ruleVersionRepo, templateRepo, versioningService, remote)
	validationService := services.NewValidationService(log, opaTools)

	// Handlers
	log.Info("Setting up handlers...")
	templateHandler := handlers.NewTemplateHandler(log, templateService)
	ruleHandler := handlers.NewRuleHandler(log, ruleService)
	validationHandler := handlers.NewValidationHandler(log, validationService)
	healthHandler := handlers.NewHealthHandler()

	// Router
	server := policyHTTP.NewServer(policyHTTP.RouterConfig{
		Log:               log,
		TemplateHandler:   templateHandler,
		RuleHandler:       ruleHandler,
		ValidationHandler: validationHandler,
		HealthHandler:     healthHandler,
	})

	port := envutil.String("PORT", "8080")
	log.Info("Server listening", "port", port)
	if err := server.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
