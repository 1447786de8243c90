package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/atelierhq/planner-api/api/swagger"
	"github.com/atelierhq/planner-api/internal/handler"
	"github.com/atelierhq/planner-api/internal/middleware"
	"github.com/atelierhq/planner-api/internal/models"
	"github.com/atelierhq/planner-api/internal/repository"
	"github.com/atelierhq/planner-api/internal/service"
	"github.com/atelierhq/planner-api/pkg/cache"
	"github.com/atelierhq/planner-api/pkg/config"
	"github.com/atelierhq/planner-api/pkg/database"
	"github.com/atelierhq/planner-api/pkg/export"
	"github.com/atelierhq/planner-api/pkg/jobs"
	"github.com/atelierhq/planner-api/pkg/logger"
	corsmiddleware "github.com/atelierhq/planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/atelierhq/planner-api/pkg/middleware/requestid"
	"github.com/atelierhq/planner-api/pkg/storage"
)

// @title Atelier Planner API
// @version 1.0.0
// @description Workshop planning, validation and optimization service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Warn("redis unavailable, advisory caching disabled", zap.Error(err))
	} else {
		redisClient = client
		defer redisClient.Close()
	}

	// Repositories.
	locationRepo := repository.NewLocationRepository(db)
	typeRepo := repository.NewWorkshopTypeRepository(db)
	personRepo := repository.NewPersonRepository(db)
	workshopRepo := repository.NewWorkshopRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportRepository(db)

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Planner.AdvisoryCacheTTL, logr, true)
	}

	// Services.
	settingSvc := service.NewSettingService(settingRepo, logr)
	validationSvc := service.NewValidationService(
		typeRepo, locationRepo, personRepo, workshopRepo, assignmentRepo, availabilityRepo,
		settingSvc, nil, logr,
	)
	conflictSvc := service.NewConflictService(workshopRepo, assignmentRepo, cacheSvc, cfg.Planner.AdvisoryCacheTTL, logr)
	slotSvc := service.NewSlotService(
		locationRepo, typeRepo, personRepo, workshopRepo, assignmentRepo, availabilityRepo,
		cacheSvc, cfg.Planner.AdvisoryCacheTTL, cfg.Planner.SlotResultLimit, nil, logr,
	)
	optimizerSvc := service.NewOptimizerService(typeRepo, locationRepo, cfg.Planner.SolverTimeBudget, nil, logr)
	scenarioSvc := service.NewScenarioService(workshopRepo, typeRepo, personRepo, assignmentRepo, settingSvc, nil, logr)
	workshopSvc := service.NewWorkshopService(workshopRepo, typeRepo, validationSvc, cacheSvc, nil, logr)
	teamSvc := service.NewTeamService(personRepo, assignmentRepo, validationSvc, cacheSvc, nil, logr)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, personRepo, nil, logr)
	catalogSvc := service.NewCatalogService(locationRepo, typeRepo, nil, logr)
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "planner-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Export pipeline.
	var reportSvc *service.ReportService
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.Dir)
		if err != nil {
			logr.Fatal("failed to init export storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SigningSecret, cfg.Exports.ResultTTL)
		exportSvc := service.NewExportService(
			workshopRepo, scenarioSvc, store, signer,
			service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Exports.ResultTTL},
			logr, export.NewCSVExporter(), export.NewPDFExporter(),
		)

		const maxRetries = 3
		worker := service.NewReportWorker(reportRepo, exportSvc, maxRetries, logr)
		queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.Workers,
			BufferSize: 64,
			MaxRetries: maxRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		reportSvc = service.NewReportService(reportRepo, queue, exportSvc, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Exports.ResultTTL,
			CleanupInterval: time.Hour,
			MaxRetries:      maxRetries,
		})
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	planningHandler := handler.NewPlanningHandler(validationSvc, conflictSvc, slotSvc, optimizerSvc, scenarioSvc, metricsSvc)
	workshopHandler := handler.NewWorkshopHandler(workshopSvc)
	teamHandler := handler.NewTeamHandler(teamSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	settingsHandler := handler.NewSettingsHandler(settingSvc)
	analyticsHandler := handler.NewAnalyticsHandler(scenarioSvc, metricsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.POST("/auth/register", middleware.RequireRoles(models.RoleAdmin), authHandler.Register)

		planning := authed.Group("/planning")
		{
			planning.POST("/validate/workshop", planningHandler.ValidateWorkshop)
			planning.POST("/validate/assignment", planningHandler.ValidateAssignment)
			planning.GET("/validate/period", planningHandler.ValidatePeriod)
			planning.GET("/conflicts", planningHandler.Conflicts)
			planning.GET("/slots", planningHandler.Slots)
			planning.POST("/optimize", planningHandler.Optimize)
			planning.POST("/scenario", planningHandler.Scenario)
		}

		workshops := authed.Group("/workshops")
		{
			workshops.GET("", workshopHandler.List)
			workshops.POST("", workshopHandler.Create)
			workshops.GET("/:id", workshopHandler.Get)
			workshops.PUT("/:id", workshopHandler.Update)
			workshops.DELETE("/:id", workshopHandler.Cancel)
			workshops.GET("/:id/sessions", workshopHandler.Sessions)
			workshops.GET("/:id/assignments", teamHandler.WorkshopAssignments)
		}

		people := authed.Group("/people")
		{
			people.GET("", teamHandler.ListPeople)
			people.POST("", teamHandler.CreatePerson)
			people.GET("/:id", teamHandler.GetPerson)
			people.PUT("/:id", teamHandler.UpdatePerson)
			people.DELETE("/:id", teamHandler.DeactivatePerson)
			people.GET("/:id/assignments", teamHandler.PersonAssignments)
			people.GET("/:id/availabilities", availabilityHandler.ListByPerson)
			people.GET("/:id/availability-check", availabilityHandler.Check)
		}

		assignments := authed.Group("/assignments")
		{
			assignments.POST("", teamHandler.CreateAssignment)
			assignments.PUT("/:id", teamHandler.UpdateAssignment)
			assignments.DELETE("/:id", teamHandler.DeleteAssignment)
		}

		availabilities := authed.Group("/availabilities")
		{
			availabilities.POST("", availabilityHandler.Create)
			availabilities.PUT("/:id", availabilityHandler.Update)
			availabilities.DELETE("/:id", availabilityHandler.Delete)
		}

		locations := authed.Group("/locations")
		{
			locations.GET("", catalogHandler.ListLocations)
			locations.GET("/:id", catalogHandler.GetLocation)
			locations.POST("", middleware.RequireRoles(models.RoleAdmin), catalogHandler.CreateLocation)
			locations.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), catalogHandler.UpdateLocation)
		}

		types := authed.Group("/workshop-types")
		{
			types.GET("", catalogHandler.ListWorkshopTypes)
			types.GET("/:id", catalogHandler.GetWorkshopType)
			types.POST("", middleware.RequireRoles(models.RoleAdmin), catalogHandler.CreateWorkshopType)
			types.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), catalogHandler.UpdateWorkshopType)
		}

		settings := authed.Group("/settings")
		{
			settings.GET("", settingsHandler.List)
			settings.GET("/rules", settingsHandler.Rules)
			settings.PUT("", middleware.RequireRoles(models.RoleAdmin), settingsHandler.Upsert)
		}

		analytics := authed.Group("/analytics")
		{
			analytics.GET("/capacity", analyticsHandler.Capacity)
			analytics.GET("/revenue", analyticsHandler.Revenue)
			analytics.GET("/targets", analyticsHandler.Targets)
			analytics.GET("/system", analyticsHandler.System)
		}

		if reportSvc != nil {
			reportHandler := handler.NewReportHandler(reportSvc)
			authed.POST("/reports", reportHandler.Create)
			authed.GET("/reports/:id", reportHandler.Status)
			api.GET("/export/:token", reportHandler.Download)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
