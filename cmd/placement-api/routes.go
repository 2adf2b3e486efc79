package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-api/internal/eligibility"
	"github.com/noah-isme/placement-api/internal/handler"
	"github.com/noah-isme/placement-api/internal/middleware"
	"github.com/noah-isme/placement-api/internal/models"
	"github.com/noah-isme/placement-api/internal/repository"
	"github.com/noah-isme/placement-api/internal/service"
	"github.com/noah-isme/placement-api/pkg/config"
	"github.com/noah-isme/placement-api/pkg/export"
	"github.com/noah-isme/placement-api/pkg/jobs"
	"github.com/noah-isme/placement-api/pkg/logger"
	"github.com/noah-isme/placement-api/pkg/messaging"
	corsmiddleware "github.com/noah-isme/placement-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/placement-api/pkg/middleware/requestid"
	"github.com/noah-isme/placement-api/pkg/storage"
)

const cacheKeyPrefix = "placement:"

type app struct {
	router     *gin.Engine
	eventQueue *jobs.Queue
	cacheRepo  *repository.CacheRepository
}

type handlers struct {
	postings     *handler.PostingHandler
	eligibility  *handler.EligibilityHandler
	applications *handler.ApplicationHandler
	students     *handler.StudentHandler
	placements   *handler.PlacementHandler
	redFlags     *handler.RedFlagHandler
	cohort       *handler.CohortHandler
	attachments  *handler.AttachmentHandler
	metrics      *handler.MetricsHandler
}

func buildApp(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, publisher messaging.Publisher, logr *zap.Logger) (*app, error) {
	aliases, err := eligibility.LoadAliasFile(cfg.Eligibility.BranchAliasesFile)
	if err != nil {
		return nil, fmt.Errorf("load branch aliases: %w", err)
	}
	evaluator := eligibility.NewEvaluator(aliases)
	validate := service.NewValidator()

	studentRepo := repository.NewStudentRepository(db)
	postingRepo := repository.NewPostingRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	placementRepo := repository.NewPlacementRepository(db)
	internshipRepo := repository.NewInternshipRepository(db)
	redFlagRepo := repository.NewRedFlagRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, cacheKeyPrefix, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cohort.CacheTTL, logr, cfg.Cohort.CacheEnabled && redisClient != nil)

	eventSvc := service.NewEventService(publisher, metricsSvc, logr)
	queue := jobs.NewQueue("events", eventSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Events.Workers,
		MaxRetries: cfg.Events.Retries,
		RetryDelay: cfg.Events.RetryDelay,
		Logger:     logr,
		OnGiveUp:   eventSvc.GiveUp,
	})
	eventSvc.AttachQueue(queue)

	authSvc := service.NewAuthService(service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: cfg.JWT.Expiration,
	})
	postingSvc, err := service.NewPostingService(postingRepo, validate, logr)
	if err != nil {
		return nil, fmt.Errorf("init posting service: %w", err)
	}
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	eligibilitySvc := service.NewEligibilityService(evaluator, postingRepo, studentRepo, metricsSvc, logr)
	applicationSvc := service.NewApplicationService(service.ApplicationServiceDeps{
		Repo:      applicationRepo,
		Postings:  postingRepo,
		Students:  studentRepo,
		Evaluator: evaluator,
		Validator: validate,
		Metrics:   metricsSvc,
		Events:    eventSvc,
		Cache:     cacheSvc,
		Logger:    logr,
	})
	summarySvc := service.NewSummaryService(studentRepo, applicationRepo, placementRepo, cacheSvc, cfg.Cohort.CacheTTL, validate, logr)
	placementSvc := service.NewPlacementService(placementRepo, internshipRepo, studentRepo, validate, eventSvc, cacheSvc, logr)
	redFlagSvc := service.NewRedFlagService(redFlagRepo, studentRepo, validate, logr)
	exportSvc := service.NewExportService(summarySvc, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	store, err := storage.NewLocalStorage(cfg.Attachments.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("init attachment storage: %w", err)
	}
	attachmentSvc := service.NewAttachmentService(store, storage.NewSignedURLSigner(cfg.Attachments.SignedURLSecret, cfg.Attachments.SignedURLTTL), logr, service.AttachmentServiceConfig{
		MaxFileSize:  cfg.Attachments.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Attachments.AllowedMIMEs,
		APIPrefix:    cfg.APIPrefix,
	})

	h := handlers{
		postings:     handler.NewPostingHandler(postingSvc),
		eligibility:  handler.NewEligibilityHandler(eligibilitySvc),
		applications: handler.NewApplicationHandler(applicationSvc, summarySvc),
		students:     handler.NewStudentHandler(studentSvc),
		placements:   handler.NewPlacementHandler(placementSvc),
		redFlags:     handler.NewRedFlagHandler(redFlagSvc),
		cohort:       handler.NewCohortHandler(summarySvc, exportSvc),
		attachments:  handler.NewAttachmentHandler(attachmentSvc),
		metrics:      handler.NewMetricsHandler(metricsSvc, db),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	registerRoutes(r, cfg, h, authSvc)

	return &app{router: r, eventQueue: queue, cacheRepo: cacheRepo}, nil
}

func registerRoutes(r *gin.Engine, cfg *config.Config, h handlers, tokens middleware.TokenValidator) {
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Signed tokens authorise downloads on their own.
	api.GET("/attachments/:token", h.attachments.Download)

	catalog := api.Group("/postings")
	catalog.Use(middleware.OptionalJWT(tokens))
	catalog.GET("", h.postings.List)
	catalog.GET("/:id", h.postings.Get)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))

	operators := middleware.RBAC(middleware.Operators...)
	operatorsOrSelf := middleware.RBAC(middleware.OperatorsOr(middleware.Self)...)
	operatorsOrRecruiter := middleware.RBAC(middleware.OperatorsOr(string(models.RoleRecruiter))...)
	students := middleware.RequireRoles(models.RoleStudent)

	secured.GET("/metrics/summary", operators, h.metrics.Snapshot)

	postings := secured.Group("/postings")
	postings.POST("", operatorsOrRecruiter, h.postings.Create)
	postings.GET("/:id/eligibility", students, h.eligibility.Mine)
	postings.GET("/:id/eligibility/:studentId", operators, h.eligibility.Student)
	postings.GET("/:id/eligible-students", operators, h.eligibility.EligibleStudents)
	postings.POST("/:id/applications", students, h.applications.Create)
	postings.GET("/:id/applications", operatorsOrRecruiter, h.applications.ListByPosting)

	applications := secured.Group("/applications")
	// Ownership is checked by the service: students only see their own.
	applications.GET("/:id", h.applications.Get)
	applications.PATCH("/:id/status", operatorsOrRecruiter, h.applications.Transition)
	applications.POST("/:id/withdraw", operators, h.applications.Withdraw)

	studentRoutes := secured.Group("/students")
	studentRoutes.GET("/:id", operatorsOrSelf, h.students.Get)
	studentRoutes.PUT("/:id/availability", operatorsOrSelf, h.students.UpdateAvailability)
	studentRoutes.GET("/:id/applications", operatorsOrSelf, h.applications.ListByStudent)
	studentRoutes.GET("/:id/applications/summary", operatorsOrSelf, h.applications.Summary)
	studentRoutes.GET("/:id/placement", operatorsOrSelf, h.placements.Get)
	studentRoutes.PUT("/:id/placement", operators, h.placements.RecordFinal)
	studentRoutes.DELETE("/:id/placement", operators, h.placements.RemoveFinal)
	studentRoutes.POST("/:id/internships", operators, h.placements.RecordInternship)
	studentRoutes.PUT("/:id/internships/:internshipId", operators, h.placements.UpdateInternship)
	studentRoutes.DELETE("/:id/internships/:internshipId", operators, h.placements.RemoveInternship)
	studentRoutes.GET("/:id/red-flags", operators, h.redFlags.List)
	studentRoutes.POST("/:id/red-flags", operators, h.redFlags.Create)
	studentRoutes.PUT("/:id/red-flags/:flagId", operators, h.redFlags.Update)
	studentRoutes.DELETE("/:id/red-flags/:flagId", operators, h.redFlags.Delete)

	placements := secured.Group("/placements")
	placements.GET("/cohort", operators, h.cohort.Summary)
	placements.GET("/cohort/export", operators, h.cohort.Export)

	secured.POST("/attachments/resume", students, h.attachments.UploadResume)
}
