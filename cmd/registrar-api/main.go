package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campus-core/registrar-api/api/swagger"
	"github.com/campus-core/registrar-api/internal/handler"
	"github.com/campus-core/registrar-api/internal/middleware"
	"github.com/campus-core/registrar-api/internal/models"
	"github.com/campus-core/registrar-api/internal/repository"
	"github.com/campus-core/registrar-api/internal/service"
	"github.com/campus-core/registrar-api/pkg/cache"
	"github.com/campus-core/registrar-api/pkg/config"
	"github.com/campus-core/registrar-api/pkg/database"
	"github.com/campus-core/registrar-api/pkg/logger"
	corsmiddleware "github.com/campus-core/registrar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campus-core/registrar-api/pkg/middleware/requestid"
)

// @title Campus Core Registrar API
// @version 0.1.0
// @description Course catalog, registration, and transcript service
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The catalog cache is an optimization; the API runs without it.
		logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	courseRepo := repository.NewCourseRepository(db)
	planRepo := repository.NewPlanRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	transcriptRepo := repository.NewTranscriptRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Catalog.CacheTTL, logr,
		cfg.Catalog.CacheEnabled && redisClient != nil)
	settingsSvc := service.NewSettingsService(settingRepo, logr)
	catalogSvc := service.NewCatalogService(courseRepo, planRepo, cacheSvc, validate, logr)
	sectionSvc := service.NewSectionService(sectionRepo, courseRepo, validate, logr)
	eligibilitySvc := service.NewEligibilityService(userRepo, planRepo, transcriptRepo,
		registrationRepo, courseRepo, cfg.Registration.PassingGrades, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, sectionRepo,
		settingsSvc, metrics, validate, logr)
	transcriptSvc := service.NewTranscriptService(transcriptRepo, metrics, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	exportSvc := service.NewExportService(transcriptRepo, registrationRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc, userSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	studentHandler := handler.NewStudentHandler(eligibilitySvc, registrationSvc, transcriptSvc, exportSvc)
	transcriptHandler := handler.NewTranscriptHandler(transcriptSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	userHandler := handler.NewUserHandler(userSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, map[string]func() error{
		"postgres": func() error { return db.Ping() },
		"redis": func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return cacheRepo.Ping(ctx)
		},
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := middleware.JWT(authSvc)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor)
	admin := middleware.RequireRoles(models.RoleAdmin)
	selfOrStaff := middleware.RBAC(string(models.RoleAdmin), string(models.RoleInstructor), middleware.SelfRole)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)
		api.GET("/auth/me", auth, authHandler.Me)

		api.GET("/courses", catalogHandler.ListCourses)
		api.GET("/courses/:code", catalogHandler.GetCourse)
		api.GET("/courses/:code/prerequisites", catalogHandler.ListPrerequisites)
		api.GET("/plans", catalogHandler.ListPlanCourses)
		api.GET("/sections", sectionHandler.List)
		api.GET("/sections/:id", sectionHandler.Get)
		api.GET("/settings/registration", settingsHandler.GetRegistrationWindow)
		api.POST("/users", userHandler.Create)

		catalog := api.Group("", auth, admin)
		{
			catalog.POST("/courses", catalogHandler.CreateCourse)
			catalog.PUT("/courses/:code", catalogHandler.UpdateCourse)
			catalog.DELETE("/courses/:code", catalogHandler.DeleteCourse)
			catalog.POST("/courses/:code/prerequisites", catalogHandler.AddPrerequisite)
			catalog.DELETE("/courses/:code/prerequisites/:prereq", catalogHandler.DeletePrerequisite)
			catalog.POST("/plans", catalogHandler.AddPlanEntry)
			catalog.PUT("/plans/:program/:code", catalogHandler.UpdatePlanLevel)
			catalog.DELETE("/plans/:program/:code", catalogHandler.DeletePlanEntry)
			catalog.POST("/sections", sectionHandler.Create)
			catalog.PUT("/sections/:id", sectionHandler.Update)
			catalog.DELETE("/sections/:id", sectionHandler.Delete)
			catalog.PUT("/settings/registration", settingsHandler.SetRegistrationWindow)
		}

		registrations := api.Group("/registrations", auth)
		{
			registrations.POST("", registrationHandler.Register)
			registrations.DELETE("/:course", registrationHandler.Withdraw)
			registrations.GET("/conflict", registrationHandler.CheckConflict)
			registrations.GET("", staff, registrationHandler.List)
		}

		students := api.Group("/students/:id", auth, selfOrStaff)
		{
			students.GET("/available-courses", studentHandler.AvailableCourses)
			students.GET("/schedule", studentHandler.Schedule)
			students.GET("/schedule/export", studentHandler.ExportSchedule)
			students.GET("/transcript", studentHandler.Transcript)
			students.GET("/transcript/export", studentHandler.ExportTranscript)
		}

		transcripts := api.Group("/transcripts", auth, staff)
		{
			transcripts.POST("", transcriptHandler.AddEntry)
			transcripts.POST("/finalize", transcriptHandler.Finalize)
			transcripts.PUT("/grade", transcriptHandler.UpdateGrade)
		}

		users := api.Group("/users", auth, admin)
		{
			users.GET("", userHandler.List)
			users.GET("/inactive", userHandler.ListInactive)
			users.POST("/inactive/approve", userHandler.ApproveAllInactive)
			users.DELETE("/inactive", userHandler.DeleteAllInactive)
		}

		userByID := api.Group("/users/:id", auth)
		{
			userByID.GET("", selfOrStaff, userHandler.Get)
			userByID.PUT("", admin, userHandler.Update)
			userByID.DELETE("", admin, userHandler.Delete)
			userByID.GET("/last-login", selfOrStaff, userHandler.LastLogin)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
