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
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/rab-api/api/swagger"
	"github.com/noah-isme/rab-api/internal/handler"
	"github.com/noah-isme/rab-api/internal/middleware"
	"github.com/noah-isme/rab-api/internal/models"
	"github.com/noah-isme/rab-api/internal/repository"
	"github.com/noah-isme/rab-api/internal/service"
	"github.com/noah-isme/rab-api/pkg/cache"
	"github.com/noah-isme/rab-api/pkg/config"
	"github.com/noah-isme/rab-api/pkg/database"
	"github.com/noah-isme/rab-api/pkg/jobs"
	"github.com/noah-isme/rab-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/rab-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/rab-api/pkg/middleware/requestid"
	"github.com/noah-isme/rab-api/pkg/storage"
)

// @title RAB API
// @version 1.0.0
// @description Cost estimate documents with a three-step approval workflow
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}
	defer db.Close() //nolint:errcheck

	app, err := buildApp(ctx, cfg, db, logr)
	if err != nil {
		logr.Fatal("failed to build application", zap.Error(err))
	}
	defer app.close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

const cacheNamespace = "rab"

type application struct {
	router  *gin.Engine
	closers []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, db *sqlx.DB, logr *zap.Logger) (*application, error) {
	app := &application{}
	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	sectionRepo := repository.NewJobSectionRepository(db)
	itemRepo := repository.NewItemJobSectionRepository(db)

	userSvc := service.NewUserService(userRepo, validate, logr, service.UserServiceConfig{
		DefaultPassword: cfg.Bootstrap.UserDefaultPassword,
	})
	created, err := userSvc.EnsureDefaultAdmin(ctx, service.AdminBootstrap{
		Email:    cfg.Bootstrap.AdminEmail,
		Password: cfg.Bootstrap.AdminPassword,
		Name:     cfg.Bootstrap.AdminName,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		logr.Info("bootstrap administrator provisioned", zap.String("email", cfg.Bootstrap.AdminEmail))
	}

	params := service.DocumentServiceParams{
		Documents:    documentRepo,
		Sections:     sectionRepo,
		Items:        itemRepo,
		Participants: userRepo,
		Audit:        userRepo,
		Metrics:      metrics,
		Validate:     validate,
		Logger:       logr,
		Config: service.DocumentServiceConfig{
			FrontendURL:    cfg.Frontend.URL,
			VerifyCacheTTL: cfg.Verify.CacheTTL,
		},
	}

	if cfg.Verify.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, verification cache disabled", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(client, cacheNamespace)
			app.closers = append(app.closers, func() { _ = cacheRepo.Close() })
			params.Cache = service.NewCacheService(cacheRepo, metrics, cfg.Verify.CacheTTL, logr, true)
		}
	}

	var archiver *service.DocumentArchiver
	if cfg.Archive.Enabled {
		store, err := storage.NewLocalStorage(cfg.Archive.StorageDir)
		if err != nil {
			return nil, fmt.Errorf("archive storage: %w", err)
		}
		archiver = service.NewDocumentArchiver(store, logr)
		params.Archive = archiver
	}

	documentSvc := service.NewDocumentService(params)

	if archiver != nil {
		queue := jobs.NewQueue("document-archive", archiver.Handle, jobs.QueueConfig{
			Workers:    cfg.Archive.Workers,
			MaxRetries: cfg.Archive.Retries,
			RetryDelay: 2 * time.Second,
			Logger:     logr,
		})
		archiver.Bind(queue, documentSvc)
		queue.Start(ctx)
		app.closers = append(app.closers, queue.Stop)
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	sectionSvc := service.NewJobSectionService(documentRepo, sectionRepo, userRepo, validate, logr)
	itemSvc := service.NewItemJobSectionService(documentRepo, sectionRepo, itemRepo, userRepo, validate, logr)

	app.router = newRouter(cfg, logr, routeDeps{
		auth:        handler.NewAuthHandler(authSvc),
		documents:   handler.NewDocumentHandler(documentSvc),
		sections:    handler.NewJobSectionHandler(sectionSvc),
		items:       handler.NewItemJobSectionHandler(itemSvc),
		users:       handler.NewUserHandler(userSvc),
		metrics:     handler.NewMetricsHandler(metrics, db),
		metricsSvc:  metrics,
		tokenParser: authSvc,
		audit:       userRepo,
	})
	return app, nil
}

type routeDeps struct {
	auth        *handler.AuthHandler
	documents   *handler.DocumentHandler
	sections    *handler.JobSectionHandler
	items       *handler.ItemJobSectionHandler
	users       *handler.UserHandler
	metrics     *handler.MetricsHandler
	metricsSvc  *service.MetricsService
	tokenParser middleware.TokenValidator
	audit       middleware.AuditRecorder
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metricsSvc, "/health", "/ready", "/metrics"))

	r.GET("/health", deps.metrics.Health)
	r.GET("/ready", deps.metrics.Ready)
	r.GET("/metrics", deps.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.SanitizeJSON())

	auth := api.Group("/auth")
	auth.POST("/login", deps.auth.Login)
	auth.GET("/profile", middleware.JWT(deps.tokenParser), deps.auth.Profile)

	// Verification is reached from a QR scan and carries no token.
	verifyAudit := middleware.Audit(deps.audit, models.AuditActionDocumentVerify, "document", "slug")
	api.GET("/document/verify/:slug", verifyAudit, deps.documents.Verify)
	api.POST("/document/verify/:slug", verifyAudit, deps.documents.Verify)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.tokenParser))

	documents := secured.Group("/document")
	documents.POST("/create", deps.documents.Create)
	documents.GET("/list", deps.documents.List)
	documents.GET("/detail/:slug", deps.documents.Detail)
	documents.PATCH("/update/:id", deps.documents.Update)
	documents.PATCH("/update/general-info/:slug", deps.documents.UpdateGeneralInfo)
	documents.PATCH("/update/percentage/:slug", deps.documents.UpdatePercentage)
	documents.PATCH("/update/recapitulation-location/:slug", deps.documents.UpdateRecapitulationLocation)
	documents.PATCH("/submit/:slug", deps.documents.Submit)
	documents.PATCH("/approve/check/:slug", deps.documents.ApproveCheck)
	documents.PATCH("/approve/confirm/:slug", deps.documents.ApproveConfirm)
	documents.DELETE("/delete/:id", deps.documents.Delete)
	documents.GET("/download-pdf/:slug", middleware.Audit(deps.audit, models.AuditActionDocumentExport, "document", "slug"), deps.documents.DownloadPDF)
	documents.GET("/archive/:slug", deps.documents.DownloadArchive)

	sections := secured.Group("/job-section")
	sections.POST("/create", deps.sections.Create)
	sections.PATCH("/update/:id", deps.sections.Update)
	sections.DELETE("/delete/:id", deps.sections.Delete)

	items := secured.Group("/item-job-section")
	items.POST("/create", deps.items.Create)
	items.PATCH("/update/:id", deps.items.Update)
	items.DELETE("/delete/:id", deps.items.Delete)

	users := secured.Group("/users")
	users.PATCH("/update/:id", deps.users.Update)
	users.PATCH("/change-password/:id", deps.users.ChangePassword)

	admin := users.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/create", deps.users.Create)
	admin.GET("/list", deps.users.List)
	admin.PATCH("/reset-password/:id", deps.users.ResetPassword)
	admin.DELETE("/remove/:id", deps.users.Remove)

	return r
}
