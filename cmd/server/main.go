package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auditapp "github.com/foodontracks/backend/internal/application/audit"
	catalogapp "github.com/foodontracks/backend/internal/application/catalog"
	deliveryapp "github.com/foodontracks/backend/internal/application/delivery"
	identityapp "github.com/foodontracks/backend/internal/application/identity"
	orderingapp "github.com/foodontracks/backend/internal/application/ordering"
	reviewapp "github.com/foodontracks/backend/internal/application/review"
	"github.com/foodontracks/backend/internal/infrastructure/auth"
	"github.com/foodontracks/backend/internal/infrastructure/cache"
	"github.com/foodontracks/backend/internal/infrastructure/config"
	"github.com/foodontracks/backend/internal/infrastructure/event"
	"github.com/foodontracks/backend/internal/infrastructure/logger"
	"github.com/foodontracks/backend/internal/infrastructure/persistence"
	"github.com/foodontracks/backend/internal/infrastructure/storage"
	"github.com/foodontracks/backend/internal/infrastructure/telemetry"
	"github.com/foodontracks/backend/internal/interfaces/http/handler"
	"github.com/foodontracks/backend/internal/interfaces/http/middleware"
	"github.com/foodontracks/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/foodontracks/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			FoodONtracks API
//	@version		1.0
//	@description	Food delivery backend: restaurants, menus, orders with atomic stock reservation, delivery batches and public tracking.

//	@contact.name	FoodONtracks Team
//	@contact.url	https://github.com/foodontracks/backend

//	@license.name	MIT

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}". The accessToken cookie is accepted as well.

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, version, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	// Rebuild the logger so entries are exported over OTLP as well
	if cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled {
		if log, err = logger.New(cfg.Log, logger.WithCore(tel.ZapCore(logger.ParseLevel(cfg.Log.Level)))); err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting FoodONtracks backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.Open(ctx, cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver))

	if cfg.Telemetry.Enabled {
		dbInst, err := telemetry.InstrumentDB(db.DB, cfg.Telemetry, tel.Meter(), log)
		if err != nil {
			log.Fatal("Failed to instrument database", zap.Error(err))
		}
		defer func() {
			_ = dbInst.Close()
		}()
	}

	metrics, err := telemetry.NewDeliveryMetrics(tel.Meter())
	if err != nil {
		log.Fatal("Failed to create delivery metrics", zap.Error(err))
	}

	// Redis backs the token revocations, idempotency keys, menu cache and
	// rate limiter. Without it every store falls back to process memory.
	stores, err := cache.NewFactory(ctx, cfg.Redis,
		cache.WithLogger(log.Named("cache")),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	)
	if err != nil {
		log.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()

	revocations := newRevocationStore(stores)
	catalogCache := stores.CatalogCache(cfg.Cache)
	defer catalogCache.Close()
	idempotency := stores.IdempotencyStore()
	defer func() {
		_ = idempotency.Close()
	}()

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	restaurantRepo := persistence.NewGormRestaurantRepository(db.DB)
	menuItemRepo := persistence.NewGormMenuItemRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	batchRepo := persistence.NewGormBatchRepository(db.DB)
	reviewRepo := persistence.NewGormReviewRepository(db.DB)
	auditRepo := persistence.NewGormStatusAuditRepository(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)

	// Event bus: status audit rows are written after every committed transition
	eventBus := event.NewInMemoryEventBus(log.Named("events"))
	recorder := auditapp.NewRecorder(auditRepo, log)
	recorder.SetMetrics(metrics)
	eventBus.Subscribe(event.Deduplicate(recorder, idempotency, log, event.WithKeyPrefix("event:audit:")))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, revocations, log)
	authService.SetEventPublisher(eventBus)
	userService := identityapp.NewUserService(userRepo, revocations, cfg.JWT.RefreshTokenExpiration, log)

	restaurantService := catalogapp.NewRestaurantService(restaurantRepo, scope, log)
	restaurantService.SetCache(catalogCache)
	menuService := catalogapp.NewMenuService(restaurantRepo, menuItemRepo, log)
	menuService.SetCache(catalogCache)
	imageStorage, err := newImageStorage(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	menuService.SetImageStorage(imageStorage, catalogapp.ImageConfig{
		MaxUploadSize:  cfg.Storage.MaxUploadSize,
		UploadExpiry:   cfg.Storage.PresignExpiration,
		DownloadExpiry: catalogapp.DefaultImageConfig().DownloadExpiry,
	})

	placementService := orderingapp.NewPlacementService(scope, orderingapp.PlacementConfig{
		AllowFailureInjection: cfg.Ordering.AllowFailureInjection,
		IdempotencyTTL:        orderingapp.DefaultIdempotencyTTL,
	}, log)
	placementService.SetIdempotencyStore(idempotency)
	placementService.SetEventPublisher(eventBus)
	placementService.SetMenuInvalidator(catalogCache)
	placementService.SetMetrics(metrics)
	if cfg.Ordering.AllowFailureInjection {
		log.Warn("Order failure injection is enabled")
	}

	statusService := orderingapp.NewStatusService(scope, log)
	statusService.SetEventPublisher(eventBus)
	statusService.SetMenuInvalidator(catalogCache)
	statusService.SetMetrics(metrics)

	claimService := orderingapp.NewClaimService(scope, log)
	claimService.SetEventPublisher(eventBus)
	claimService.SetMetrics(metrics)

	orderQueries := orderingapp.NewQueryService(orderRepo, paymentRepo)

	batchService := deliveryapp.NewBatchService(scope, batchRepo, log)
	batchService.SetEventPublisher(eventBus)
	batchService.SetMetrics(metrics)

	reviewService := reviewapp.NewReviewService(scope, reviewRepo, restaurantRepo, log)
	reviewService.SetCacheInvalidator(catalogCache)

	auditQueries := auditapp.NewQueryService(auditRepo)

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: request id first so that every later layer can log it
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled)...)
	engine.Use(logger.RequestLogger(log, logger.WithQuietRoutes("/health", "/health/ready")))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		Meter:   tel.Meter(),
		Enabled: cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		Logger:  log,
	}))
	if cfg.Telemetry.ProfilingEnabled {
		engine.Use(middleware.Profiling())
	}
	engine.Use(middleware.SecureWithConfig(middleware.SecurityConfigFor(cfg.Cookie.Secure)))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	healthHandler := handler.NewHealthHandler(version, map[string]handler.Pinger{
		"database": db,
		"redis":    stores,
	}, log)
	engine.GET("/health", healthHandler.Health)
	engine.GET("/health/ready", healthHandler.Ready)

	authenticate := middleware.Authenticate(middleware.AuthConfig{
		Tokens:      jwtService,
		Revocations: revocations,
		Logger:      log.Named("auth"),
	})

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger, authenticate),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	var credentialLimit gin.HandlerFunc
	if cfg.HTTP.AuthRateLimitEnabled {
		credentialLimit = middleware.AuthRateLimit(newLimiter(stores, "ratelimit:auth:", cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow))
	}

	handlers := router.Handlers{
		Auth:        handler.NewAuthHandler(authService, cfg.Cookie),
		Users:       handler.NewUserHandler(userService),
		Restaurants: handler.NewRestaurantHandler(restaurantService),
		Menu:        handler.NewMenuHandler(menuService),
		Orders:      handler.NewOrderHandler(placementService, statusService, claimService, orderQueries),
		Reviews:     handler.NewReviewHandler(reviewService),
		Batches:     handler.NewBatchHandler(batchService),
		Audit:       handler.NewAuditHandler(auditQueries),
	}

	api := router.New(engine, router.WithAPIVersion("v1"))
	if cfg.HTTP.RequestTimeout > 0 {
		api.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))
	}
	var requestLimit gin.HandlerFunc
	if cfg.HTTP.RateLimitEnabled {
		requestLimit = middleware.RateLimit(newLimiter(stores, "ratelimit:api:", cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	groups := api.Mount(handlers.Routes(), router.APIConfig{
		Authenticate:    authenticate,
		CredentialLimit: credentialLimit,
		RequestLimit:    requestLimit,
		Logger:          log,
	})
	for _, g := range groups {
		log.Debug("Route group mounted", zap.String("group", g.Name), zap.Int("routes", g.Routes))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownTimeout := cfg.App.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}

func newRevocationStore(stores *cache.Factory) auth.RevocationStore {
	if client := stores.Client(); client != nil {
		return auth.NewRedisRevocationStore(client)
	}
	return auth.NewMemoryRevocationStore()
}

func newLimiter(stores *cache.Factory, prefix string, limit int, window time.Duration) middleware.Limiter {
	if client := stores.Client(); client != nil {
		return middleware.NewRedisRateLimiter(client, prefix, limit, window)
	}
	return middleware.NewRateLimiter(limit, window)
}

// newImageStorage returns S3 storage when configured, otherwise placeholder
// URLs
func newImageStorage(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (catalogapp.ImageStorage, error) {
	if !cfg.Enabled {
		log.Info("Object storage disabled, menu image URLs are placeholders")
		return storage.NewPlaceholderStorage(""), nil
	}
	s3, err := storage.NewS3Storage(ctx, cfg, storage.WithLogger(log.Named("storage")))
	if err != nil {
		return nil, err
	}
	if cfg.CreateBucket {
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, err
		}
	}
	log.Info("Object storage ready", zap.String("bucket", s3.Bucket()))
	return s3, nil
}
