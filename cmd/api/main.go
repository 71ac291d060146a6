package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-insights/internal/application"
	"storefront-insights/internal/application/webhook_handlers"
	apiinfra "storefront-insights/internal/infrastructure/api"
	"storefront-insights/internal/infrastructure/metrics"
	securitymiddleware "storefront-insights/internal/infrastructure/middleware"
	"storefront-insights/internal/infrastructure/redisstore"
	"storefront-insights/internal/infrastructure/repository"
	shopifyinfra "storefront-insights/internal/infrastructure/shopify"
	"storefront-insights/internal/retry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	mongoURI := envOr("MONGODB_URI", "mongodb://localhost:27017")
	mongoDatabase := envOr("MONGODB_DATABASE", "storefront_insights")
	redisURL := envOr("REDIS_URL", "redis://localhost:6379")
	appURL := envOr("APP_URL", "http://localhost:8080")
	dashboardURL := envOr("DASHBOARD_URL", "http://localhost:5173")

	shopifyAPIKey := os.Getenv("SHOPIFY_API_KEY")
	shopifyAPISecret := os.Getenv("SHOPIFY_API_SECRET")
	if shopifyAPIKey == "" || shopifyAPISecret == "" {
		logger.Fatal().Msg("SHOPIFY_API_KEY and SHOPIFY_API_SECRET environment variables are required")
	}
	// Shopify signs webhooks with the app secret unless a dedicated
	// webhook secret is configured.
	webhookSecret := envOr("SHOPIFY_WEBHOOK_SECRET", shopifyAPISecret)

	// Optional: without it the dashboard runs unauthenticated.
	authSecret := os.Getenv("AUTH_JWT_SECRET")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(context.Background())

	db := mongoClient.Database(mongoDatabase)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ensure MongoDB indexes")
	}

	// Connect to Redis
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid REDIS_URL")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	// Initialize repositories and stores
	storeRepo := repository.NewMongoStoreRepository(db)
	userRepo := repository.NewMongoUserRepository(db)
	customerRepo := repository.NewMongoCustomerRepository(db)
	orderRepo := repository.NewMongoOrderRepository(db)
	insightsRepo := repository.NewMongoInsightsRepository(db)
	stateStore := redisstore.NewOAuthStateStore(redisClient)
	statusStore := redisstore.NewSyncStatusStore(redisClient)

	// Initialize Shopify adapters
	commerceClient := shopifyinfra.NewClient(logger)
	oauthClient := shopifyinfra.NewOAuthClient(
		shopifyAPIKey,
		shopifyAPISecret,
		appURL+"/auth/callback",
		[]string{"read_orders", "read_customers"},
		logger,
	)
	verifier := shopifyinfra.NewWebhookVerifier(webhookSecret)

	m := metrics.Registry("storefront")
	retryConfig := retry.DefaultConfig()

	// Initialize application services
	storeService := application.NewStoreService(storeRepo, userRepo, oauthClient, stateStore, retryConfig, logger)
	syncService := application.NewSyncService(storeRepo, customerRepo, orderRepo, commerceClient, statusStore, m, retryConfig, logger)
	insightsService := application.NewInsightsService(storeRepo, insightsRepo, retryConfig, logger)

	// Initialize webhook dispatcher and register handlers
	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.Register(webhook_handlers.NewOrderHandler(customerRepo, orderRepo, retryConfig, logger))
	webhookDispatcher.Register(webhook_handlers.NewCustomerHandler(customerRepo, retryConfig, logger))

	// Setup router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	// OAuth routes
	r.Get("/auth/shopify", apiinfra.OAuthInitHandler(storeService, logger))
	r.Get("/auth/callback", apiinfra.OAuthCallbackHandler(storeService, dashboardURL, logger))

	// Webhook routes: signed by Shopify, never bearer-authenticated
	r.Post("/api/webhooks/shopify", apiinfra.WebhookHandler(storeService, webhookDispatcher, verifier, m, logger))
	r.Post("/api/webhooks/orders-create", apiinfra.OrdersCreateWebhookHandler(storeService, webhookDispatcher, verifier, m, logger))

	// Dashboard API
	r.Group(func(r chi.Router) {
		r.Use(securitymiddleware.Auth(authSecret, storeService.EnsureUser, logger))

		r.Post("/api/sync", apiinfra.SyncHandler(syncService, insightsService, logger))
		r.Get("/api/sync/status", apiinfra.SyncStatusHandler(syncService, insightsService, logger))
		r.Get("/api/stores", apiinfra.StoresHandler(storeService, logger))

		r.Get("/api/insights/totals", apiinfra.TotalsHandler(insightsService, logger))
		r.Get("/api/insights/orders-by-date", apiinfra.OrdersByDateHandler(insightsService, logger))
		r.Get("/api/insights/avg-revenue-by-date", apiinfra.AvgRevenueByDateHandler(insightsService, logger))
		r.Get("/api/insights/top-customers", apiinfra.TopCustomersHandler(insightsService, logger))
		r.Get("/api/insights/customer-orders", apiinfra.CustomerOrdersHandler(insightsService, logger))
		r.Get("/api/insights/current-month", apiinfra.CurrentMonthHandler(insightsService, logger))
	})

	port := envOr("PORT", "8080")
	server := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Info().Str("port", port).Msg("Starting API server")
		logger.Info().Msg("Swagger documentation available at http://localhost:" + port + "/swagger/index.html")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}
}
