package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careloop/careops-dashboard/internal/adapters/cache"
	"github.com/careloop/careops-dashboard/internal/adapters/database"
	"github.com/careloop/careops-dashboard/internal/adapters/events"
	"github.com/careloop/careops-dashboard/internal/adapters/search"
	"github.com/careloop/careops-dashboard/internal/api/handlers"
	"github.com/careloop/careops-dashboard/internal/api/middleware"
	"github.com/careloop/careops-dashboard/internal/api/routes"
	"github.com/careloop/careops-dashboard/internal/application/services"
	"github.com/careloop/careops-dashboard/internal/domain/providers"
	"github.com/careloop/careops-dashboard/internal/domain/repositories"
	"github.com/careloop/careops-dashboard/internal/infrastructure/clients/postgres"
	"github.com/careloop/careops-dashboard/internal/infrastructure/clients/redis"
	"github.com/careloop/careops-dashboard/internal/infrastructure/clients/typesense"
	"github.com/careloop/careops-dashboard/internal/infrastructure/observability"
	"github.com/careloop/careops-dashboard/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client (optional, the API works without caching)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis client: %v", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Println("Redis client initialized successfully")
		}
	}

	// Initialize Typesense client (optional, search degrades gracefully)
	var typesenseClient *typesense.Client
	if cfg.Typesense.Enabled {
		typesenseClient, err = typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Printf("Warning: Failed to initialize Typesense client: %v", err)
			typesenseClient = nil
		} else {
			log.Println("Typesense client initialized successfully")
		}
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Create base patient adapter, wrapped with caching if Redis is available
	basePatientAdapter := database.NewPatientAdapter(pgClient)
	var patientRepo repositories.PatientRepository
	if cacheProvider != nil {
		patientRepo = database.NewCachedPatientAdapter(basePatientAdapter, cacheProvider)
		log.Println("Patient adapter wrapped with caching layer")
	} else {
		patientRepo = basePatientAdapter
		log.Println("Patient adapter running without cache (Redis unavailable)")
	}

	providerRepo := database.NewProviderAdapter(pgClient)

	var searchRepo repositories.PatientSearchRepository
	if typesenseClient != nil {
		adapter := search.NewTypesenseAdapter(typesenseClient)
		// Ensure schema exists
		if err := adapter.InitSchema(context.Background()); err != nil {
			log.Printf("Warning: Failed to init Typesense schema: %v", err)
		}
		searchRepo = adapter
	}

	// Initialize event bus for cache invalidation fan-out
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		log.Println("Event bus disabled (Redis not available)")
	}

	// Initialize services
	scoringService := services.NewRiskScoringService()
	patientService := services.NewPatientService(patientRepo, searchRepo, scoringService)
	patientService.SetMetrics(metrics)

	if eventBus != nil {
		patientService.SetEventBus(eventBus)
		log.Println("Event bus configured for patient service")
	}

	// Initialize cache invalidation service
	var cacheInvalidationService *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		cacheInvalidationService = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := cacheInvalidationService.Start(); err != nil {
			log.Printf("Warning: Failed to start cache invalidation service: %v", err)
		} else {
			log.Println("Cache invalidation service started successfully")
		}
	}

	// Initialize handlers
	patientHandler := handlers.NewPatientHandler(patientService)
	providerHandler := handlers.NewProviderHandler(providerRepo)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		log.Println("Cache middleware initialized successfully")
	}

	// Set up router
	router := routes.NewRouter(
		patientHandler,
		providerHandler,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	// Stop cache invalidation service
	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}

	log.Println("Server stopped")
}
