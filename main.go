package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/wealthfolio/backend/src/config"
	"github.com/username/wealthfolio/backend/src/database"
	"github.com/username/wealthfolio/backend/src/dedup"
	"github.com/username/wealthfolio/backend/src/handlers"
	"github.com/username/wealthfolio/backend/src/logger"
	"github.com/username/wealthfolio/backend/src/security"
	"github.com/username/wealthfolio/backend/src/services"
	"github.com/username/wealthfolio/backend/src/storage"
	"golang.org/x/time/rate"
)

var limiter *rate.Limiter

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Wealthfolio backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}

	limiter = rate.NewLimiter(rate.Limit(config.Cfg.RateLimitPerSecond), config.Cfg.RateLimitBurst)

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing candidate cache...")
	candidateCache := cache.New(15*time.Minute, 30*time.Minute)

	logger.L.Info("Loading duplicate detection configuration...")
	dedupCfg, err := dedup.ConfigFromEnv()
	if err != nil {
		logger.L.Error("Invalid duplicate detection configuration", "error", err)
		os.Exit(1)
	}

	logger.L.Info("Initializing services and handlers...")
	recordStore := storage.NewEmailRecordStore(database.DB)
	reviewStore := storage.NewReviewStore(database.DB)
	transactionStore := storage.NewTransactionStore(database.DB)
	cachedRecords := services.NewCachedRecordStore(recordStore, candidateCache)

	detector, err := dedup.NewDetector(cachedRecords, dedupCfg)
	if err != nil {
		logger.L.Error("Failed to initialize duplicate detector", "error", err)
		os.Exit(1)
	}

	authService := security.NewAuthService(config.Cfg.JWTSecret)
	emailService := services.NewEmailService()
	ingestionService := services.NewIngestionService(
		detector, recordStore, reviewStore, transactionStore,
		cachedRecords, emailService,
		config.Cfg.ReviewNotifyEmail, config.Cfg.MaxEmailSizeBytes,
	)

	userHandler := handlers.NewUserHandler(authService)
	emailHandler := handlers.NewEmailHandler(ingestionService)
	reviewHandler := handlers.NewReviewHandler(ingestionService)
	txHandler := handlers.NewTransactionHandler(ingestionService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/auth/register", userHandler.RegisterUserHandler)
	apiRouter.HandleFunc("POST /api/auth/login", userHandler.LoginUserHandler)

	apiRouter.Handle("POST /api/emails/process", userHandler.AuthMiddleware(emailHandler.HandleProcessEmail))
	apiRouter.Handle("GET /api/emails", userHandler.AuthMiddleware(emailHandler.HandleListEmails))
	apiRouter.Handle("GET /api/review", userHandler.AuthMiddleware(reviewHandler.HandleListReviews))
	apiRouter.Handle("POST /api/review/{id}/resolve", userHandler.AuthMiddleware(reviewHandler.HandleResolveReview))
	apiRouter.Handle("GET /api/transactions", userHandler.AuthMiddleware(txHandler.HandleGetTransactions))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "WEALTHFOLIO Backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
