package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/username/moneydesk/backend/src/config"
	"github.com/username/moneydesk/backend/src/database"
	"github.com/username/moneydesk/backend/src/engine"
	"github.com/username/moneydesk/backend/src/handlers"
	"github.com/username/moneydesk/backend/src/logger"
	"github.com/username/moneydesk/backend/src/recon"
	"github.com/username/moneydesk/backend/src/security"
	"github.com/username/moneydesk/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

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
	logger.L.Info("MoneyDesk backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		stdlog.Fatal("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing filter engine...",
		"chunkSize", config.Cfg.FilterChunkSize,
		"workerThreshold", config.Cfg.FilterWorkerThreshold,
		"workers", config.Cfg.FilterWorkerCount)
	workerPool := engine.NewWorkerPool(config.Cfg.FilterWorkerCount)
	defer workerPool.Stop()
	evaluator := engine.NewEvaluator(config.Cfg.FilterChunkSize, config.Cfg.FilterWorkerThreshold, workerPool)

	reportCache := cache.New(config.Cfg.ReportCacheExpiry, services.CacheCleanupInterval)

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.AccessTokenExpiry)
	notifier := services.NewNotifier()
	progressHub := handlers.NewProgressHub()

	transferService := services.NewTransferService(
		evaluator,
		config.Cfg.FilterCacheTTL,
		config.Cfg.FilterCacheCapacity,
		reportCache,
		config.Cfg.ReportCacheExpiry,
		progressHub,
	)
	if err := transferService.LoadRecords(); err != nil {
		logger.L.Error("Failed to load transfer records", "error", err)
		stdlog.Fatalf("Failed to load transfer records: %v", err)
	}

	reconService := services.NewReconService(
		recon.ParserConfig{MoneyColumn: config.Cfg.ReconMoneyColumn},
		notifier,
	)

	txHandler := handlers.NewTransactionHandler(transferService)
	reconHandler := handlers.NewReconHandler(reconService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	withAuth := func(handler http.HandlerFunc) http.HandlerFunc {
		return handlers.AuthMiddleware(authService, handler)
	}

	apiRouter.HandleFunc("GET /api/transfers", withAuth(txHandler.HandleListTransfers))
	apiRouter.HandleFunc("POST /api/transfers", withAuth(txHandler.HandleCreateTransfer))
	apiRouter.HandleFunc("POST /api/transfers/filter", withAuth(txHandler.HandleFilterTransfers))
	apiRouter.HandleFunc("PUT /api/transfers/{id}", withAuth(txHandler.HandleUpdateTransfer))
	apiRouter.HandleFunc("PATCH /api/transfers/{id}/status", withAuth(txHandler.HandleSetTransferStatus))
	apiRouter.HandleFunc("DELETE /api/transfers/{id}", withAuth(txHandler.HandleDeleteTransfer))
	apiRouter.HandleFunc("GET /api/reports/daily-summary", withAuth(txHandler.HandleDailySummary))
	apiRouter.HandleFunc("POST /api/recon/preview", withAuth(reconHandler.HandlePreview))
	apiRouter.HandleFunc("POST /api/recon/settle", withAuth(reconHandler.HandleSettle))
	// WebSocket clients can't set an Authorization header from the browser API.
	apiRouter.HandleFunc("GET /api/transfers/filter/progress", progressHub.HandleProgressSocket)

	rootMux.Handle("/api/", apiRouter)
	rootMux.Handle("/metrics", promhttp.Handler())

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "MoneyDesk backend is running"})
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
