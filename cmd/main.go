package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/courtside-club/courtside-server/brackets"
	"github.com/courtside-club/courtside-server/config"
	"github.com/courtside-club/courtside-server/db"
	"github.com/courtside-club/courtside-server/feed"
	"github.com/courtside-club/courtside-server/handlers"
	"github.com/courtside-club/courtside-server/repositories"
	api "github.com/courtside-club/courtside-server/routes"
	"github.com/courtside-club/courtside-server/services"
	"github.com/courtside-club/courtside-server/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	// Постеры опциональны: без R2 сервер работает, загрузка отключена.
	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewR2Uploader(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("R2 uploader initialized")
	} else {
		logger.Warn("R2 is not configured; poster upload disabled")
	}

	// Шина изменений и её websocket-мост. Трекер удалений атрибутирует
	// исходящие deleted-фреймы в момент доставки.
	bus := feed.NewBus()
	deletions := services.NewDeletionTracker()
	hub := feed.NewHub(bus, deletions, logger)
	go hub.Run()
	logger.Info("change feed hub started")

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	adminRepo := repositories.NewPostgresAdminRepository(dbConn)

	backend := services.NewBracketBackend(dbConn, tournamentRepo, participantRepo, matchRepo, logger)
	advisor := brackets.NewAdvisor()

	lifecycleService := services.NewLifecycleService(
		tournamentRepo, participantRepo, matchRepo,
		backend, advisor, deletions, bus, logger)
	matchService := services.NewMatchService(matchRepo, tournamentRepo, lifecycleService, bus, logger)
	tournamentService := services.NewTournamentService(tournamentRepo, participantRepo, matchRepo, uploader, logger)
	authService := services.NewAuthService(adminRepo, logger)
	logger.Info("services initialized")

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	tournamentHandler := handlers.NewTournamentHandler(lifecycleService, tournamentService)
	matchHandler := handlers.NewMatchHandler(matchService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.CORSAllowedOrigins,
		cfg.JWTSecretKey,
		authHandler,
		tournamentHandler,
		matchHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
