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

	"github.com/cardhall/tournament-engine/brackets"
	"github.com/cardhall/tournament-engine/config"
	"github.com/cardhall/tournament-engine/db"
	"github.com/cardhall/tournament-engine/handlers"
	"github.com/cardhall/tournament-engine/repositories"
	api "github.com/cardhall/tournament-engine/routes"
	"github.com/cardhall/tournament-engine/services"
	"github.com/cardhall/tournament-engine/storage"
	"github.com/go-chi/chi/v5"
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
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Standings export is optional; without R2 credentials the engine just
	// skips the upload on tournament completion.
	var uploader storage.FileUploader
	if cfg.R2Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("R2 credentials not configured, standings export disabled")
	}

	wsHub := brackets.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	standingRepo := repositories.NewPostgresStandingRepository(dbConn)
	logger.Info("repositories initialized")

	authService := services.NewAuthService(userRepo)
	playerService := services.NewPlayerService(playerRepo)
	standingService := services.NewStandingService(dbConn, standingRepo, matchRepo, logger)
	bracketService := services.NewBracketService(matchRepo, standingRepo, logger)
	matchService := services.NewMatchService(
		dbConn,
		matchRepo,
		tournamentRepo,
		standingRepo,
		bracketService,
		standingService,
		wsHub,
		logger,
	)
	tournamentService := services.NewTournamentService(
		dbConn,
		tournamentRepo,
		playerRepo,
		matchRepo,
		standingRepo,
		bracketService,
		standingService,
		uploader,
		wsHub,
		logger,
	)
	logger.Info("services initialized")

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	playerHandler := handlers.NewPlayerHandler(playerService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	matchHandler := handlers.NewMatchHandler(matchService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		playerHandler,
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
		logger.Info("server stopped gracefully")
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
	logger.Info("application exited")
}
