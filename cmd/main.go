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

	"github.com/Dosada05/tournament-lifecycle/brackets"
	"github.com/Dosada05/tournament-lifecycle/config"
	"github.com/Dosada05/tournament-lifecycle/db"
	"github.com/Dosada05/tournament-lifecycle/events"
	"github.com/Dosada05/tournament-lifecycle/handlers"
	"github.com/Dosada05/tournament-lifecycle/middleware"
	"github.com/Dosada05/tournament-lifecycle/repositories"
	api "github.com/Dosada05/tournament-lifecycle/routes"
	"github.com/Dosada05/tournament-lifecycle/services"
	"github.com/Dosada05/tournament-lifecycle/storage"
	"github.com/go-chi/chi/v5"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, cfg.DatabaseTimeout, logger)
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
	if err := db.Migrate(ctx, dbConn); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database connection established")

	store := repositories.NewPostgresStore(dbConn, logger)

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	// Инициализация архива результатов (Cloudflare R2), опционально
	var objects storage.ObjectStorage
	r2Config := storage.R2Config{
		AccountID:       cfg.R2.AccountID,
		AccessKeyID:     cfg.R2.AccessKeyID,
		SecretAccessKey: cfg.R2.SecretAccessKey,
		BucketName:      cfg.R2.BucketName,
		PublicBaseURL:   cfg.R2.PublicBaseURL,
	}
	if r2Config.Enabled() {
		objects, err = storage.NewR2Storage(ctx, r2Config)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 storage", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 storage initialized", slog.String("bucket", cfg.R2.BucketName))
	} else {
		logger.Warn("R2 is not configured, result archive disabled")
	}
	archiveService := services.NewArchiveService(store, objects, logger)

	// Публикация событий: websocket-комнаты, NATS (если настроен), архив
	publishers := []events.Publisher{wsHub, archiveService}
	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL)
		if err != nil {
			logger.Error("failed to connect to NATS", slog.Any("error", err))
			os.Exit(1)
		}
		defer nc.Drain()
		publishers = append(publishers, events.NewNATSPublisher(nc, cfg.NATSSubjectPrefix, logger))
		logger.Info("NATS publisher connected", slog.String("prefix", cfg.NATSSubjectPrefix))
	}
	publisher := events.Multi(publishers...)

	// Инициализация сервисов
	matchService := services.NewMatchService(store, brackets.NewRoundRobinGenerator(), publisher, logger)
	tournamentService := services.NewTournamentService(store, matchService, publisher, logger)
	userService := services.NewUserService(store)
	logger.Info("Services initialized")

	if objects != nil {
		scheduler, err := services.StartArchiveScheduler(archiveService, cfg.ArchiveInterval, logger)
		if err != nil {
			logger.Error("failed to start archive scheduler", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				logger.Error("failed to stop archive scheduler", slog.Any("error", err))
			}
		}()
		logger.Info("archive scheduler started", slog.Duration("interval", cfg.ArchiveInterval))
	}

	// Инициализация обработчиков HTTP
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, archiveService)
	matchHandler := handlers.NewMatchHandler(matchService, tournamentService)
	userHandler := handlers.NewUserHandler(userService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, tournamentService, cfg.CORSAllowedOrigins, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Authenticate:   middleware.Authenticate(cfg.JWTSecretKey, store.Users(), logger),
		},
		tournamentHandler,
		matchHandler,
		userHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	// WriteTimeout не задан: websocket-соединения долгоживущие, обычные запросы
	// ограничены middleware.Timeout.
	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
		ErrorLog:    slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
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
