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

	"github.com/Dosada05/prediction-pool/config"
	"github.com/Dosada05/prediction-pool/db"
	"github.com/Dosada05/prediction-pool/engine"
	"github.com/Dosada05/prediction-pool/handlers"
	"github.com/Dosada05/prediction-pool/live"
	"github.com/Dosada05/prediction-pool/repositories"
	api "github.com/Dosada05/prediction-pool/routes"
	"github.com/Dosada05/prediction-pool/services"
	"github.com/Dosada05/prediction-pool/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

// groupLetterSource адаптирует репозиторий групп к движку сетки; резолвер
// мемоизирует ответы, так что обращения к БД единичны.
type groupLetterSource struct {
	repo repositories.GroupRepository
}

func (s groupLetterSource) GroupLetter(groupID int) (string, error) {
	return s.repo.GetLetter(context.Background(), groupID)
}

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, db.Pool{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}, 5*time.Second)
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

	// Инициализация загрузчика файлов (Cloudflare R2)
	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
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

	// Инициализация WebSocket Hub
	wsHub := live.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	poolRepo := repositories.NewPostgresPoolRepository(dbConn)
	groupRepo := repositories.NewPostgresGroupRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	predictionRepo := repositories.NewPostgresPredictionRepository(dbConn)
	matchPredRepo := repositories.NewPostgresMatchPredictionRepository(dbConn)
	standingRepo := repositories.NewPostgresGroupStandingRepository(dbConn)
	thirdsRepo := repositories.NewPostgresBestThirdPlaceRepository(dbConn)
	logger.Info("Repositories initialized")

	// Резолвер сетки плей-офф
	resolver := engine.NewBracketResolver(engine.DefaultAllocationTable, groupLetterSource{repo: groupRepo})

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo)
	emailService := services.NewEmailService(cfg)
	userService := services.NewUserService(userRepo, cloudflareUploader)
	poolService := services.NewPoolService(poolRepo, cloudflareUploader)
	rosterService := services.NewRosterService(groupRepo, teamRepo, matchRepo, cloudflareUploader)
	predictionService := services.NewPredictionService(
		dbConn,
		poolRepo,
		groupRepo,
		teamRepo,
		matchRepo,
		predictionRepo,
		matchPredRepo,
		standingRepo,
		thirdsRepo,
	)
	bracketService := services.NewBracketService(
		poolRepo,
		matchRepo,
		teamRepo,
		predictionRepo,
		standingRepo,
		thirdsRepo,
		resolver,
	)
	knockoutService := services.NewKnockoutService(
		dbConn,
		poolRepo,
		matchRepo,
		predictionRepo,
		matchPredRepo,
		bracketService,
	)
	logger.Info("Services initialized")

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService, emailService, cfg.JWTSecretKey)
	userHandler := handlers.NewUserHandler(userService)
	poolHandler := handlers.NewPoolHandler(poolService)
	rosterHandler := handlers.NewRosterHandler(rosterService)
	predictionHandler := handlers.NewPredictionHandler(predictionService, wsHub)
	knockoutHandler := handlers.NewKnockoutHandler(knockoutService, wsHub)
	bracketHandler := handlers.NewBracketHandler(bracketService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		userHandler,
		poolHandler,
		rosterHandler,
		predictionHandler,
		knockoutHandler,
		bracketHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
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

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
