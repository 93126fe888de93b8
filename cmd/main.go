package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linguamatch/backend/internal/api/handler"
	"linguamatch/backend/internal/config"
	"linguamatch/backend/internal/localization"
	"linguamatch/backend/internal/matchhub"
	"linguamatch/backend/internal/models"
	"linguamatch/backend/internal/storage"
	"linguamatch/backend/internal/telegram"
	"linguamatch/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect PostgreSQL", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		logger.Fatal("Failed to connect Redis", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.ChatRoom{},
	); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	logger.Info("Database and Redis connections established, migrations complete")
	return db, rdb
}

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file loaded", "error", err)
	}
	logger.Init()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", err)
	}

	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, rdb)

	localizer, err := localization.NewLocalizer("internal/localization")
	if err != nil {
		logger.Fatal("Failed to load translations", err)
	}
	logger.Info("Translations loaded", "languages", localizer.Languages())

	notifier, err := telegram.NewNotifier(cfg.BotToken, s, localizer)
	if err != nil {
		logger.Fatal("Failed to start Telegram notifier", err)
	}

	stream := matchhub.NewRequestStream(rdb, cfg.StreamName, cfg.StreamGroup, cfg.ConsumerName, cfg.StreamMaxLen)
	if err := stream.EnsureGroup(); err != nil {
		logger.Fatal("Failed to create stream consumer group", err)
	}

	tracker := matchhub.NewStatusTracker()
	engine := matchhub.NewEngine(s, tracker, notifier, cfg.RoomTTL)
	scheduler := matchhub.NewRedeliveryScheduler(stream, cfg.ProactiveDelay, matchhub.RelaxationPolicy{
		DatingAfter:  cfg.RelaxDatingAfter,
		TopicAfter:   cfg.RelaxTopicAfter,
		FluencyAfter: cfg.RelaxFluencyAfter,
	})
	worker := matchhub.NewWorker(stream, tracker, engine, scheduler, s, notifier, cfg.MaxWaitWindow)

	ctx, cancel := context.WithCancel(context.Background())
	go worker.Run(ctx)

	r := gin.Default()
	h := handler.NewHandler(s, stream, cfg.JWTSecret)

	r.GET("/anonid", h.GetAnonID)
	r.POST("/search", h.StartSearch)
	r.DELETE("/search", h.CancelSearch)
	r.GET("/queue/info", h.QueueInfo)
	r.GET("/ws/queue", h.WatchQueue)

	server := &http.Server{
		Addr:           ":" + cfg.AppPort,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("Shutting down")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("LinguaMatch backend listening", "port", cfg.AppPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("HTTP server failed", err)
	}
}
