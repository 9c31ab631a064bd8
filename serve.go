package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vitalmine-server/internal/assistant"
	"vitalmine-server/internal/cache"
	"vitalmine-server/internal/config"
	"vitalmine-server/internal/device"
	"vitalmine-server/internal/feed"
	"vitalmine-server/internal/handlers"
	"vitalmine-server/internal/logger"
	"vitalmine-server/internal/logreg"
	"vitalmine-server/internal/middleware"
	"vitalmine-server/internal/models"
	"vitalmine-server/internal/repository"
	"vitalmine-server/internal/risk"
	"vitalmine-server/internal/routes"
	"vitalmine-server/internal/service"
)

const (
	maxBodyBytes    = 1 << 20
	streamMaxLen    = 10000
	shutdownTimeout = 5 * time.Second
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the VitalMine API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "vitalmine-server")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	if envErr != nil {
		log.Debug("no .env file loaded", zap.Error(envErr))
	}

	db, err := models.InitDB(models.DatabaseConfig{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Debug:  cfg.Log.Level == "debug",
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	log.Info("database ready", zap.String("driver", cfg.Database.Driver), zap.String("host", cfg.Database.Host))

	users := repository.NewUserStore(db)
	tokens := repository.NewTokenStore(db)
	readings := repository.NewReadingStore(db)

	if cfg.SeedDemoUsers {
		if err := service.SeedDemoUsers(context.Background(), users, log); err != nil {
			return err
		}
	}

	policy := risk.NewPolicy(buildStrategy(cfg.Risk, log))

	hub := feed.NewHub(log)
	publishers := feed.Multi{hub}
	var status cache.StatusCache = cache.NewMemory()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis not reachable, cache and stream will retry per call", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		cancel()

		status = cache.NewRedis(rdb, cfg.Redis.StatusTTL)
		publishers = append(publishers, feed.NewRedisStream(rdb, feed.DefaultStream, streamMaxLen))
	}

	recorder := service.NewRecorder(readings, policy, log,
		service.WithStatusCache(status),
		service.WithPublisher(publishers),
	)
	trends := service.NewTrends(readings, users, status, cfg.Risk.TrendWindow, log)

	assistantClient := assistant.NewClient(assistant.Config{
		APIKey:  cfg.Assistant.APIKey,
		BaseURL: cfg.Assistant.BaseURL,
		Timeout: cfg.Assistant.Timeout,
	}, log)
	if cfg.Assistant.APIKey == "" {
		log.Warn("GEMINI_API_KEY not set, assistant will answer with an apology")
	}

	if cfg.MQTT.Broker != "" {
		mc, err := device.NewMQTTClient(device.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		}, log)
		if err != nil {
			log.Warn("device ingest disabled", zap.Error(err))
		} else {
			defer mc.Disconnect()
			if err := device.NewIngestor(users, recorder, log).Start(mc); err != nil {
				return fmt.Errorf("subscribe %s: %w", device.IngestTopic, err)
			}
			log.Info("device ingest started", zap.String("broker", cfg.MQTT.Broker), zap.String("topic", device.IngestTopic))
		}
	}

	router := setupRouter(cfg, log, routes.Dependencies{
		Users:     users,
		Tokens:    tokens,
		Readings:  readings,
		Recorder:  recorder,
		Trends:    trends,
		Assistant: assistant.NewService(assistantClient, log),
		Hub:       hub,
		DB:        handlers.GormPinger{DB: db},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	return waitForShutdown(srv, errCh, log)
}

// buildStrategy loads the statistical model when asked to. A missing or
// unreadable model leaves the rule strategy in charge.
func buildStrategy(cfg config.RiskConfig, log *zap.Logger) risk.Strategy {
	var predictor risk.Predictor
	if cfg.Strategy == risk.KindModel {
		m, err := logreg.Load(cfg.ModelPath)
		if err != nil {
			log.Warn("risk model not loaded", zap.String("path", cfg.ModelPath), zap.Error(err))
		} else {
			predictor = m
			log.Info("risk model loaded", zap.String("path", cfg.ModelPath))
		}
	}
	return risk.NewStrategy(cfg.Strategy, predictor, log)
}

func setupRouter(cfg *config.Config, log *zap.Logger, deps routes.Dependencies) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery(log), middleware.RequestLogger(log), middleware.LimitBodySize(maxBodyBytes))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, deps, cfg)
	return router
}

func waitForShutdown(srv *http.Server, errCh <-chan error, log *zap.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
