package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/optionanalytics/internal/pricing/application"
	"github.com/wyfcoding/optionanalytics/internal/pricing/domain"
	"github.com/wyfcoding/optionanalytics/internal/pricing/infrastructure/messaging"
	redisrepo "github.com/wyfcoding/optionanalytics/internal/pricing/infrastructure/persistence/redis"
	httpserver "github.com/wyfcoding/optionanalytics/internal/pricing/interfaces/http"
	"github.com/wyfcoding/optionanalytics/pkg/cache"
	"github.com/wyfcoding/optionanalytics/pkg/config"
	"github.com/wyfcoding/optionanalytics/pkg/logger"
	"github.com/wyfcoding/optionanalytics/pkg/metrics"
	"github.com/wyfcoding/optionanalytics/pkg/middleware"
	"github.com/wyfcoding/optionanalytics/pkg/mq"
	"github.com/wyfcoding/optionanalytics/pkg/ratelimit"
	"golang.org/x/sync/errgroup"
)

var configPath = flag.String("config", "configs/pricing/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. Logger
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}
	slog.SetDefault(logger.Get())

	// 3. Metrics
	metricsImpl := metrics.New(cfg.ServiceName)

	// 4. Redis（可选）：报价缓存与分布式限流
	var (
		quoteCache domain.QuoteCache
		limiter    ratelimit.RateLimiter = ratelimit.NewLocalRateLimiter()
		redisCache *cache.RedisCache
	)
	if cfg.Redis.Enabled {
		redisCache, err = cache.New(cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ConnTimeout:  cfg.Redis.ConnTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			slog.Error("failed to init redis, quote cache disabled", "error", err)
		} else {
			quoteCache = redisrepo.NewQuoteRedisRepository(redisCache, time.Duration(cfg.Redis.TTL)*time.Second)
			limiter = ratelimit.NewRedisRateLimiter(redisCache.GetClient())
		}
	}

	// 5. Kafka（可选）
	var (
		publisher     domain.EventPublisher
		kafkaProducer *mq.KafkaProducer
	)
	if cfg.Kafka.Enabled {
		kafkaProducer, err = mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
			BatchTimeout: cfg.Kafka.BatchTimeout,
		})
		if err != nil {
			slog.Error("failed to init kafka producer, events disabled", "error", err)
		} else {
			publisher = messaging.NewKafkaEventPublisher(kafkaProducer, cfg.Kafka.Topic)
		}
	}

	// 6. Application
	pricingSvc := application.NewPricingService(quoteCache, publisher, metricsImpl, application.Config{
		TradingDays:          cfg.Pricing.TradingDays,
		SensitivityPoints:    cfg.Pricing.SensitivityPoints,
		MaxSensitivityPoints: cfg.Pricing.MaxSensitivityPoints,
		MaxSeriesLength:      cfg.Pricing.MaxSeriesLength,
		PublishTimeout:       time.Duration(cfg.Kafka.PublishTimeout) * time.Millisecond,
		MaxPendingEvents:     cfg.Kafka.MaxPendingEvents,
	})

	// 7. Interfaces
	if cfg.Environment != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		middleware.GinRecoveryMiddleware(),
		middleware.GinLoggingMiddleware(),
		middleware.GinCORSMiddleware(),
		middleware.GinMetricsMiddleware(metricsImpl),
		middleware.RateLimitMiddleware(limiter, cfg.RateLimit),
	)
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(metricsImpl.Handler()))
	}
	httpserver.NewPricingHandler(pricingSvc).RegisterRoutes(r)

	// 8. Start
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", server.Addr, "service", cfg.ServiceName, "version", cfg.Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down server...")
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownTimeout)*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}

	// 先等待在途事件，再关闭生产者
	pricingSvc.Close()
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			slog.Error("failed to close kafka producer", "error", err)
		}
	}
	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			slog.Error("failed to close redis", "error", err)
		}
	}
	slog.Info("server exited")
}
