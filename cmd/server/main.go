package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-gin-happenings/config"
	"go-gin-happenings/internal/cache"
	"go-gin-happenings/internal/database"
	"go-gin-happenings/internal/handler"
	"go-gin-happenings/internal/notify"
	"go-gin-happenings/internal/queue"
	"go-gin-happenings/internal/repository"
	"go-gin-happenings/internal/service"
	"go-gin-happenings/internal/worker"
	"go-gin-happenings/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	if err := logger.SetLevel(cfg.Server.LogLevel); err != nil {
		logger.L.Warn("invalid LOG_LEVEL, keep info", zap.String("level", cfg.Server.LogLevel), zap.Error(err))
	}
	defer logger.L.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(&cfg.Database); err != nil {
		logger.L.Fatal("Failed to migrate database", zap.Error(err))
	}

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		logger.L.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.L.Fatal("Failed to initialize redis", zap.Error(err))
	}
	defer rdb.Close()

	// repositories
	transactor := database.NewTransactor(pool)
	happeningRepo := repository.NewHappeningRepository(pool)
	factRepo := repository.NewFactRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	// 快取與畫面推送
	seatCounter := cache.NewRedisSeatCounterCache(rdb)
	notifier := notify.NewRedisNotifier(rdb)
	hub := notify.NewHub()
	go func() {
		if err := notifier.Relay(ctx, hub, notify.ChannelFacts); err != nil {
			logger.WithComponent("notify").Error("relay stopped", zap.Error(err))
		}
	}()

	// services
	happeningService := service.NewHappeningService(transactor, happeningRepo, factRepo, seatCounter, cfg.App.Location)
	counterService := service.NewCounterService(transactor, happeningRepo, factRepo, ticketRepo, seatCounter, notifier)

	// 售票流程透過隊列通知座位重算
	refreshQueue, err := newSeatRefreshQueue(cfg, rdb)
	if err != nil {
		logger.L.Fatal("Failed to initialize seat refresh queue", zap.Error(err))
	}
	if err := worker.NewSeatRefreshWorker(happeningService, counterService, refreshQueue).Start(ctx); err != nil {
		logger.L.Fatal("Failed to start seat refresh worker", zap.Error(err))
	}

	router := gin.Default()
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	handler.NewHappeningHandler(happeningService, counterService, refreshQueue, cfg.App.APIToken).RegisterRoutes(router)
	handler.NewStreamHandler(hub).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}
	// SSE 連線不會自行結束，Shutdown 時關閉 hub 讓它們返回
	srv.RegisterOnShutdown(hub.Close)

	go func() {
		logger.L.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.L.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L.Error("server shutdown", zap.Error(err))
	}
}

func newSeatRefreshQueue(cfg *config.Config, rdb *redis.Client) (queue.SeatRefreshQueue, error) {
	if cfg.App.SeatRefreshQueue == "memory" {
		return queue.NewMemorySeatRefreshQueue(1000), nil
	}
	hostname, _ := os.Hostname()
	return queue.NewRedisStreamSeatRefreshQueue(rdb, hostname, nil)
}
