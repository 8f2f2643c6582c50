package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/smoothmove/internal/config"
	"github.com/iliyamo/smoothmove/internal/database"
	"github.com/iliyamo/smoothmove/internal/handler"
	"github.com/iliyamo/smoothmove/internal/logging"
	"github.com/iliyamo/smoothmove/internal/middleware"
	"github.com/iliyamo/smoothmove/internal/queue"
	"github.com/iliyamo/smoothmove/internal/repository"
	"github.com/iliyamo/smoothmove/internal/router"
	"github.com/iliyamo/smoothmove/internal/service"
)

func main() {
	config.LoadDotEnv()
	logger := logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Options{
		Driver:  cfg.DBDriver,
		User:    cfg.DBUser,
		Pass:    cfg.DBPass,
		Host:    cfg.DBHost,
		Port:    cfg.DBPort,
		Name:    cfg.DBName,
		Path:    cfg.DBPath,
		SSLMode: os.Getenv("DB_SSLMODE"),
	})
	if err != nil {
		logger.Error("database connection failed", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		logger.Error("schema setup failed", "error", err)
		os.Exit(1)
	}

	users := repository.NewUserRepo(db)
	props := repository.NewPropertyRepo(db)

	// Redis only backs the rate limiter; nil disables it.
	rdb := config.NewRedisClient(ctx)
	if rdb != nil {
		defer rdb.Close()
	}
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	var events service.Publisher = service.NopPublisher{}
	if ec := config.LoadEventsConfig(); ec.Enabled {
		events = service.NewAMQPPublisher(ec.URL, ec.Queue)
		consumer := queue.Consumer{URL: ec.URL, Queue: ec.Queue, LogDir: ec.LogDir}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("event consumer stopped", "error", err)
			}
		}()
		logger.Info("property events enabled", "queue", ec.Queue)
	}

	metrics := middleware.NewMetrics()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(metrics.Middleware())
	e.Use(middleware.RequestLogger(logger))

	router.RegisterRoutes(e, db.DB, metrics)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users), cfg.JWTSecret, limit)
	router.RegisterProperties(e, handler.NewPropertyHandler(props, events), cfg.JWTSecret, limit)

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env, "driver", db.Dialect.Name())
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
