package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	json "github.com/goccy/go-json"

	"ogserve/config"
	"ogserve/database"
	"ogserve/imagecache"
	"ogserve/middlewares"
	"ogserve/profiles"
	"ogserve/render"
	"ogserve/routes"
	"ogserve/storage"
	"ogserve/tasks"
)

func main() {
	cfg := config.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.IsDevelopment() {
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	database.Connect(cfg)
	database.AutoMigrate()

	if err := storage.Init(context.Background(), cfg); err != nil {
		zlog.Fatal().Err(err).Msg("storage init failed")
	}

	tasks.Init(cfg.TaskWorkers, cfg.TaskQueueSize)
	imagecache.Init(cfg)

	render.Default = render.New(render.NewFetcher(cfg.FetchTimeout), func(key string) bool {
		return profiles.HasProSubscription(database.DB, key)
	})

	app := fiber.New(fiber.Config{
		AppName:      "ogserve",
		ErrorHandler: middlewares.ErrorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		BodyLimit:    cfg.BodyLimitBytes,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.AllowedOrigins}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
	}))

	routes.Register(app)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		zlog.Info().Msg("shutting down")
		_ = app.Shutdown()
	}()

	zlog.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		zlog.Fatal().Err(err).Msg("server stopped")
	}

	tasks.Default.Stop()
}
