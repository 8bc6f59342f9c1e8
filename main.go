package main

import (
	"context"
	"log/slog"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"math-log-server/config"
	"math-log-server/handlers"
	"math-log-server/services"
)

// @title Math Microservice API
// @version 1.0
// @description Power, Fibonacci and factorial with a persisted request log
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Log)

	// Initialize services
	dbService, err := services.NewDBService(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to connect to database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}

	// Initialize database schema
	if err := dbService.InitSchema(context.Background()); err != nil {
		logger.Error("failed to initialize database schema", "error", err)
		os.Exit(1)
	}
	logger.Info("database schema initialized", "driver", cfg.Database.Driver)

	var (
		publisher     services.Publisher = services.NopPublisher{}
		streamService *services.StreamService
		streamPinger  handlers.Pinger
	)
	if cfg.Stream.Enabled {
		redisClient := services.NewRedisClient(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		streamService = services.NewStreamService(redisClient, cfg.Stream.Name)
		publisher = streamService
		streamPinger = streamService

		// An unreachable stream is only worth a warning
		if err := streamService.Ping(context.Background()); err != nil {
			logger.Warn("stream unavailable at startup, events will be dropped until it recovers",
				"addr", cfg.Redis.Addr(), "error", err)
		}
	}

	storageService, err := services.NewStorageService(cfg.Storage.Type, cfg.Storage.Path)
	if err != nil {
		logger.Error("failed to initialize storage service", "error", err)
		os.Exit(1)
	}
	logger.Info("storage service initialized", "type", cfg.Storage.Type, "path", cfg.Storage.Path)

	mathService := services.NewMathService(cfg.Math.MaxN)
	operationLogger := services.NewOperationLogger(dbService, publisher, cfg.Stream.PublishTimeout)
	exportService := services.NewExportService(dbService, storageService)

	var exportRunner *services.ExportRunner
	if cfg.Export.Interval > 0 {
		exportRunner = services.NewExportRunner(exportService, cfg.Export.Interval)
		exportRunner.Start()
		logger.Info("periodic export enabled", "interval", cfg.Export.Interval)
	}

	// Fiber App
	app := handlers.NewApp(handlers.AppOptions{
		AppName:     cfg.Server.AppName,
		AccessLog:   true,
		XRay:        cfg.XRay.Enabled,
		SegmentName: cfg.XRay.SegmentName,
	})
	handlers.SetupRoutes(app,
		handlers.NewMathHandler(mathService, operationLogger),
		handlers.NewLogHandler(operationLogger, exportService),
		handlers.NewHealthHandler(dbService, streamPinger),
	)

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logger.Error("server stopped", "error", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"server": func(ctx context.Context) error {
				logger.Info("graceful shutdown initiated")
				if err := app.ShutdownWithContext(ctx); err != nil {
					logger.Error("http shutdown failed", "error", err)
				}
				if exportRunner != nil {
					exportRunner.Stop()
				}
				operationLogger.Close()
				if streamService != nil {
					if err := streamService.Close(); err != nil {
						logger.Warn("failed to close stream client", "error", err)
					}
				}
				return dbService.Close()
			},
		},
	)

	exitCode := <-wait
	logger.Info("application exited", "code", exitCode)
	os.Exit(exitCode)
}
