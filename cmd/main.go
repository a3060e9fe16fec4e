package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"detection-dashboard/internal/api"
	"detection-dashboard/internal/cache"
	"detection-dashboard/internal/config"
	"detection-dashboard/internal/gateway"
	"detection-dashboard/internal/logger"
	"detection-dashboard/internal/models"
	"detection-dashboard/internal/service"

	"github.com/go-redis/redis/v8"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
)

const version = "1.0.0"

type options struct {
	Config   string `short:"c" long:"config" description:"Path to YAML config file" env:"DASHBOARD_CONFIG"`
	Addr     string `short:"a" long:"addr" description:"HTTP listen address (overrides config)"`
	LogLevel string `short:"l" long:"log-level" description:"Log level: debug, info, warn, error (overrides config)"`
	Version  bool   `short:"v" long:"version" description:"Print version and exit"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Println("detection-dashboard", version)
		return
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if opts.Addr != "" {
		cfg.HTTP.Addr = opts.Addr
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	zlog, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "detection-dashboard")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zlog.Sync()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	client := gateway.NewClient(gateway.Options{
		BaseURL:      cfg.Backend.URL,
		ImageBaseURL: cfg.Backend.ImageBaseURL,
		UsersURL:     cfg.Users.URL,
		Institution:  cfg.Users.Institution,
		PhotoBaseURL: cfg.Users.PhotoBaseURL,
		Timeout:      cfg.Backend.Timeout,
		Retries:      cfg.Backend.Retries,
	}, zlog.Named("gateway"))

	var profiling []models.ProfilingRow
	if cfg.Profiling.File != "" {
		rows, err := config.LoadProfiling(cfg.Profiling.File)
		if err != nil {
			return fmt.Errorf("failed to load profiling rows: %w", err)
		}
		profiling = rows
	}

	// A nil *RedisClient must not become a non-nil service.Cache.
	var dashCache service.Cache
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Redis.RecentActions)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer redisClient.Close()
		dashCache = redisClient
	}

	dashboard := service.NewDashboard(client, dashCache, service.Options{
		HistoryPages: cfg.Backend.HistoryPages,
		MaxPages:     cfg.Dashboard.MaxPages,
		PageSize:     cfg.Dashboard.PageSize,
		WindowDays:   cfg.Dashboard.WindowDays,
		UsersTTL:     cfg.Users.CacheTTL,
		Profiling:    profiling,
	}, zlog.Named("dashboard"))

	// Initial load; failures leave empty snapshots and the server still starts.
	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Backend.Timeout+5*time.Second)
	if _, err := dashboard.RefreshCamera(ctx, 1); err != nil {
		zlog.Warn("Initial camera refresh failed", zap.Error(err))
	}
	if _, err := dashboard.RefreshHistory(ctx); err != nil {
		zlog.Warn("Initial history refresh failed", zap.Error(err))
	}
	cancel()

	server := api.NewServer(dashboard, zlog.Named("api"), version)
	return server.Run(cfg.HTTP.Addr)
}
