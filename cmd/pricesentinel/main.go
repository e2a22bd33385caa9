package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"PriceSentinel/internal/cache"
	"PriceSentinel/internal/collector"
	"PriceSentinel/internal/config"
	"PriceSentinel/internal/notifier"
	"PriceSentinel/internal/pricing"
	"PriceSentinel/internal/recorder"
	"PriceSentinel/internal/scheduler"
	"PriceSentinel/internal/server"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger); err != nil {
		logger.Fatal("pricesentinel stopped with error", zap.Error(err))
	}
	logger.Info("PriceSentinel stopped")
}

func run(logger *zap.Logger) error {
	logger.Info("PriceSentinel starting...")

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "config validation")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var source collector.Source
	if cfg.Source.Kind == "http" {
		hs := collector.NewHTTPSource(cfg.Source.BaseURL, cfg.Source.APIKey, cfg.Proxy)
		hs.Client.Timeout = cfg.Source.Timeout
		source = hs
	} else {
		source = &collector.MockSource{BasePrice: cfg.Source.MockPrice}
	}
	logger.Info("data source", zap.String("source", source.Name()), zap.Int("products", len(cfg.Products)))

	rec, err := openRecorder(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rec.Close()

	c, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	var pm *pricing.Manager
	if cfg.Pricing.Enabled {
		pm, err = pricing.NewManager(cfg.Pricing.StateFile, cfg.PricingSeeds(), logger.Named("pricing"))
		if err != nil {
			return errors.Wrap(err, "init pricing manager")
		}
	}

	var tn *notifier.TelegramNotifier
	deps := scheduler.Deps{
		Collector: collector.NewCollector(source, logger.Named("collector")),
		Recorder:  rec,
		Cache:     c,
		Pricing:   pm,
		Products:  cfg.Products,
		Retention: cfg.Schedule.Retention,
	}
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger.Named("telegram"))
		deps.Notifier = tn
	} else {
		logger.Warn("telegram not configured, notifications disabled")
	}

	sched := scheduler.NewScheduler(ctx, deps, logger.Named("scheduler"))
	if err := sched.RegisterAll(cfg.Schedule.CollectCron, cfg.Schedule.DigestCron, cfg.Schedule.PruneCron); err != nil {
		return errors.Wrap(err, "register cron tasks")
	}

	srv := server.NewServer(cfg.Server.Addr, sched, rec, c, logger.Named("http"))
	srv.ShutdownTimeout = cfg.Server.ShutdownTimeout

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sched.Start()
		<-gctx.Done()
		sched.Stop()
		return nil
	})
	g.Go(func() error {
		return srv.Start(gctx)
	})
	if tn != nil {
		g.Go(func() error {
			return tn.StartPolling(gctx, sched.HandleCommand)
		})
	}
	if os.Getenv("RUN_ON_START") == "true" {
		logger.Info("RUN_ON_START enabled, collecting now")
		g.Go(func() error {
			sched.RunNow()
			return nil
		})
	}

	logger.Info("PriceSentinel is running. Press Ctrl+C to stop.")
	return g.Wait()
}

func openRecorder(ctx context.Context, cfg *config.Config, logger *zap.Logger) (recorder.Recorder, error) {
	l := logger.Named("recorder")
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return recorder.NewMemoryRecorder(), nil
	case config.DriverPostgres:
		r, err := recorder.NewPostgresRecorder(ctx, cfg.Store.PostgresDSN, l)
		return r, errors.Wrap(err, "init postgres recorder")
	case config.DriverWAL:
		r, err := recorder.NewWALRecorder(cfg.Store.WALDir)
		return r, errors.Wrap(err, "init wal recorder")
	default:
		r, err := recorder.NewSQLiteRecorder(cfg.Store.SQLitePath, l)
		if err != nil {
			l.Warn("init sqlite recorder failed, using memory", zap.Error(err))
			return recorder.NewMemoryRecorder(), nil
		}
		return r, nil
	}
}

func openCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Cache, error) {
	if cfg.Cache.Driver != config.CacheRedis {
		return cache.NewMemoryCache(cfg.Cache.TTL), nil
	}
	rc, err := cache.NewRedisCache(ctx, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB, cfg.Cache.TTL)
	if err != nil {
		logger.Warn("redis unavailable, using memory cache", zap.String("addr", cfg.Cache.Addr), zap.Error(err))
		return cache.NewMemoryCache(cfg.Cache.TTL), nil
	}
	return rc, nil
}
