package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/yndnr/sharded-go/internal/core/service"
	"github.com/yndnr/sharded-go/internal/infra/buildinfo"
	"github.com/yndnr/sharded-go/internal/infra/confloader"
	"github.com/yndnr/sharded-go/internal/infra/shutdown"
	"github.com/yndnr/sharded-go/internal/server/config"
	"github.com/yndnr/sharded-go/internal/server/httpserver"
	"github.com/yndnr/sharded-go/internal/server/httpserver/handler"
	"github.com/yndnr/sharded-go/internal/server/localserver"
	"github.com/yndnr/sharded-go/internal/server/redisserver"
	"github.com/yndnr/sharded-go/internal/storage"
	"github.com/yndnr/sharded-go/internal/telemetry/logger"
	"github.com/yndnr/sharded-go/internal/telemetry/metric"
)

const rateLimitSweep = time.Minute

func serve(ctx context.Context, configFile string, overrides map[string]any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, loader, err := config.Load(configFile, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	log.Info("starting shardkv",
		"version", buildinfo.Get().Version,
		"config", configFile,
		"settings", config.Sanitize(cfg))

	reg := metric.NewRegistry()
	shardOpts, err := shardOptions(cfg.Shards, reg.Observer("store"))
	if err != nil {
		return err
	}

	engine, err := storage.Open(ctx, badgerConfig(cfg.Storage), logger.Slog(log), shardOpts...)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	store := engine.Store()
	reg.MustRegister(metric.NewShardCollector("store", store))
	if cs := engine.Collectors(); len(cs) > 0 {
		reg.MustRegister(cs...)
	}

	var ready atomic.Bool
	kv := service.NewKVService(store,
		service.WithMaxValueLen(cfg.Limits.MaxValueBytes),
		service.WithLogger(log.With("component", "kv")))
	h := handler.New(handler.Config{
		KV:            kv,
		Storage:       storageStatus{engine},
		Logger:        log,
		MaxValueBytes: cfg.Limits.MaxValueBytes,
		Ready:         ready.Load,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var limiter *httpserver.RateLimiter
	if rl := cfg.Server.HTTP.RateLimit; rl.RPS > 0 {
		limiter = httpserver.NewRateLimiter(rl.RPS, rl.Burst)
		go limiter.Run(runCtx, rateLimitSweep)
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Handler:     h,
		Logger:      log,
		Metrics:     reg,
		RateLimiter: limiter,
		AdminToken:  cfg.Admin.Token,
	})
	srv := httpserver.New(httpserver.Options{
		Addr:         cfg.Server.HTTP.Addr,
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
	}, router)

	sh := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout)

	// Hooks run in reverse: stop taking requests, then close storage.
	sh.OnShutdown(func(context.Context) error {
		log.Info("closing storage")
		return engine.Close()
	})
	sh.OnShutdown(func(ctx context.Context) error {
		ready.Store(false)
		log.Info("shutting down HTTP server")
		return srv.Shutdown(ctx)
	})

	if addr := cfg.Server.RESP.Addr; addr != "" {
		rcfg := redisserver.Config{
			Addr:         addr,
			Password:     cfg.Server.RESP.Password,
			ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
			WriteTimeout: cfg.Server.HTTP.WriteTimeout,
			IdleTimeout:  cfg.Server.RESP.IdleTimeout,
			Metrics:      reg,
			Limits:       redisserver.DefaultLimits(),
		}
		rcfg.Limits.MaxBulk = redisserver.BulkLimit(cfg.Limits.MaxValueBytes)
		if limiter != nil {
			rcfg.Limiter = limiter
		}
		resp := redisserver.New(rcfg, kv, log)
		sh.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down RESP server")
			return resp.Shutdown(ctx)
		})
		go func() {
			if err := resp.ListenAndServe(); err != nil {
				log.Error("RESP server error", "error", err)
				sh.Trigger()
			}
		}()
	}

	if path := cfg.Server.ControlSocket; path != "" {
		ctl := localserver.New(path, localserver.NewHandler(kv, sh.Trigger), log)
		sh.OnShutdown(func(ctx context.Context) error {
			return ctl.Shutdown(ctx)
		})
		go func() {
			if err := ctl.ListenAndServe(); err != nil {
				log.Error("control socket error", "error", err)
			}
		}()
	}

	if loader.FilePath() != "" {
		stop, err := watchConfig(loader, log)
		if err != nil {
			log.Warn("config hot reload disabled", "error", err)
		} else {
			sh.OnShutdown(func(context.Context) error { return stop() })
		}
	}

	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTP.Addr, "tls", cfg.Server.HTTP.TLSCertFile != "")
		var err error
		if cfg.Server.HTTP.TLSCertFile != "" {
			err = srv.ListenAndServeTLS(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil {
			log.Error("HTTP server error", "error", err)
			sh.Trigger()
		}
	}()

	ready.Store(true)
	log.Info("server started", "keys", store.Len(), "shards", store.ShardCount(), "persistent", engine.Persistent())

	if err := sh.Wait(runCtx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}

func badgerConfig(cfg config.StorageSection) storage.BadgerConfig {
	bc := storage.DefaultBadgerConfig(cfg.DataDir)
	bc.InMemory = cfg.InMemory
	bc.SyncWrites = cfg.SyncWrites
	bc.GCInterval = cfg.GCInterval
	if cfg.CacheSize > 0 {
		bc.CacheSize = cfg.CacheSize
	}
	return bc
}

// watchConfig applies log level changes from the config file without a
// restart. Other settings need a restart.
func watchConfig(loader *confloader.Loader, log logger.Logger) (func() error, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(logger.Slog(log)))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(loader.FilePath()); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(path string) {
		cfg, err := config.Reload(loader)
		if err != nil {
			log.Warn("config reload rejected", "path", path, "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	w.StartAsync()
	return w.Stop, nil
}

// storageStatus adapts storage.Engine to handler.Storage.
type storageStatus struct {
	engine *storage.Engine
}

func (s storageStatus) Persistent() bool {
	return s.engine.Persistent()
}

func (s storageStatus) Backup(ctx context.Context, w io.Writer) error {
	return s.engine.Backup(ctx, w)
}

func (s storageStatus) Status() handler.StorageStatus {
	st := s.engine.Stats()
	return handler.StorageStatus{
		Persistent:   s.engine.Persistent(),
		LSMSize:      st.LSMSize,
		ValueLogSize: st.ValueLogSize,
		LastGC:       st.LastGC,
	}
}
