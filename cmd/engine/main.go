package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"leadscout-engine/internal/browser"
	"leadscout-engine/internal/config"
	"leadscout-engine/internal/events"
	"leadscout-engine/internal/httpapi"
	"leadscout-engine/internal/logging"
	"leadscout-engine/internal/scheduler"
	"leadscout-engine/internal/scrape"
	"leadscout-engine/internal/scrape/util"
	"leadscout-engine/internal/store"
)

func main() {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	log := logging.NewWithService("engine")

	// Data dir: env wins (a desktop shell can pass one), else local folder.
	dataDir := os.Getenv("LEADSCOUT_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.WithError(err).Fatal("create data dir")
	}

	// One engine per data dir: a second instance would fight over the
	// sqlite file and the browser pool.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.WithError(err).Fatal("acquire data dir lock")
	}
	if !locked {
		log.Fatal("another engine instance already owns this data dir")
	}
	defer lock.Unlock()

	cfg := mustLoadConfig(log, dataDir)

	dbPath := filepath.Join(dataDir, "leadscout.db")
	db, err := store.Open(dbPath)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()
	if err := store.Migrate(db.Pool); err != nil {
		log.WithError(err).Fatal("migrate database")
	}

	hub := events.NewHub()

	runner := &scrape.Runner{
		Jobs: db,
		Browser: browser.Launcher{Cfg: browser.Config{
			Headless:    cfg.Scraper.Headless,
			ScrollPause: cfg.ScrollPause(),
		}},
		Collector: &scrape.Collector{
			Log:           log,
			SearchTimeout: cfg.SearchTimeout(),
			WaitTimeout:   cfg.PageTimeout(),
			StableRounds:  cfg.Scraper.ScrollStableRounds,
		},
		Pool: &scrape.Pool{
			Log:         log,
			Limiter:     util.NewHostLimiter(cfg.Scraper.NavRequestsPerSecond, 1),
			PageTimeout: cfg.PageTimeout(),
			Concurrency: cfg.Scraper.Concurrency,
		},
		Hub: hub,
		Log: log,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	handlers := httpapi.Handlers{
		DB:      db,
		Runner:  runner,
		Hub:     hub,
		Log:     log,
		BaseURL: "http://" + addr,
	}

	handler := httpapi.Cors(httpapi.Chain(
		httpapi.Routes(handlers),
		httpapi.RequestID,
		httpapi.Recover(log),
		httpapi.AccessLog(log),
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Purge finished jobs past the retention window once a day.
	go scheduler.Every(ctx, log, 24*time.Hour, "job-retention", func(context.Context) error {
		n, err := store.CleanupOldJobs(db.Pool, cfg.Retention.MaxAgeDays)
		if err != nil {
			return err
		}
		if n > 0 {
			log.WithField("deleted", n).Info("retention cleanup")
		}
		return nil
	})

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.WithError(err).Fatal("listen")
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	log.WithFields(logrus.Fields{"addr": addr, "db": dbPath}).Info("engine listening")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("serve")
	}

	// Let in-flight scrape jobs write their terminal state before exit.
	runner.Wait()
	log.Info("engine stopped")
}

func mustLoadConfig(log *logrus.Logger, dataDir string) config.Config {
	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.WithError(err).Fatal("config bootstrap failed")
	}

	cfg, err := config.Load(userCfgPath)
	if err != nil {
		log.WithError(err).WithField("path", userCfgPath).Fatal("config load failed")
	}

	cfg, v := config.NormalizeAndValidate(cfg)
	for _, warn := range v.Warnings {
		log.WithField("path", userCfgPath).Warn(warn)
	}
	if !v.OK() {
		for _, e := range v.Errors {
			log.WithField("path", userCfgPath).Error(e)
		}
		log.Fatal("config invalid")
	}
	return cfg
}
