package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm"

	"bakeline/internal/config"
	"bakeline/internal/db"
	"bakeline/internal/db/mock"
	"bakeline/internal/inventory"
	applog "bakeline/internal/log"
	"bakeline/internal/production"
	"bakeline/internal/server"
	"bakeline/models"
)

type serverLifecycle interface {
	Start() error
	Stop() error
}

var (
	loadConfigFunc       = config.Load
	setLogLevelFunc      = applog.SetLevel
	newMockDatabaseFunc  = mock.New
	configureDatabase    = db.Configure
	closeDatabase        = db.Close
	newServerFunc        = defaultNewServer
	subscribeShutdownSig = defaultSubscribeShutdownSignal
)

func defaultNewServer(cfg server.Config) (serverLifecycle, error) {
	return server.New(cfg)
}

func defaultSubscribeShutdownSignal() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
	return ch, func() { signal.Stop(ch) }
}

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}

	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "level", cfg.Logging.Level, "error", err)
		return 1
	}
	if err := applog.SetFormat(cfg.Logging.Format); err != nil {
		applog.Error(ctx, "invalid log format", "format", cfg.Logging.Format, "error", err)
		return 1
	}

	var database *gorm.DB
	if cfg.Database.UseMock {
		applog.Info(ctx, "using in-memory mock database")
		database, err = newMockDatabaseFunc(ctx)
		if err != nil {
			applog.Error(ctx, "failed to initialise mock database", "error", err)
			return 1
		}
	} else {
		database, err = configureDatabase(cfg.Database)
		if err != nil {
			applog.Error(ctx, "failed to configure database", "error", err)
			return 1
		}
		defer func() {
			if err := closeDatabase(database); err != nil {
				applog.Warn(ctx, "failed to close database", "error", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Production.LowStockPollInterval > 0 {
		monitor := inventory.NewMonitor(inventory.NewLedger(database), cfg.Production.LowStockPollInterval)
		monitor.OnAlert(func(ctx context.Context, low []models.Ingredient) {
			applog.Info(ctx, "low stock alert raised", "ingredients", len(low))
		})
		go monitor.Run(ctx)
	}

	srv, err := newServerFunc(server.Config{
		Addr: cfg.Server.Addr,
		Session: server.SessionConfig{
			Lifetime:     cfg.Auth.Session.Lifetime,
			CookieName:   cfg.Auth.Session.CookieName,
			CookieDomain: cfg.Auth.Session.CookieDomain,
			CookieSecure: cfg.Auth.Session.CookieSecure,
		},
		Database: database,
		Production: production.Options{
			RecheckOnStart: cfg.Production.RecheckOnStart,
			BatchPrefix:    cfg.Production.BatchPrefix,
		},
	})
	if err != nil {
		applog.Error(ctx, "failed to build server", "error", err)
		return 1
	}

	signals, stop := subscribeShutdownSig()
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		applog.Info(ctx, "starting http server", "addr", cfg.Server.Addr)
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server encountered an error", "error", err)
			return 1
		}
		return 0
	case sig := <-signals:
		applog.Info(ctx, "shutting down http server", "signal", sig.String())
	}

	cancel()
	if err := srv.Stop(); err != nil {
		applog.Error(ctx, "graceful shutdown failed", "error", err)
		return 1
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.Error(ctx, "server exited with error", "error", err)
		return 1
	}
	applog.Info(ctx, "server stopped")
	return 0
}
