package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/config"
	"github.com/mamadbah2/dairy/internal/repository"
	"github.com/mamadbah2/dairy/internal/repository/memory"
	"github.com/mamadbah2/dairy/internal/repository/mongodb"
	"github.com/mamadbah2/dairy/internal/repository/sheets"
	"github.com/mamadbah2/dairy/internal/scheduler"
	"github.com/mamadbah2/dairy/internal/server/handlers"
	"github.com/mamadbah2/dairy/internal/server/router"
	authsvc "github.com/mamadbah2/dairy/internal/service/auth"
	cattlesvc "github.com/mamadbah2/dairy/internal/service/cattle"
	milksvc "github.com/mamadbah2/dairy/internal/service/milk"
	reportingsvc "github.com/mamadbah2/dairy/internal/service/reporting"
	whatsappclient "github.com/mamadbah2/dairy/pkg/clients/whatsapp"
	"github.com/mamadbah2/dairy/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level, cfg.Log.Format))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := openStore(cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			baseLogger.Error("failed to close store", zap.Error(err))
		}
	}()

	authService := authsvc.NewService(store.Users(), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger.Named(baseLogger, "svc.auth"))
	cattleService := cattlesvc.NewService(store, logger.Named(baseLogger, "svc.cattle"))
	milkService := milksvc.NewService(store, logger.Named(baseLogger, "svc.milk"))
	reportingService := reportingsvc.NewService(store, logger.Named(baseLogger, "svc.reporting"))

	engine := router.New(router.Handlers{
		Auth:   handlers.NewAuthHandler(authService, logger.Named(baseLogger, "handlers.auth")),
		Cattle: handlers.NewCattleHandler(cattleService, logger.Named(baseLogger, "handlers.cattle")),
		Milk:   handlers.NewMilkHandler(milkService, logger.Named(baseLogger, "handlers.milk")),
		Stats:  handlers.NewStatsHandler(reportingService, logger.Named(baseLogger, "handlers.stats")),
	}, router.Options{CORSOrigins: cfg.Server.CORSOrigins}, logger.Named(baseLogger, "router"))

	deps := scheduler.Deps{
		Users:   store.Users(),
		Reports: store.Reports(),
		Builder: reportingService,
	}
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		deps.Exporter = sheets.NewReportExporter(sheetsRepo)
		baseLogger.Info("weekly report sheets export enabled")
	}
	if cfg.WhatsApp.Enabled() {
		deps.Notifier = whatsappclient.NewReportNotifier(whatsappclient.NewClient(cfg.WhatsApp), cfg.WhatsApp.ReportRecipient)
		baseLogger.Info("weekly report whatsapp digest enabled")
	} else {
		baseLogger.Warn("whatsapp settings missing, weekly digest disabled")
	}

	sched, err := scheduler.NewScheduler(cfg.Reporting, deps, logger.Named(baseLogger, "scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(cfg *config.Config, baseLogger *zap.Logger) (repository.Store, error) {
	if cfg.Store.Driver == config.DriverMemory {
		baseLogger.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout+5*time.Second)
	defer cancel()
	mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB, logger.Named(baseLogger, "repo.mongodb"))
	if err != nil {
		return nil, err
	}
	return mongoRepo, nil
}
