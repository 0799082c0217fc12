package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"
	"pharmacy-pos/internal/config"
	"pharmacy-pos/internal/db"
	"pharmacy-pos/internal/httpserver"
	"pharmacy-pos/internal/logging"
	categoryrepo "pharmacy-pos/internal/repository/category"
	notificationrepo "pharmacy-pos/internal/repository/notification"
	productrepo "pharmacy-pos/internal/repository/product"
	salerepo "pharmacy-pos/internal/repository/sale"
	supplierrepo "pharmacy-pos/internal/repository/supplier"
	"pharmacy-pos/internal/service/auth"
	cartsvc "pharmacy-pos/internal/service/cart"
	categorysvc "pharmacy-pos/internal/service/category"
	dashboardsvc "pharmacy-pos/internal/service/dashboard"
	notificationsvc "pharmacy-pos/internal/service/notification"
	productsvc "pharmacy-pos/internal/service/product"
	salesvc "pharmacy-pos/internal/service/sale"
	suppliersvc "pharmacy-pos/internal/service/supplier"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("api")

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		logger.Fatal("init token manager", zap.Error(err))
	}

	productRepo := productrepo.NewPostgres(dbpool, logger)
	productService := productsvc.New(productRepo)
	sessionService := cartsvc.New(productRepo, cartsvc.Options{
		IdleTimeout: cfg.SessionIdleTimeout,
		Currency:    cfg.Currency,
		Logger:      logger,
	})
	saleRepo := salerepo.NewPostgres(dbpool, logger)
	saleService := salesvc.New(saleRepo, sessionService, logger)
	notificationService := notificationsvc.New(notificationrepo.NewPostgres(dbpool, logger), productRepo, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		ProductSvc:      productService,
		SessionSvc:      sessionService,
		SaleSvc:         saleService,
		CategorySvc:     categorysvc.New(categoryrepo.NewPostgres(dbpool, logger)),
		SupplierSvc:     suppliersvc.New(supplierrepo.NewPostgres(dbpool, logger)),
		NotificationSvc: notificationService,
		DashboardSvc:    dashboardsvc.New(saleRepo, productRepo),
		Tokens:          tokens,
		CORSOrigins:     cfg.CORSAllowedOrigins,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		sessionService.RunSweeper(workerCtx, cfg.SessionSweepInterval)
	}()
	go func() {
		defer workers.Done()
		notificationService.RunChecker(workerCtx, cfg.LowStockCheckInterval)
	}()

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
	stopWorkers()
	workers.Wait()
}
