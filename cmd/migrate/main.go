package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"pharmacy-pos/internal/config"
	"pharmacy-pos/internal/db"
	"pharmacy-pos/internal/logging"
	"pharmacy-pos/internal/migrate"
)

func main() {
	down := flag.Int("down", 0, "Roll back this many migrations instead of applying")
	flag.Parse()

	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("migrate")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	runner, err := migrate.Open(ctx, pool)
	if err != nil {
		logger.Fatal("open migrations", zap.Error(err))
	}
	defer runner.Close()

	if *down > 0 {
		err = runner.Down(*down)
	} else {
		err = runner.Up()
	}
	if err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	version, dirty, err := runner.Version()
	if err != nil {
		logger.Fatal("read schema version", zap.Error(err))
	}
	logger.Info("migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
}
