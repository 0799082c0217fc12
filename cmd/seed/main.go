package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"pharmacy-pos/internal/config"
	"pharmacy-pos/internal/db"
	"pharmacy-pos/internal/domain"
	"pharmacy-pos/internal/logging"
	productrepo "pharmacy-pos/internal/repository/product"
	"pharmacy-pos/internal/seed"
	"pharmacy-pos/internal/service/auth"
)

func main() {
	var (
		tokenRole string
		userID    int64
	)
	flag.StringVar(&tokenRole, "token-role", "", "Print a development token for this role (cashier, manager, admin) instead of seeding")
	flag.Int64Var(&userID, "user-id", 1, "User id embedded in the development token")
	flag.Parse()

	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("seed")

	if tokenRole != "" {
		tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
		if err != nil {
			logger.Fatal("init token manager", zap.Error(err))
		}
		token, exp, err := tokens.Issue(domain.Principal{UserID: userID, Role: domain.Role(tokenRole)})
		if err != nil {
			logger.Fatal("issue token", zap.Error(err))
		}
		logger.Info("token issued", zap.String("role", tokenRole), zap.Time("expires_at", exp))
		fmt.Println(token)
		return
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	n, err := seed.Apply(ctx, productrepo.NewPostgres(pool, logger))
	if err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}
	logger.Info("seed applied", zap.Int("products", n))
}
