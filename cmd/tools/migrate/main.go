// cmd/tools/migrate/main.go
package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"

	"github.com/jblue-ops/atslite-sub000/internal/common/config"
	"github.com/jblue-ops/atslite-sub000/internal/common/database"
	"github.com/jblue-ops/atslite-sub000/internal/common/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to a config file (default: configs/config.yaml lookup)")
	timeout := flag.Duration("timeout", 60*time.Second, "Timeout for applying the schema")
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres failed", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.Ping(ctx); err != nil {
		zapLog.Fatal("postgres ping failed", zap.Error(err))
	}

	if err := database.Migrate(ctx, pg.DB); err != nil {
		zapLog.Fatal("migration failed", zap.Error(err))
	}

	zapLog.Info("schema applied",
		zap.String("host", cfg.Database.Postgres.Host),
		zap.String("database", cfg.Database.Postgres.Database),
	)
}
