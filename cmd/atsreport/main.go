// cmd/atsreport/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jblue-ops/atslite-sub000/internal/analytics"
	"github.com/jblue-ops/atslite-sub000/internal/common/config"
	"github.com/jblue-ops/atslite-sub000/internal/common/database"
	"github.com/jblue-ops/atslite-sub000/internal/common/logger"
	"github.com/jblue-ops/atslite-sub000/internal/common/observability"
	"github.com/jblue-ops/atslite-sub000/internal/report"
)

func main() {
	companyID := flag.String("company", "", "Company ID to report on")
	configPath := flag.String("config", "", "Path to a config file (default: configs/config.yaml lookup)")
	pretty := flag.Bool("pretty", true, "Indent the JSON output")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall timeout for building the report")
	flag.Parse()

	if *companyID == "" {
		fmt.Println("Error: -company is required.")
		flag.Usage()
		os.Exit(1)
	}

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

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

	obs := observability.New("atsreport")
	defer obs.Shutdown()

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

	var cache *redis.Client
	if cfg.Analytics.CacheEnabled {
		rc, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			zapLog.Fatal("redis failed", zap.Error(err))
		}
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			zapLog.Fatal("redis ping failed", zap.Error(err))
		}
		cache = rc.Client
	}

	agg := analytics.NewAggregator(pg.DB, cache, config.GetDuration(cfg.Analytics.CacheTTL), log)
	builder := report.NewBuilder(agg, log)

	start := time.Now()
	rep, err := builder.Build(ctx, *companyID)
	obs.RecordReportDuration(ctx, time.Since(start), "full")
	if err != nil {
		zapLog.Fatal("report build failed", zap.Error(err), zap.String("company_id", *companyID))
	}

	var out []byte
	if *pretty {
		out, err = json.MarshalIndent(rep, "", "  ")
	} else {
		out, err = json.Marshal(rep)
	}
	if err != nil {
		zapLog.Fatal("report marshal failed", zap.Error(err))
	}
	fmt.Println(string(out))
}
