package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vitalsync-import/internal/config"
	"vitalsync-import/internal/database"
	"vitalsync-import/internal/logger"
	"vitalsync-import/internal/repository"
	"vitalsync-import/internal/service"
	"vitalsync-import/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"vitalsync-import/internal/domain"
)

func main() {
	auditPath := flag.String("audit", "", "write an import audit workbook (xlsx) to this path")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [--audit audit.xlsx] <takeout.zip> [fill_missing|overwrite]\n", os.Args[0])
		os.Exit(2)
	}
	archivePath := args[0]

	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "vitalsync-import")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	mode := domain.WriteMode(cfg.Import.WriteMode)
	if len(args) > 1 {
		mode = domain.WriteMode(args[1])
	}
	if mode != domain.WriteModeFillMissing && mode != domain.WriteModeOverwrite {
		log.Fatal("Invalid write mode", zap.String("mode", string(mode)))
	}

	archive, err := os.ReadFile(archivePath)
	if err != nil {
		log.Fatal("Failed to read archive", zap.String("path", archivePath), zap.Error(err))
	}

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Redis 可选：关闭时结果只打印到 stdout
	var kv store.KV
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		kv = store.NewRedisKV(redisClient)
	}

	// 就绪度服务可选
	var readiness service.ReadinessRecomputer
	if cfg.Readiness.Enabled {
		readiness = service.NewReadinessClient(
			cfg.Readiness.BaseURL,
			time.Duration(cfg.Readiness.TimeoutSec)*time.Second,
			log,
		)
	}

	importLogRepo := repository.NewPostgresImportLogRepository(db)
	metricsRepo := repository.NewPostgresDailyMetricsRepository(db)
	diagRepo := repository.NewPostgresDiagnosticsRepository(db)

	svc := service.NewImportService(importLogRepo, metricsRepo, diagRepo, kv, nil, readiness, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := svc.ImportArchive(ctx, service.ImportArchiveRequest{
		Archive:   archive,
		FileName:  filepath.Base(archivePath),
		WriteMode: mode,
		Timezone:  cfg.Import.Timezone,
	})
	if err != nil {
		log.Fatal("Import failed", zap.Error(err))
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatal("Failed to encode result", zap.Error(err))
	}
	fmt.Println(string(out))

	if *auditPath != "" && result.Status == domain.ImportStatusOK {
		workbook, err := svc.BuildAuditWorkbook(ctx, result)
		if err != nil {
			log.Fatal("Failed to build audit workbook", zap.Error(err))
		}
		if err := os.WriteFile(*auditPath, workbook, 0o644); err != nil {
			log.Fatal("Failed to write audit workbook", zap.String("path", *auditPath), zap.Error(err))
		}
		log.Info("Audit workbook written", zap.String("path", *auditPath))
	}

	if result.Status != domain.ImportStatusOK && result.Status != domain.ImportStatusDuplicate {
		os.Exit(1)
	}
}
