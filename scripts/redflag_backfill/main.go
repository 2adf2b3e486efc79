package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/placement-api/internal/repository"
	"github.com/noah-isme/placement-api/internal/service"
	"github.com/noah-isme/placement-api/pkg/config"
	"github.com/noah-isme/placement-api/pkg/database"
	"github.com/noah-isme/placement-api/pkg/logger"
)

// Assigns ids to red flags created before flags carried one. Safe to re-run:
// rows that already have an id are left untouched.
func main() {
	var (
		dryRun  bool
		timeout time.Duration
	)
	flag.BoolVar(&dryRun, "dry-run", false, "Only count red flags missing an id")
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "Overall deadline for the backfill")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	svc := service.NewRedFlagService(repository.NewRedFlagRepository(db), repository.NewStudentRepository(db), service.NewValidator(), logr)
	result, err := svc.Backfill(ctx, dryRun)
	if err != nil {
		logr.Fatal("red flag backfill failed", zap.Error(err))
	}
	logr.Info("red flag backfill finished", zap.Int("assigned", result.Assigned), zap.Bool("dry_run", result.DryRun))
}
