package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aliasqar1/tets/internal/database"
	"github.com/aliasqar1/tets/internal/models"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export or docker
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService *database.Service
	Catalog   *Catalog
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the state files and loads the shop catalog
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Loading shop catalog", zap.String("file", cfg.Shop.CatalogFile))
	catalog, err := LoadCatalog(cfg.Shop.CatalogFile)
	if err != nil {
		dbService.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	zap.L().Info("Using shop catalog",
		zap.Int64("subscription_price", catalog.SubscriptionPrice),
		zap.Int64("custom_role_price", catalog.CustomRolePrice),
		zap.Int("streamer_orders", len(catalog.StreamerOrders)),
		zap.Int("member_orders", len(catalog.MemberOrders)))

	return &Services{
		DbService: dbService,
		Catalog:   catalog,
	}, nil
}

// InitializeDatabaseOnly opens just the state files, for offline tools
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	return database.NewService(ctx, cfg.Store)
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		if err := cs.DbService.Close(); err != nil {
			zap.L().Error("Failed to flush state on shutdown", zap.Error(err))
		}
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
