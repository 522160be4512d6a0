package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"order-reconciler/internal/clients/convictional"
	"order-reconciler/internal/clients/flip"
	"order-reconciler/internal/clients/looker"
	"order-reconciler/internal/config"
	"order-reconciler/internal/dates"
	"order-reconciler/internal/runlock"
	"order-reconciler/internal/secrets"
	"order-reconciler/internal/services"
	"order-reconciler/internal/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	ctx := context.Background()

	// Initialize GCP Secret Manager when configured
	var resolver config.SecretResolver
	if projectID := os.Getenv("GCP_PROJECT_ID"); projectID != "" {
		sm, err := secrets.NewGCPSecretManager(ctx, projectID)
		if err != nil {
			log.Printf("Warning: Failed to initialize GCP Secret Manager: %v", err)
		} else {
			defer sm.Close()
			resolver = sm
		}
	}

	cfg, err := config.Load(ctx, resolver)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logrus logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	runLogger := logger.WithField("run_id", uuid.New().String())

	// Guard the output file against overlapping invocations
	lock, err := runlock.Acquire(cfg.Pipeline.LockPath)
	if err != nil {
		logger.Fatalf("Failed to acquire run lock: %v", err)
	}
	defer lock.Release()

	runLogger.Info("=== Starting order and SKU disablement pipeline ===")

	store := storage.NewCSVStore(logger)
	tokens := flip.NewOAuthTokenProvider(cfg.Flip.TokenURL, cfg.Flip.ClientID, cfg.Flip.ClientSecret, cfg.Flip.Timeout)
	flipClient := flip.NewClient(cfg.Flip, tokens, logger)

	// Step 1: fetch flagged orders from Convictional, reconcile with Flip
	runLogger.Info("Step 1: Fetch and check flagged orders from Convictional")
	if err := validateStep(runLogger, cfg.Convictional.Validate, cfg.Flip.Validate, cfg.Pipeline.Validate); err == nil {
		convictionalClient := convictional.NewClient(cfg.Convictional, logger)
		reconciler := services.NewReconcileService(convictionalClient, flipClient, store, cfg.Pipeline, logger)
		startDate, endDate := dates.Window(time.Now())
		if err := reconciler.Run(ctx, startDate, endDate); err != nil {
			runLogger.WithField("error", err.Error()).Error("Flagged order processing failed")
		}
	}

	// Step 2: disable SKUs for qualifying flagged orders
	runLogger.Info("Step 2: Disabling SKUs based on flagged order message")
	if err := validateStep(runLogger, cfg.Flip.Validate); err == nil {
		skuDisabler := services.NewSKUDisableService(flipClient, store, logger)
		if err := skuDisabler.Run(ctx, cfg.Pipeline.OutputPath); err != nil {
			runLogger.WithField("error", err.Error()).Error("SKU disabling failed")
		}
	}

	// Step 3: cancel qualifying flagged orders in Flip
	runLogger.Info("Step 3: Cancelling orders based on flagged order message")
	if err := validateStep(runLogger, cfg.Flip.Validate); err == nil {
		canceller := services.NewOrderCancelService(flipClient, store, logger)
		if err := canceller.Run(ctx, cfg.Pipeline.OutputPath); err != nil {
			runLogger.WithField("error", err.Error()).Error("Order cancellation failed")
		}
	}

	// Step 4: cancel orders missing a seller order identifier. A token
	// failure here aborts the run.
	runLogger.Info("Step 4: Cancelling orders missing seller order ID")
	if err := validateStep(runLogger, cfg.Looker.Validate, cfg.Flip.Validate); err == nil {
		lookerClient := looker.NewClient(cfg.Looker, logger)
		soidCanceller := services.NewSOIDCancelService(lookerClient, flipClient, cfg.Looker.LookID, logger)
		if err := soidCanceller.Run(ctx); err != nil {
			lock.Release()
			logger.Fatalf("SOID order cancellation failed: %v", err)
		}
	}

	runLogger.Info("=== Full processing pipeline completed ===")
}

// validateStep checks the config sections a step depends on; a failure
// degrades the step to a logged no-op instead of aborting the run
func validateStep(logger *logrus.Entry, validators ...func() error) error {
	for _, validate := range validators {
		if err := validate(); err != nil {
			logger.WithField("error", err.Error()).Error("Step skipped, missing configuration")
			return err
		}
	}
	return nil
}
