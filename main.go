// Package main provides the entry point for the WB box tariff keeper.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kapustota/btlz-wb-test-vasily-b/app/handlers"
	"github.com/kapustota/btlz-wb-test-vasily-b/app/router"
	"github.com/kapustota/btlz-wb-test-vasily-b/app/scheduler"
	businessflow "github.com/kapustota/btlz-wb-test-vasily-b/business_flow"
	"github.com/kapustota/btlz-wb-test-vasily-b/config"
	"github.com/kapustota/btlz-wb-test-vasily-b/repository"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	stopFuncs []func()
}

func main() {
	log.Println("Starting WB box tariff keeper...")

	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.router.Start(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.router.GetApp().ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// initializeRedis creates the redis client when caching is enabled
func initializeRedis(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	rc := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rc.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rc, nil
}

func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeRedis(context.Background(), cfg.Cache)
	if err != nil {
		return nil, err
	}

	// Repositories
	warehouseRepo := repository.NewWarehouseRepository(db)
	periodRepo := repository.NewTariffPeriodRepository(db)
	rateRepo := repository.NewBoxRateRepository(db)

	// Business flow
	tariffFlow := businessflow.NewTariffFlow(warehouseRepo, periodRepo, rateRepo, db, rc, log.Default())

	// Scheduler collaborators
	wbClient := scheduler.NewWBClient(cfg.WBAPI)
	publisher := scheduler.NewSheetPublisher(cfg.Sheets, tariffFlow, log.Default())
	tariffScheduler := scheduler.NewTariffScheduler(tariffFlow, wbClient, publisher, cfg.Scheduler.Interval, cfg.Logging)

	app := &Application{
		config: cfg,
	}

	if cfg.Scheduler.Enabled {
		stop := tariffScheduler.Start(context.Background())
		app.stopFuncs = append(app.stopFuncs, stop)
	}

	// HTTP surface
	tariffHandler := handlers.NewTariffHandler(tariffFlow, tariffScheduler)
	app.router = router.NewFiberRouter(cfg, tariffHandler)

	return app, nil
}
