package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"studio-availability-backend/config"
	"studio-availability-backend/internal/api"
	"studio-availability-backend/internal/db"
	"studio-availability-backend/internal/model"
	"studio-availability-backend/internal/notification"
	"studio-availability-backend/internal/scrape"
	"studio-availability-backend/internal/scrape/connector"
	"studio-availability-backend/internal/service"
	"studio-availability-backend/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "studio-backend ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	appStore := store.NewGormStore(gormDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := appStore.SeedStudios(ctx, studiosFromConfig(cfg.Studios)); err != nil {
		logger.Fatalf("failed to seed studio catalog: %v", err)
	}

	registry := scrape.NewRegistry()
	connector.RegisterAll(registry, fetchConfig(&cfg.Fetch))

	svc := service.New(registry)

	// Push is optional. Without VAPID keys the watcher stays off and the
	// subscription endpoints report push as disabled.
	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions)
		watcher := notification.NewWatcher(cfg, appStore, svc, pool)
		go watcher.Run(ctx)
	} else {
		logger.Println("VAPID keys are not configured; watch notifications are disabled")
	}

	handler := api.NewHandler(appStore, svc, registry, webpushOptions)
	router := api.NewRouter(&cfg.Server, handler)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}

// studiosFromConfig converts the yaml catalog map, keyed by studio id, into
// rows for seeding. Bad ids are skipped with a log line rather than aborting
// startup.
func studiosFromConfig(entries map[string]config.StudioConfig) []model.Studio {
	studios := make([]model.Studio, 0, len(entries))
	for key, entry := range entries {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			log.Printf("skipping studio with non-numeric id %q", key)
			continue
		}
		studios = append(studios, model.Studio{
			ID:          id,
			Name:        entry.Name,
			Address:     entry.Address,
			ScraperType: entry.ScraperType,
			ShopID:      entry.ShopID,
		})
	}
	sort.Slice(studios, func(i, j int) bool { return studios[i].ID < studios[j].ID })
	return studios
}

func fetchConfig(cfg *config.FetchConfig) scrape.FetchConfig {
	return scrape.FetchConfig{
		MaxAttempts:    cfg.MaxAttempts,
		MinWait:        time.Duration(cfg.MinWaitSeconds) * time.Second,
		MaxWait:        time.Duration(cfg.MaxWaitSeconds) * time.Second,
		Multiplier:     cfg.Multiplier,
		ConnectTimeout: time.Duration(cfg.ConnectTimeoutSeconds) * time.Second,
		ReadTimeout:    time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		HTTPProxy:      cfg.HTTPProxy,
	}
}
