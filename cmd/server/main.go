package main

import (
	"askai-backend/internal/api"
	"askai-backend/internal/config"
	"askai-backend/internal/handlers"
	"askai-backend/internal/provider"
	"askai-backend/internal/services"
	"askai-backend/internal/store"
	"askai-backend/internal/store/postgres"
	"askai-backend/internal/store/sqlite"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

func main() {
	log.Println("Starting AI Chatbot Backend...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Open the message store
	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second) // Timeout for initial connection
	defer dbCancel()

	msgStore, err := openStore(dbCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Unable to open message store: %v\n", err)
	}
	defer msgStore.Close()

	if err := msgStore.EnsureSchema(dbCtx); err != nil {
		log.Fatalf("FATAL: Unable to create message table: %v\n", err)
	}
	log.Println("Message store ready.")

	// 3. Initialize Dependencies (Provider, Services, Handlers)
	httpClient := &http.Client{Timeout: cfg.ProviderTimeout}
	factory := providerFactory(cfg, httpClient)
	if cfg.ProviderAPIKey != "" {
		log.Printf("%s credential loaded (%s).", cfg.Provider, services.MaskCredential(cfg.ProviderAPIKey))
	}

	askService := services.NewAskService(msgStore, factory, services.AskConfig{
		ProviderName: cfg.Provider,
		APIKey:       cfg.ProviderAPIKey,
		Model:        cfg.Model,
		Timeout:      cfg.ProviderTimeout,
	})
	log.Println("AskService initialized.")

	askHandler := handlers.NewAskHandlers(askService, cfg.Provider, cfg.Debug)
	log.Println("AskHandlers initialized.")

	// 4. Setup Router & Inject Dependencies
	router := api.NewRouter(api.RouterDependencies{
		AskHandler: askHandler,
		Config:     cfg,
	})
	log.Println("HTTP router configured.")

	// 5. Configure and Start HTTP Server
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.ProviderTimeout + 20*time.Second, // Must outlast the provider call
		IdleTimeout:  120 * time.Second,
	}

	// Channel to listen for OS signals for graceful shutdown
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting and listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Could not listen on %s: %v\n", cfg.HTTPPort, err)
		}
		log.Println("Server listener routine stopped.")
	}()

	<-stopChan
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: Server graceful shutdown failed: %v", err)
	}

	log.Println("Server shutdown complete.")
}

// openStore picks the backend from the DATABASE_URL scheme.
func openStore(ctx context.Context, databaseURL string) (store.MessageStore, error) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		s, err := postgres.Open(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		log.Println("Postgres connection pool established and pinged successfully.")
		return s, nil
	}

	path, ok := sqlitePath(databaseURL)
	if !ok {
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme (expected postgres://, sqlite:// or file:)")
	}
	s, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	log.Printf("SQLite database opened at %s.", path)
	return s, nil
}

func sqlitePath(databaseURL string) (string, bool) {
	for _, prefix := range []string{"sqlite://", "file:"} {
		if strings.HasPrefix(databaseURL, prefix) {
			path := strings.TrimPrefix(databaseURL, prefix)
			return path, path != ""
		}
	}
	return "", false
}

func providerFactory(cfg *config.Config, hc *http.Client) provider.Factory {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return provider.AnthropicFactory(cfg.ProviderBaseURL, cfg.Model, hc)
	default:
		return provider.OpenAIFactory(cfg.ProviderBaseURL, cfg.Model, hc)
	}
}
