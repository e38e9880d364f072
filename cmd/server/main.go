package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/parentrebuild/backend/config"
	"github.com/parentrebuild/backend/internal/app"
	httpDelivery "github.com/parentrebuild/backend/internal/delivery/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting Parent Rebuild Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache Type: %s", cfg.Cache.Type)

	if err := cfg.ValidateCredentials(); err != nil {
		log.Printf("WARNING: %v - previews work, feed submissions will fail", err)
	} else {
		log.Printf("SP-API configured: seller %s, client %s...", cfg.SPAPI.SellerID, truncate(cfg.SPAPI.ClientID, 24))
	}

	application, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer application.Close()

	log.Printf("Feeds: poll every %s, give up after %s, debug=%v",
		cfg.Feed.PollInterval, cfg.Feed.PollTimeout, cfg.Feed.DebugLogging)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(application.Service)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
