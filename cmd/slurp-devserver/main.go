// Command slurp-devserver runs an in-memory Slurp Social API for local development.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slurpsocial/internal/config"
	"slurpsocial/internal/devserver"
	"slurpsocial/internal/observability"
)

func main() {
	numUsers := flag.Int("users", 0, "Number of fake users to seed")
	postsPerUser := flag.Int("posts", 5, "Posts per seeded user")
	lat := flag.Float64("lat", 40.7128, "Latitude seeded posts cluster around")
	lon := flag.Float64("lon", -74.0060, "Longitude seeded posts cluster around")
	coldStart := flag.Duration("cold-start", 0, "Delay before the first request is served")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	observability.SetGlobalLogger(observability.NewLogger(os.Stdout, cfg.LogLevel))

	srv := devserver.New(devserver.Config{
		JWTSecret: cfg.JWTSecret,
		ColdStart: *coldStart,
	})

	if *numUsers > 0 {
		if err := srv.Seed(*numUsers, *postsPerUser, *lat, *lon); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Printf("Seeded %d users (password %q), %d posts each", *numUsers, devserver.SeedPassword, *postsPerUser)
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Dev server starting on port %s, API at http://localhost:%s/api", cfg.Port, cfg.Port)
	if err := srv.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
