package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"babis/internal/app"
	"babis/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfgFile := flag.String("config", envOrDefault("BABIS_CONFIG", ""), "config file")
	flag.Parse()

	cfg, err := config.Load(*cfgFile, nil)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := app.SetupLogging(cfg); err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}

	a, err := app.Open(cfg)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer a.Close()

	if a.Notifier == nil {
		log.Println("Roster notifications disabled (set BABIS_NOTIFY_TO to enable)")
	} else if cfg.ResendAPIKey == "" {
		log.Println("Roster notifications configured (noop, set BABIS_RESEND_API_KEY for real delivery)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Babis %s starting on %s (env=%s, db=%s)", version, cfg.Addr, cfg.Env, cfg.DBPath)
	if err := a.Serve(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
