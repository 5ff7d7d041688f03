package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/EvanTenenbaum/terp-live/internal/config"
	"github.com/EvanTenenbaum/terp-live/internal/demo"
	"github.com/EvanTenenbaum/terp-live/internal/hub"
	"github.com/EvanTenenbaum/terp-live/internal/room"
)

func main() {
	demoMode := flag.Bool("demo", false, "Host a scripted demo room")
	configPath := flag.String("config", "", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}
	if cfg.Auth.StaffToken == "" {
		log.Println("WARNING: no staff token configured, control API is open")
	}

	store := room.NewStore()
	h := hub.NewHub(store)
	server := hub.NewServer(cfg, store, h)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *demoMode {
		log.Println("Starting in demo mode")
		gen := demo.NewGenerator(store, h)
		if err := gen.Start(ctx); err != nil {
			log.Fatalf("Demo generator: %v", err)
		}
	}

	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		cancel()
		os.Exit(0)
	}()

	if err := hub.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
