// Command pookieverse runs the Pookieverse world server: the simulation
// engine plus the HTTP/websocket API guardians connect to.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pookielabs/pookieverse/internal/api"
	"github.com/pookielabs/pookieverse/internal/chronicle"
	"github.com/pookielabs/pookieverse/internal/engine"
	"github.com/pookielabs/pookieverse/internal/level"
	"github.com/pookielabs/pookieverse/internal/oracle"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Pookieverse — a tiny world of autonomous pookies")

	// Configuration from environment.
	apiPort := envIntOrDefault("PORT", 8080)
	worldID := envOrDefault("WORLD_ID", "meadow")
	dbPath := envOrDefault("CHRONICLE_DB", "data/pookieverse.db")
	levelFile := os.Getenv("LEVEL_FILE")
	seed := int64(envIntOrDefault("WORLD_SEED", 0))
	tickMillis := envIntOrDefault("TICK_INTERVAL_MS", 1000)

	// ── Level ─────────────────────────────────────────────────────────
	var lvl *level.Level
	var err error
	switch {
	case levelFile != "":
		lvl, err = level.Load(levelFile)
		if err != nil {
			slog.Error("failed to load level", "path", levelFile, "error", err)
			os.Exit(1)
		}
		slog.Info("level loaded", "path", levelFile, "facilities", len(lvl.Facilities))
	case os.Getenv("LEVEL_GENERATE") == "1":
		cfg := level.DefaultGenConfig()
		cfg.Seed = seed
		lvl, err = level.Generate(cfg)
		if err != nil {
			slog.Error("level generation failed", "error", err)
			os.Exit(1)
		}
		slog.Info("level generated", "seed", seed, "facilities", len(lvl.Facilities))
	default:
		lvl = level.Default()
		slog.Info("using built-in level", "facilities", len(lvl.Facilities))
	}

	// ── Chronicle ─────────────────────────────────────────────────────
	os.MkdirAll("data", 0755)
	chron, err := chronicle.Open(dbPath)
	if err != nil {
		slog.Error("failed to open chronicle", "error", err)
		os.Exit(1)
	}
	defer chron.Close()
	slog.Info("chronicle opened", "path", dbPath)

	// ── Oracle ────────────────────────────────────────────────────────
	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
	client := oracle.NewClient(anthropicKey)
	if client.Enabled() {
		slog.Info("oracle client enabled (Haiku)")
	} else {
		slog.Warn("ANTHROPIC_API_KEY not set — pookies will fall back to idling")
	}

	// ── World ─────────────────────────────────────────────────────────
	world, err := engine.New(engine.Config{
		ID:           worldID,
		Level:        lvl,
		Decider:      oracle.NewLLMDecider(client),
		Seed:         seed,
		TickInterval: time.Duration(tickMillis) * time.Millisecond,
		Sink:         chron,
	})
	if err != nil {
		slog.Error("failed to build world", "error", err)
		os.Exit(1)
	}

	registry := api.NewRegistry()
	registry.Add(world)

	// ── HTTP API ──────────────────────────────────────────────────────
	apiServer := &api.Server{
		Registry:  registry,
		Chronicle: chron,
		Port:      apiPort,
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		world.Stop()
	}()

	fmt.Printf("\nThe Pookieverse is open: world %q, up to %d pookies.\n", worldID, lvl.MaxPookies)
	fmt.Printf("API: http://localhost:%d/api/v1/worlds/%s\n", apiPort, worldID)
	fmt.Println("Running... (Ctrl+C to stop)")

	world.Run()

	fmt.Println("World stopped.")
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
