// Command guardian runs the guardian-angel loop: it periodically observes a
// world through the public API, asks the oracle whether anyone needs a nudge,
// and delivers at most one piece of advice per cycle.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pookielabs/pookieverse/internal/guardian"
	"github.com/pookielabs/pookieverse/internal/oracle"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	apiPort := envIntOrDefault("PORT", 8080)
	baseURL := envOrDefault("API_URL", fmt.Sprintf("http://localhost:%d", apiPort))
	worldID := envOrDefault("WORLD_ID", "meadow")
	intervalMin := envIntOrDefault("GUARDIAN_INTERVAL_MINUTES", 5)

	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
	client := oracle.NewClient(anthropicKey)
	if !client.Enabled() {
		slog.Error("ANTHROPIC_API_KEY not set — the guardian cannot think without it")
		os.Exit(1)
	}

	slog.Info("guardian angel starting",
		"api", baseURL,
		"world", worldID,
		"interval_minutes", intervalMin)

	if err := waitForAPI(baseURL); err != nil {
		slog.Error("world API never came up", "error", err)
		os.Exit(1)
	}

	observer := guardian.NewObserver(baseURL, worldID)
	actor := guardian.NewActor(baseURL, worldID)
	memory := guardian.LoadMemory()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(intervalMin) * time.Minute)
	defer ticker.Stop()

	// First cycle right away, then on the ticker.
	runCycle(observer, actor, client, memory)
	for {
		select {
		case <-ticker.C:
			runCycle(observer, actor, client, memory)
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			return
		}
	}
}

func runCycle(observer *guardian.Observer, actor *guardian.Actor, client *oracle.Client, memory *guardian.CycleMemory) {
	start := time.Now()
	slog.Info("guardian cycle starting")

	snap, err := observer.Observe()
	if err != nil {
		slog.Error("observation failed, skipping cycle", "error", err)
		return
	}

	health := guardian.Triage(snap)
	slog.Info("flock triaged",
		"total", health.Total,
		"dead", health.Dead,
		"low_health", health.LowHealth,
		"low_food", health.LowFood,
		"crisis", health.CrisisLevel)

	advice, err := guardian.Decide(client, snap, health, memory.FormatForPrompt())
	if err != nil {
		slog.Error("oracle consultation failed, skipping cycle", "error", err)
		return
	}

	record := guardian.CycleRecord{
		TimestampMillis: time.Now().UnixMilli(),
		Action:          advice.Action,
		CrisisLevel:     health.CrisisLevel,
		Rationale:       advice.Rationale,
	}

	switch advice.Action {
	case "advise":
		if err := actor.Advise(advice.PookieName, advice.Message); err != nil {
			slog.Error("failed to deliver advice", "pookie", advice.PookieName, "error", err)
			return
		}
		record.Pookie = advice.PookieName
		slog.Info("advice delivered",
			"pookie", advice.PookieName,
			"message", advice.Message)
	default:
		slog.Info("no advice this cycle", "rationale", advice.Rationale)
	}

	memory.Record(record)
	memory.Save()
	slog.Info("guardian cycle complete", "duration", time.Since(start).Round(time.Millisecond))
}

// waitForAPI polls the health endpoint with exponential backoff until the
// world server answers, or gives up after five minutes.
func waitForAPI(baseURL string) error {
	deadline := time.Now().Add(5 * time.Minute)
	backoff := 2 * time.Second
	for {
		resp, err := http.Get(baseURL + "/api/v1/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				slog.Info("world API is up")
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("gave up waiting for %s", baseURL)
		}
		slog.Info("world API not ready, retrying", "backoff", backoff)
		time.Sleep(backoff)
		backoff *= 2
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
	}
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
