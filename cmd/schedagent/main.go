// schedagent is the scheduling agent daemon: an HTTP API plus an optional
// Discord gateway, backed by a local LLM and a SQLite store.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/weihung/schedagent/internal/agent"
	"github.com/weihung/schedagent/internal/api"
	"github.com/weihung/schedagent/internal/calsync"
	"github.com/weihung/schedagent/internal/config"
	"github.com/weihung/schedagent/internal/gateway"
	"github.com/weihung/schedagent/internal/llm"
	"github.com/weihung/schedagent/internal/schedule"
	"github.com/weihung/schedagent/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, using environment variables")
	} else {
		log.Println("[config] Loaded .env file")
	}

	cfgPath := os.Getenv("CONFIG_FILE")
	if cfgPath == "" {
		cfgPath = "schedagent.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[config] %v", err)
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("[store] open %s: %v", cfg.DBPath, err)
	}
	defer db.Close()
	log.Printf("[store] SQLite ready at %s", cfg.DBPath)

	var provider schedule.SyncProvider
	if cfg.CalendarBaseURL != "" {
		provider = calsync.New(cfg.CalendarBaseURL, cfg.CalendarAPIKey)
		log.Printf("[calsync] mirroring to %s", cfg.CalendarBaseURL)
	}

	schedules := schedule.NewService(store.NewScheduleStore(db), provider)
	model := llm.NewClient(cfg.OllamaBaseURL, cfg.OllamaModel)
	dispatcher := agent.NewDispatcher(schedules, cfg.Location())
	ag := agent.New(model, store.NewConversationStore(db), dispatcher, agent.Config{
		MaxIterations: cfg.MaxIterations,
		HistoryWindow: cfg.HistoryWindow,
		Timezone:      cfg.Timezone,
	})

	handler := api.NewHandler(ag, schedules, cfg.WorkStartHour, cfg.WorkEndHour, cfg.Location())
	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // agent turns can take a while
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("[http] listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[http] server failed: %v", err)
		}
	}()

	var discord *gateway.Discord
	if cfg.DiscordToken != "" {
		discord, err = gateway.New(gateway.Config{
			Token:     cfg.DiscordToken,
			ChannelID: cfg.DiscordChannel,
		}, ag)
		if err != nil {
			log.Fatalf("[discord] %v", err)
		}
		if err := discord.Start(); err != nil {
			log.Fatalf("[discord] %v", err)
		}
	} else {
		log.Println("[discord] DISCORD_TOKEN not set, gateway disabled")
	}

	log.Println("[main] All subsystems started. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("[main] Shutting down...")

	if discord != nil {
		if err := discord.Stop(); err != nil {
			log.Printf("[discord] close: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[http] shutdown: %v", err)
	}

	log.Println("[main] Goodbye!")
}
