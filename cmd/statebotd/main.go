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
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/statebot/go-statebot/internal/bot"
	"github.com/statebot/go-statebot/internal/config"
	"github.com/statebot/go-statebot/internal/httpapi"
	"github.com/statebot/go-statebot/internal/journal"
	"github.com/statebot/go-statebot/internal/llm"
)

// #region main
func main() {
	configPath := flag.String("config", "statebot.yaml", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	jnl, err := journal.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("open journal: %v", err)
	}
	defer jnl.Close()

	b, err := bot.New(bot.Options{
		Provider:               llm.Provider(cfg.Provider),
		APIKey:                 cfg.APIKey,
		States:                 llm.StateSet(cfg.States),
		CacheExpiry:            time.Duration(cfg.CacheExpiryMS) * time.Millisecond,
		CacheCapacity:          cfg.CacheCapacity,
		DebounceTime:           time.Duration(cfg.DebounceMS) * time.Millisecond,
		RetryCount:             cfg.RetryCount,
		DeterminationThreshold: cfg.DeterminationThreshold,
		Recorder:               jnl,
	})
	if err != nil {
		log.Fatalf("create bot: %v", err)
	}

	unsubscribe := b.Subscribe(func(rec bot.StateRecord) {
		log.Printf("[BOT] state=%q confidence=%.2f facts=%d transitions=%d",
			rec.CurrentState, rec.Confidence, len(rec.Facts), len(rec.Transitions))
	})
	defer unsubscribe()

	server := httpapi.New(cfg.Listen, b)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.ListenAndServe)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	log.Printf("statebotd ready. provider=%s listen=%s db=%s", cfg.Provider, cfg.Listen, cfg.DBPath)
	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

// #endregion main
