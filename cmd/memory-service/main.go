package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dpxrk/pactwise-memory/internal/config"
	"github.com/dpxrk/pactwise-memory/internal/engine"
	"github.com/dpxrk/pactwise-memory/internal/notify"
	"github.com/dpxrk/pactwise-memory/internal/server"
	"github.com/dpxrk/pactwise-memory/internal/storage"
	"github.com/dpxrk/pactwise-memory/internal/storage/postgres"
	"github.com/dpxrk/pactwise-memory/internal/storage/sqlite"
	"github.com/dpxrk/pactwise-memory/web/handlers"
)

// backend bundles the tier stores of whichever engine the config selects.
type backend struct {
	shortTerm    storage.ShortTermStore
	longTerm     storage.LongTermStore
	associations storage.AssociationStore
	close        func() error
}

func openBackend(cfg *config.Config) (*backend, error) {
	switch cfg.Storage.Engine {
	case "postgres":
		db, err := postgres.Open(cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return &backend{
			shortTerm:    db.ShortTerm(),
			longTerm:     db.LongTerm(),
			associations: db.Associations(),
			close:        db.Close,
		}, nil

	default:
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
			return nil, err
		}
		db, err := sqlite.Open(filepath.Join(cfg.Storage.DataPath, "pactwise-memory.db"))
		if err != nil {
			return nil, err
		}
		return &backend{
			shortTerm:    db.ShortTerm(),
			longTerm:     db.LongTerm(),
			associations: db.Associations(),
			close:        db.Close,
		}, nil
	}
}

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (environment variables override it)")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadConfigFile(*configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := openBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize %s storage: %v", cfg.Storage.Engine, err)
	}
	defer store.close()

	var embedder engine.EmbeddingProvider
	if cfg.Embedding.Enabled {
		embedder = engine.NewHTTPEmbeddingClient(engine.HTTPEmbeddingConfig{
			URL:     cfg.Embedding.URL,
			Model:   cfg.Embedding.Model,
			Timeout: cfg.Embedding.Timeout,
		})
		log.Printf("Embedding service enabled: %s (model %s)", cfg.Embedding.URL, cfg.Embedding.Model)
	}

	shortTerm := engine.NewShortTermService(store.shortTerm)
	longTerm := engine.NewLongTermService(store.longTerm, store.shortTerm, store.associations, embedder)
	consolidator := engine.NewConsolidator(store.shortTerm, longTerm)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr, wsHub, err := server.Start(ctx, cfg, server.Services{
		ShortTerm:      shortTerm,
		LongTerm:       longTerm,
		Consolidator:   consolidator,
		ShortTermStore: store.shortTerm,
		LongTermStore:  store.longTerm,
	})
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("Memory service listening on http://%s (storage: %s)", addr, cfg.Storage.Engine)

	go runSweeps(ctx, cfg, shortTerm, longTerm, consolidator, wsHub)

	// Relay sweep events written by an external memory-sweeper process onto
	// the activity feed.
	watcher := notify.NewEventWatcher(cfg.Storage.DataPath, func(e notify.Event) {
		wsHub.Broadcast(handlers.ActivityEvent{
			Type:  e.Type,
			Count: e.Count,
			At:    time.Now(),
		})
	})
	if err := watcher.Start(); err != nil {
		log.Printf("Sweep event watcher disabled: %v", err)
	} else {
		defer watcher.Stop()
	}

	<-ctx.Done()
	log.Println("Shutting down gracefully...")
	time.Sleep(500 * time.Millisecond) // let in-flight requests drain
}

// runSweeps drives the periodic maintenance loops: short-term expiry,
// long-term decay, and the background consolidation sweep.
func runSweeps(ctx context.Context, cfg *config.Config, shortTerm *engine.ShortTermService, longTerm *engine.LongTermService, consolidator *engine.Consolidator, wsHub *handlers.WebSocketHub) {
	expiry := time.NewTicker(cfg.Sweep.ExpiryInterval)
	decay := time.NewTicker(cfg.Sweep.DecayInterval)
	consolidation := time.NewTicker(cfg.Sweep.ConsolidationInterval)
	defer expiry.Stop()
	defer decay.Stop()
	defer consolidation.Stop()

	for {
		select {
		case <-expiry.C:
			if n, err := shortTerm.CleanupExpiredMemories(ctx); err != nil {
				log.Printf("Expiry sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("Expiry sweep processed %d expired short-term memories", n)
			}

		case <-decay.C:
			if n, err := longTerm.ApplyDecay(ctx); err != nil {
				log.Printf("Decay sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("Decay sweep touched %d long-term memories", n)
			}

		case <-consolidation.C:
			n, err := consolidator.RunAll(ctx, cfg.Sweep.ConsolidationBatch)
			if err != nil {
				log.Printf("Consolidation sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Consolidation sweep promoted %d memories", n)
				wsHub.Broadcast(handlers.ActivityEvent{
					Type:  handlers.EventConsolidated,
					Count: n,
					At:    time.Now(),
				})
			}

		case <-ctx.Done():
			return
		}
	}
}
