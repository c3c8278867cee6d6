// Command memory-sweeper runs the maintenance sweeps (short-term expiry,
// long-term decay, background consolidation) against the configured store.
// It is intended for deployments that run the API server with sweeps
// disabled and schedule maintenance externally, e.g. from cron.
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
	"github.com/dpxrk/pactwise-memory/internal/storage"
	"github.com/dpxrk/pactwise-memory/internal/storage/postgres"
	"github.com/dpxrk/pactwise-memory/internal/storage/sqlite"
)

var (
	configPath   = flag.String("config", "", "Path to YAML config file (optional, uses env vars by default)")
	oneshot      = flag.Bool("oneshot", false, "Run each sweep once and exit")
	skipExpiry   = flag.Bool("skip-expiry", false, "Skip the short-term expiry sweep")
	skipDecay    = flag.Bool("skip-decay", false, "Skip the long-term decay sweep")
	skipPromote  = flag.Bool("skip-consolidation", false, "Skip the consolidation sweep")
	sweepTimeout = flag.Duration("timeout", 5*time.Minute, "Per-sweep timeout")
)

// events reports sweep results to a co-located API server via the shared
// events directory. Set in main once the config is loaded.
var events *notify.EventWriter

func main() {
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
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shortStore, longStore, associations, closeFn, err := openStores(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.Storage.Engine, err)
	}
	defer closeFn()

	events = notify.NewEventWriter(cfg.Storage.DataPath)

	shortTerm := engine.NewShortTermService(shortStore)
	longTerm := engine.NewLongTermService(longStore, shortStore, associations, nil)
	consolidator := engine.NewConsolidator(shortStore, longTerm)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *oneshot {
		runAll(ctx, cfg, shortTerm, longTerm, consolidator)
		return
	}

	log.Printf("Sweeper running (expiry %s, decay %s, consolidation %s)",
		cfg.Sweep.ExpiryInterval, cfg.Sweep.DecayInterval, cfg.Sweep.ConsolidationInterval)

	expiry := time.NewTicker(cfg.Sweep.ExpiryInterval)
	decay := time.NewTicker(cfg.Sweep.DecayInterval)
	consolidation := time.NewTicker(cfg.Sweep.ConsolidationInterval)
	defer expiry.Stop()
	defer decay.Stop()
	defer consolidation.Stop()

	for {
		select {
		case <-expiry.C:
			if !*skipExpiry {
				runExpiry(ctx, shortTerm)
			}
		case <-decay.C:
			if !*skipDecay {
				runDecay(ctx, longTerm)
			}
		case <-consolidation.C:
			if !*skipPromote {
				runConsolidation(ctx, cfg, consolidator)
			}
		case <-ctx.Done():
			log.Println("Sweeper shutting down")
			return
		}
	}
}

func openStores(cfg *config.Config) (storage.ShortTermStore, storage.LongTermStore, storage.AssociationStore, func() error, error) {
	if cfg.Storage.Engine == "postgres" {
		db, err := postgres.Open(cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return db.ShortTerm(), db.LongTerm(), db.Associations(), db.Close, nil
	}

	db, err := sqlite.Open(filepath.Join(cfg.Storage.DataPath, "pactwise-memory.db"))
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return db.ShortTerm(), db.LongTerm(), db.Associations(), db.Close, nil
}

func runAll(ctx context.Context, cfg *config.Config, shortTerm *engine.ShortTermService, longTerm *engine.LongTermService, consolidator *engine.Consolidator) {
	if !*skipExpiry {
		runExpiry(ctx, shortTerm)
	}
	if !*skipDecay {
		runDecay(ctx, longTerm)
	}
	if !*skipPromote {
		runConsolidation(ctx, cfg, consolidator)
	}
}

func runExpiry(ctx context.Context, shortTerm *engine.ShortTermService) {
	ctx, cancel := context.WithTimeout(ctx, *sweepTimeout)
	defer cancel()

	n, err := shortTerm.CleanupExpiredMemories(ctx)
	if err != nil {
		log.Printf("Expiry sweep failed: %v", err)
		return
	}
	log.Printf("Expiry sweep processed %d expired short-term memories", n)
	report(notify.EventExpirySweep, n)
}

func runDecay(ctx context.Context, longTerm *engine.LongTermService) {
	ctx, cancel := context.WithTimeout(ctx, *sweepTimeout)
	defer cancel()

	n, err := longTerm.ApplyDecay(ctx)
	if err != nil {
		log.Printf("Decay sweep failed: %v", err)
		return
	}
	log.Printf("Decay sweep touched %d long-term memories", n)
	report(notify.EventDecaySweep, n)
}

func runConsolidation(ctx context.Context, cfg *config.Config, consolidator *engine.Consolidator) {
	ctx, cancel := context.WithTimeout(ctx, *sweepTimeout)
	defer cancel()

	n, err := consolidator.RunAll(ctx, cfg.Sweep.ConsolidationBatch)
	if err != nil {
		log.Printf("Consolidation sweep failed: %v", err)
		return
	}
	log.Printf("Consolidation sweep promoted %d memories", n)
	report(notify.EventConsolidationSweep, n)
}

// report emits a sweep event when the sweep touched anything.
func report(eventType string, count int) {
	if events == nil || count == 0 {
		return
	}
	if err := events.Notify(eventType, count); err != nil {
		log.Printf("Failed to write sweep event: %v", err)
	}
}
