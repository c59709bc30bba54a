// Demo wiring for the featuregate SDK: durable cache, env-driven options and
// the reactive watcher.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	featuregate "github.com/closetspace/featuregate-go-client"
	"github.com/closetspace/featuregate-go-client/storage/badgerstore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store, err := badgerstore.Open(badgerstore.DefaultConfig(filepath.Join(os.TempDir(), "featuregate-demo")))
	if err != nil {
		log.Error("failed to open cache store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	options, err := featuregate.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	options = append(options,
		featuregate.WithStorage(store),
		featuregate.WithLogger(log),
	)

	engine := featuregate.New("smart_outfits", options...)

	watcher := featuregate.NewWatcher(engine,
		featuregate.WithRefreshInterval(30*time.Second),
		featuregate.WithOnChange(func(state featuregate.WatcherState) {
			switch {
			case state.IsLoading:
				fmt.Println("evaluating...")
			case state.IsEvaluated():
				fmt.Printf("smart_outfits enabled=%v source=%s\n", state.Result.Enabled, state.Result.Source)
			}
		}),
	)
	watcher.Start(ctx, "demo-user", featuregate.CohortStandard)
	defer watcher.Stop()

	<-ctx.Done()

	check := engine.CanAccess()
	fmt.Printf("final gate decision: allowed=%v reason=%s\n", check.Allowed, check.Reason)
}
