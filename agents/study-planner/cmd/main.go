package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"study-planner/agents/study-planner/youtube"
	"study-planner/internal/planner"
	"study-planner/shared/ai"
	"study-planner/shared/cache"
	"study-planner/shared/config"
	"study-planner/shared/monitoring"
	"study-planner/shared/storage"

	"github.com/spf13/cobra"
)

func main() {
	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "study-planner",
		Short:         "Turn a study topic and a time budget into a sequence of video lessons",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newPlanCmd(),
		newDigestCmd(),
		newAuthCmd(),
	)
	return root
}

// app holds the components shared by every command.
type app struct {
	config     *config.Config
	cache      *cache.Tiered
	decomposer *ai.Decomposer
	selector   *planner.Selector
	planner    *planner.Planner
	store      storage.PlanStore
	monitor    *monitoring.Monitor
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	c := cache.New(cfg.Cache.RedisURL, time.Duration(cfg.Cache.TTLMinutes)*time.Minute)

	decomposer, err := ai.NewDecomposer(&cfg.AI, c)
	if err != nil {
		c.Close()
		return nil, err
	}
	log.Println("AI decomposer initialized")

	client, err := youtube.NewClient(ctx, &cfg.YouTube)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}
	log.Println("YouTube client initialized")

	selector := planner.NewSelector(client, selectorConfig(cfg))
	p := planner.New(decomposer, selector, plannerConfig(cfg))

	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path,
		time.Duration(cfg.Storage.RetentionDays)*24*time.Hour)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to open plan store: %w", err)
	}
	log.Printf("Plan store initialized (%s at %s)", cfg.Storage.Backend, cfg.Storage.Path)

	return &app{
		config:     cfg,
		cache:      c,
		decomposer: decomposer,
		selector:   selector,
		planner:    p,
		store:      store,
		monitor:    monitoring.NewMonitor(),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Printf("Warning: failed to close plan store: %v", err)
	}
	if err := a.cache.Close(); err != nil {
		log.Printf("Warning: failed to close cache: %v", err)
	}
}

func selectorConfig(cfg *config.Config) planner.SelectorConfig {
	sc := planner.SelectorConfig{
		MaxRetries:         4,
		ThresholdMinutes:   5,
		MinDurationMinutes: cfg.Selector.MinDurationMinutes,
		SearchLimit:        cfg.Selector.SearchLimit,
		FastFirstAttempt:   true,
	}
	if cfg.Selector.MaxRetries != nil {
		sc.MaxRetries = *cfg.Selector.MaxRetries
	}
	if cfg.Selector.ThresholdMinutes != nil {
		sc.ThresholdMinutes = *cfg.Selector.ThresholdMinutes
	}
	if cfg.Selector.FastFirstAttempt != nil {
		sc.FastFirstAttempt = *cfg.Selector.FastFirstAttempt
	}
	return sc
}

func plannerConfig(cfg *config.Config) planner.Config {
	return planner.Config{
		DurationSlackMinutes: cfg.Planner.DurationSlackMinutes,
		Concurrency:          cfg.Planner.Concurrency,
		SelectionTimeout:     time.Duration(cfg.Planner.SelectionTimeoutSeconds) * time.Second,
	}
}
