package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	studyplanner "study-planner/agents/study-planner"
	"study-planner/agents/study-planner/api"
	"study-planner/agents/study-planner/youtube"
	"study-planner/internal/models"
	"study-planner/shared/config"
	"study-planner/shared/monitoring"
	"study-planner/shared/scheduler"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			health := monitoring.NewHealthServer(a.monitor, strconv.Itoa(a.config.Monitoring.HealthPort))
			router := api.NewRouter(&api.Server{
				Planner:    recordingPlanner{a},
				Selector:   a.selector,
				Decomposer: a.decomposer,
				Store:      a.store,
				Health:     health,
			})

			janitor := cron.New()
			if _, err := janitor.AddFunc("@every 1h", func() {
				if n := a.cache.Purge(); n > 0 {
					log.Printf("Purged %d expired cache entries", n)
				}
			}); err != nil {
				return fmt.Errorf("failed to schedule cache purge: %w", err)
			}
			janitor.Start()
			defer janitor.Stop()

			srv := &http.Server{
				Addr:    fmt.Sprintf(":%d", a.config.Server.Port),
				Handler: router,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Printf("Server running on port %d", a.config.Server.Port)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				log.Println("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
}

// recordingPlanner counts every plan served over HTTP in the monitor.
type recordingPlanner struct {
	a *app
}

func (r recordingPlanner) BuildPlan(ctx context.Context, topic string, totalMinutes float64) (*models.Plan, error) {
	plan, err := r.a.planner.BuildPlan(ctx, topic, totalMinutes)
	if err != nil {
		return nil, err
	}
	r.a.monitor.RecordPlan(len(plan.Entries), plan.MatchedCount())
	return plan, nil
}

func newPlanCmd() *cobra.Command {
	var (
		minutes float64
		save    bool
	)

	cmd := &cobra.Command{
		Use:   "plan <topic>",
		Short: "Build a study plan for a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			plan, err := a.planner.BuildPlan(cmd.Context(), args[0], minutes)
			if err != nil {
				return err
			}

			if save {
				if err := a.store.Save(cmd.Context(), plan); err != nil {
					return fmt.Errorf("failed to save plan: %w", err)
				}
			}

			printPlan(cmd, plan)
			return nil
		},
	}

	cmd.Flags().Float64VarP(&minutes, "minutes", "m", 60, "total study time in minutes")
	cmd.Flags().BoolVar(&save, "save", true, "store the plan in the plan history")
	return cmd
}

func printPlan(cmd *cobra.Command, plan *models.Plan) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Study plan: %s (%.0f minutes)\n", plan.Topic, plan.TotalMinutes)
	fmt.Fprintf(out, "Plan ID: %s\n\n", plan.ID)
	for i, e := range plan.Entries {
		fmt.Fprintf(out, "%2d. %s [%s] %d min\n", i+1, e.Subtopic, e.Importance, e.TimeAllocated)
		if e.VideoURL != nil {
			fmt.Fprintf(out, "    %s\n    %s\n", *e.VideoTitle, *e.VideoURL)
		} else {
			fmt.Fprintf(out, "    no video: %s\n", e.Error)
		}
	}
	fmt.Fprintf(out, "\n%d/%d subtopics matched\n", plan.MatchedCount(), len(plan.Entries))
}

func newDigestCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Plan the configured digest topics on a schedule and email them",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			agent := studyplanner.NewDigestAgent(a.config, a.planner, a.store, a.monitor)
			s := scheduler.New(a.config, a.monitor, agent)

			if once {
				fmt.Println("Running once...")
				if err := agent.Initialize(); err != nil {
					return fmt.Errorf("failed to initialize agent: %w", err)
				}
				return s.RunOnce(ctx)
			}

			fmt.Println("Starting scheduler...")
			if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("scheduler failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run a single digest and exit")
	return cmd
}

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize YouTube access with the OAuth device flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadYouTube()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return youtube.Authorize(cmd.Context(), &cfg.YouTube, cmd.OutOrStdout())
		},
	}
}
