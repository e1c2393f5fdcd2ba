package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"study-planner/shared/config"
	"study-planner/shared/monitoring"

	"github.com/robfig/cron/v3"
)

// Metrics is what a job reports after a completed run.
type Metrics interface {
	GetSummary() string
}

// AgentEvents lets a job report outcomes while it runs. Any callback may be
// nil.
type AgentEvents struct {
	OnSuccess         func(metrics Metrics, duration time.Duration)
	OnPartialFailure  func(err error, duration time.Duration)
	OnCriticalFailure func(err error, duration time.Duration)
}

// Agent is a job the scheduler can run on the digest schedule.
type Agent interface {
	Name() string
	RunOnce(ctx context.Context, events *AgentEvents) error
	Initialize() error
}

// Scheduler triggers an Agent on digest.schedule and feeds its
// outcomes into a monitoring.Monitor.
type Scheduler struct {
	config  *config.Config
	monitor *monitoring.Monitor
	agent   Agent
	cron    *cron.Cron
}

func New(cfg *config.Config, monitor *monitoring.Monitor, agent Agent) *Scheduler {
	if monitor == nil {
		monitor = monitoring.NewMonitor()
	}

	// A digest still planning when the next tick fires is left to finish.
	runner := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	return &Scheduler{
		config:  cfg,
		monitor: monitor,
		agent:   agent,
		cron:    runner,
	}
}

// Start initializes the agent, serves health checks and blocks running the
// schedule until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.agent.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	schedule := s.config.Digest.Schedule
	if _, err := s.cron.AddFunc(schedule, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	port := strconv.Itoa(s.config.Monitoring.HealthPort)
	monitoring.NewHealthServer(s.monitor, port).Start()

	log.Printf("%s scheduled with %q", s.agent.Name(), schedule)
	s.cron.Start()

	<-ctx.Done()
	log.Printf("Stopping %s schedule", s.agent.Name())
	<-s.cron.Stop().Done()
	return ctx.Err()
}

func (s *Scheduler) tick(ctx context.Context) {
	if err := s.RunOnce(ctx); err != nil {
		log.Printf("Scheduled %s run failed: %v", s.agent.Name(), err)
	}
}

// RunOnce performs a single agent run and records the outcome.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	name := s.agent.Name()
	started := time.Now()
	log.Printf("Starting %s run...", name)

	if err := s.agent.RunOnce(ctx, s.events(name)); err != nil {
		s.monitor.RecordCriticalFailure(fmt.Errorf("%s failed: %w", name, err), time.Since(started))
		return fmt.Errorf("%s run failed: %w", name, err)
	}
	return nil
}

func (s *Scheduler) events(name string) *AgentEvents {
	return &AgentEvents{
		OnSuccess: func(metrics Metrics, duration time.Duration) {
			s.monitor.RecordSuccess(metrics.GetSummary(), duration)
		},
		OnPartialFailure: func(err error, duration time.Duration) {
			s.monitor.RecordPartialFailure(fmt.Errorf("%s: %w", name, err), duration)
		},
		OnCriticalFailure: func(err error, duration time.Duration) {
			s.monitor.RecordCriticalFailure(fmt.Errorf("%s: %w", name, err), duration)
		},
	}
}
