package studyplanner

import (
	"context"
	"fmt"
	"log"
	"time"

	"study-planner/internal/models"
	"study-planner/shared/config"
	"study-planner/shared/email"
	"study-planner/shared/monitoring"
	"study-planner/shared/scheduler"
	"study-planner/shared/storage"
)

// PlanBuilder is satisfied by *planner.Planner.
type PlanBuilder interface {
	BuildPlan(ctx context.Context, topic string, totalMinutes float64) (*models.Plan, error)
}

// DigestSender is satisfied by *email.Sender.
type DigestSender interface {
	SendDigest(report *models.DigestReport) error
}

// DigestMetrics summarizes one digest run.
type DigestMetrics struct {
	Topics       int  `json:"topics"`
	Planned      int  `json:"planned"`
	Failed       int  `json:"failed"`
	Lessons      int  `json:"lessons"`
	MissingVideo int  `json:"missing_video"`
	EmailSent    bool `json:"email_sent"`
}

// GetSummary implements the scheduler.Metrics interface
func (m DigestMetrics) GetSummary() string {
	summary := fmt.Sprintf("planned %d/%d topics, %d lessons, %d subtopics without video",
		m.Planned, m.Topics, m.Lessons, m.MissingVideo)
	if m.EmailSent {
		return summary + ", email sent"
	}
	return summary + ", no email sent"
}

// DigestAgent plans the configured digest topics and mails the result. It
// implements the scheduler.Agent interface.
type DigestAgent struct {
	config  *config.Config
	planner PlanBuilder
	store   storage.PlanStore
	sender  DigestSender
	monitor *monitoring.Monitor
	now     func() time.Time
}

// NewDigestAgent wires an agent around an existing planner. store may be nil,
// in which case plans are only mailed.
func NewDigestAgent(cfg *config.Config, planner PlanBuilder, store storage.PlanStore, monitor *monitoring.Monitor) *DigestAgent {
	if monitor == nil {
		monitor = monitoring.NewMonitor()
	}
	return &DigestAgent{
		config:  cfg,
		planner: planner,
		store:   store,
		monitor: monitor,
		now:     time.Now,
	}
}

func (d *DigestAgent) Name() string {
	return "Study Digest"
}

func (d *DigestAgent) Initialize() error {
	log.Printf("Initializing %s...", d.Name())

	if d.planner == nil {
		return fmt.Errorf("planner is required")
	}

	if len(d.config.Digest.Topics) == 0 {
		return fmt.Errorf("no digest topics configured (digest.topics)")
	}

	if d.sender == nil {
		if err := d.config.ValidateEmail(); err != nil {
			return fmt.Errorf("invalid email configuration: %w", err)
		}
		d.sender = email.NewSender(&d.config.Email)
		log.Println("Email sender initialized")
	}

	log.Printf("Configured %d digest topics", len(d.config.Digest.Topics))
	return nil
}

func (d *DigestAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	metrics := DigestMetrics{Topics: len(d.config.Digest.Topics)}

	var plans []*models.Plan
	for i, t := range d.config.Digest.Topics {
		log.Printf("Planning topic %d/%d: %s (%.0f min)", i+1, metrics.Topics, t.Topic, t.Minutes)

		plan, err := d.planner.BuildPlan(ctx, t.Topic, t.Minutes)
		if err != nil {
			metrics.Failed++
			log.Printf("Warning: Failed to plan %q: %v", t.Topic, err)
			if events != nil && events.OnPartialFailure != nil {
				events.OnPartialFailure(fmt.Errorf("failed to plan %q: %w", t.Topic, err), time.Since(startTime))
			}
			continue
		}

		matched := plan.MatchedCount()
		metrics.Planned++
		metrics.Lessons += matched
		metrics.MissingVideo += len(plan.Entries) - matched
		d.monitor.RecordPlan(len(plan.Entries), matched)

		if d.store != nil {
			if err := d.store.Save(ctx, plan); err != nil {
				log.Printf("Warning: Failed to store plan %s: %v", plan.ID, err)
			}
		}

		plans = append(plans, plan)
	}

	if len(plans) == 0 {
		err := fmt.Errorf("all %d digest topics failed to plan", metrics.Topics)
		if events != nil && events.OnCriticalFailure != nil {
			events.OnCriticalFailure(err, time.Since(startTime))
		}
		return err
	}

	report := &models.DigestReport{
		Date:  d.now(),
		Plans: plans,
	}

	log.Printf("Sending digest with %d plans", len(plans))
	if err := d.sender.SendDigest(report); err != nil {
		if events != nil && events.OnCriticalFailure != nil {
			events.OnCriticalFailure(fmt.Errorf("failed to send digest: %w", err), time.Since(startTime))
		}
		return fmt.Errorf("failed to send digest: %w", err)
	}
	metrics.EmailSent = true
	log.Println("Digest sent successfully")

	duration := time.Since(startTime)
	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, duration)
	}

	log.Printf("Digest complete: %s", metrics.GetSummary())
	return nil
}
