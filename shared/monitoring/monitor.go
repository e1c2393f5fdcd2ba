package monitoring

import (
	"fmt"
	"log"
	"sync"
	"time"
)

type Monitor struct {
	mu             sync.Mutex
	lastRunSuccess bool
	lastRunTime    time.Time
	plansBuilt     int
	missingVideos  int
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.mu.Unlock()

	log.Printf("✅ Run completed successfully - %s (took %v)", summary, duration)
}

func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	// Don't change health status for partial failures
	log.Printf("⚠️  PARTIAL FAILURE: %s (Duration: %v)", err.Error(), duration)
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.mu.Unlock()

	log.Printf("🚨 CRITICAL FAILURE: %s (Duration: %v)", err.Error(), duration)
}

// RecordPlan counts a finished plan and the entries left without a video.
func (m *Monitor) RecordPlan(entries, matched int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plansBuilt++
	m.missingVideos += entries - matched
}

func (m *Monitor) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastRunTime.IsZero() {
		return true // No runs yet, assume healthy
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := fmt.Sprintf("%d plans built, %d subtopics without video", m.plansBuilt, m.missingVideos)
	if m.lastRunTime.IsZero() {
		return "No runs yet; " + counts
	}

	if m.lastRunSuccess {
		return fmt.Sprintf("✅ Last run: %s; %s", m.lastRunTime.Format("Jan 2 15:04"), counts)
	}
	return fmt.Sprintf("❌ Last run failed: %s; %s", m.lastRunTime.Format("Jan 2 15:04"), counts)
}
