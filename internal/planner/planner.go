package planner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"study-planner/internal/models"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Decomposer breaks a study topic into weighted subtopics.
type Decomposer interface {
	Decompose(ctx context.Context, topic string) ([]models.Subtopic, error)
}

// VideoSelector is satisfied by *Selector.
type VideoSelector interface {
	SelectVideo(ctx context.Context, query string, initialMaxDurationMinutes float64) (models.VideoSelection, error)
}

type Config struct {
	// DurationSlackMinutes is added to a subtopic's allocation to form the
	// initial max duration handed to the selector.
	DurationSlackMinutes float64
	// Concurrency bounds parallel selections. 1 processes subtopics in order.
	Concurrency int
	// SelectionTimeout, when set, is a deadline around each selection call.
	SelectionTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		DurationSlackMinutes: 10,
		Concurrency:          4,
	}
}

type Planner struct {
	decomposer Decomposer
	selector   VideoSelector
	config     Config
	now        func() time.Time
}

func New(decomposer Decomposer, selector VideoSelector, cfg Config) *Planner {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Planner{
		decomposer: decomposer,
		selector:   selector,
		config:     cfg,
		now:        time.Now,
	}
}

// SearchQuery is the provider query used for a subtopic.
func SearchQuery(subtopic string, minutes int) string {
	return fmt.Sprintf("%s explained in %d minutes", subtopic, minutes)
}

// BuildPlan decomposes topic, allocates totalMinutes and selects one video per
// subtopic. Entries keep the decomposition order. A failed selection only
// affects its own entry; decomposition and allocation failures abort the plan.
func (p *Planner) BuildPlan(ctx context.Context, topic string, totalMinutes float64) (*models.Plan, error) {
	if err := ValidateMinutes(totalMinutes); err != nil {
		return nil, err
	}

	log.Printf("Decomposing topic %q...", topic)
	subtopics, err := p.decomposer.Decompose(ctx, topic)
	if err != nil {
		if errors.Is(err, models.ErrDecompositionFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", models.ErrDecompositionFailure, err)
	}
	log.Printf("Got %d subtopics for %q", len(subtopics), topic)

	allocations, err := Allocate(subtopics, totalMinutes)
	if err != nil {
		return nil, err
	}

	entries := p.SelectVideos(ctx, allocations)

	return &models.Plan{
		ID:           uuid.NewString(),
		Topic:        topic,
		TotalMinutes: totalMinutes,
		CreatedAt:    p.now(),
		Entries:      entries,
	}, nil
}

// SelectVideos runs one selection per allocation and returns the entries in
// allocation order.
func (p *Planner) SelectVideos(ctx context.Context, allocations []models.AllocationResult) []models.PlanEntry {
	entries := make([]models.PlanEntry, len(allocations))

	g := new(errgroup.Group)
	g.SetLimit(p.config.Concurrency)

	for i, alloc := range allocations {
		g.Go(func() error {
			entries[i] = p.selectEntry(ctx, alloc)
			return nil
		})
	}
	_ = g.Wait()

	return entries
}

func (p *Planner) selectEntry(ctx context.Context, alloc models.AllocationResult) models.PlanEntry {
	entry := models.PlanEntry{
		Subtopic:      alloc.Name,
		Importance:    alloc.Importance,
		TimeAllocated: alloc.TimeAllocated,
	}

	if p.config.SelectionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.SelectionTimeout)
		defer cancel()
	}

	query := SearchQuery(alloc.Name, alloc.TimeAllocated)
	maxDuration := float64(alloc.TimeAllocated) + p.config.DurationSlackMinutes
	log.Printf("Searching videos for %q (max %.0f min)", query, maxDuration)

	selection, err := p.selector.SelectVideo(ctx, query, maxDuration)
	if err != nil {
		log.Printf("Warning: video search failed for %q: %v", alloc.Name, err)
		entry.Error = err.Error()
		return entry
	}
	if !selection.Found {
		log.Printf("No video found for %q after %d attempts", alloc.Name, selection.Attempts)
		entry.Error = models.ErrNoMatchFound.Error()
		return entry
	}

	log.Printf("Video found for %q: %s", alloc.Name, selection.VideoTitle)
	title, url := selection.VideoTitle, selection.VideoURL
	entry.VideoTitle = &title
	entry.VideoURL = &url
	return entry
}
