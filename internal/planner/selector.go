package planner

import (
	"context"
	"fmt"
	"log"
	"sort"

	"study-planner/internal/models"
)

// VideoProvider is the external video search and metadata service.
type VideoProvider interface {
	Search(ctx context.Context, query string, limit int) ([]models.SearchHit, error)
	Details(ctx context.Context, ids []string) ([]models.VideoDetails, error)
}

type SelectorConfig struct {
	MaxRetries         int
	ThresholdMinutes   float64
	MinDurationMinutes float64
	SearchLimit        int
	// FastFirstAttempt returns the top raw search hit on the first attempt
	// without looking at its duration.
	FastFirstAttempt bool
}

func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		MaxRetries:         4,
		ThresholdMinutes:   5,
		MinDurationMinutes: 2,
		SearchLimit:        15,
		FastFirstAttempt:   true,
	}
}

// Selector picks one video per query. It keeps no state between calls and is
// safe for concurrent use.
type Selector struct {
	provider VideoProvider
	config   SelectorConfig
}

func NewSelector(provider VideoProvider, cfg SelectorConfig) *Selector {
	return &Selector{
		provider: provider,
		config:   cfg,
	}
}

type attemptState struct {
	attempt     int
	maxDuration float64
}

func (s attemptState) next(threshold float64) attemptState {
	return attemptState{attempt: s.attempt + 1, maxDuration: s.maxDuration + threshold}
}

// SelectVideo searches for query and returns the best-engaged video whose
// length fits the current duration window, widening the window after every
// empty attempt. Running out of attempts is reported as a selection with
// Found set to false; only provider failures are returned as errors.
func (s *Selector) SelectVideo(ctx context.Context, query string, initialMaxDurationMinutes float64) (models.VideoSelection, error) {
	state := attemptState{maxDuration: initialMaxDurationMinutes}

	for ; state.attempt <= s.config.MaxRetries; state = state.next(s.config.ThresholdMinutes) {
		hits, err := s.provider.Search(ctx, query, s.config.SearchLimit)
		if err != nil {
			return models.VideoSelection{}, fmt.Errorf("%w: search %q: %v", models.ErrProviderFailure, query, err)
		}

		if state.attempt == 0 && s.config.FastFirstAttempt && len(hits) > 0 {
			return s.found(state, hits[0].Title, hits[0].URL), nil
		}

		if len(hits) > 0 {
			best, err := s.bestCandidate(ctx, hits, state.maxDuration)
			if err != nil {
				return models.VideoSelection{}, err
			}
			if best != nil {
				return s.found(state, best.Title, best.URL), nil
			}
		}

		log.Printf("No acceptable video for %q (attempt %d, max %.1f min)", query, state.attempt+1, state.maxDuration)
	}

	return models.VideoSelection{
		Attempts:           state.attempt,
		MaxDurationMinutes: state.maxDuration - s.config.ThresholdMinutes,
	}, nil
}

func (s *Selector) found(state attemptState, title, url string) models.VideoSelection {
	return models.VideoSelection{
		Found:              true,
		VideoTitle:         title,
		VideoURL:           url,
		Attempts:           state.attempt + 1,
		MaxDurationMinutes: state.maxDuration,
	}
}

func (s *Selector) bestCandidate(ctx context.Context, hits []models.SearchHit, maxDuration float64) (*models.VideoCandidate, error) {
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}

	details, err := s.provider.Details(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: video details: %v", models.ErrProviderFailure, err)
	}

	candidates := make([]models.VideoCandidate, 0, len(details))
	for _, d := range details {
		minutes, err := ParseDurationMinutes(d.Duration)
		if err != nil {
			log.Printf("Warning: skipping video %s: %v", d.ID, err)
			continue
		}
		c := models.VideoCandidate{
			ID:              d.ID,
			Title:           d.Title,
			URL:             d.URL,
			DurationMinutes: minutes,
			LikeCount:       d.LikeCount,
			CommentCount:    d.CommentCount,
		}
		if s.acceptable(c, maxDuration) {
			candidates = append(candidates, c)
		}
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	rankCandidates(candidates)
	return &candidates[0], nil
}

// acceptable drops short-form clips and anything outside
// [maxDuration/2, maxDuration].
func (s *Selector) acceptable(c models.VideoCandidate, maxDuration float64) bool {
	if c.DurationMinutes < s.config.MinDurationMinutes {
		return false
	}
	if c.DurationMinutes > maxDuration {
		return false
	}
	return maxDuration-c.DurationMinutes <= maxDuration/2
}

func rankCandidates(candidates []models.VideoCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].LikeCount != candidates[j].LikeCount {
			return candidates[i].LikeCount > candidates[j].LikeCount
		}
		return candidates[i].CommentCount > candidates[j].CommentCount
	})
}
