package planner

import (
	"fmt"
	"math"

	"study-planner/internal/models"
)

// MaxTotalMinutes bounds a study budget so every share fits in an int.
const MaxTotalMinutes = math.MaxInt32

// ValidateMinutes rejects budgets that cannot be allocated.
func ValidateMinutes(totalMinutes float64) error {
	if math.IsNaN(totalMinutes) || math.IsInf(totalMinutes, 0) {
		return fmt.Errorf("%w: total minutes must be finite, got %v", models.ErrInvalidInput, totalMinutes)
	}
	if totalMinutes < 0 {
		return fmt.Errorf("%w: total minutes must not be negative, got %v", models.ErrInvalidInput, totalMinutes)
	}
	if totalMinutes > MaxTotalMinutes {
		return fmt.Errorf("%w: total minutes must not exceed %d, got %v", models.ErrInvalidInput, MaxTotalMinutes, totalMinutes)
	}
	return nil
}

// Allocate splits totalMinutes across subtopics in proportion to their
// importance weights. Each share is rounded half-up, so the sum may drift
// from totalMinutes by up to half a minute per subtopic.
func Allocate(subtopics []models.Subtopic, totalMinutes float64) ([]models.AllocationResult, error) {
	if err := ValidateMinutes(totalMinutes); err != nil {
		return nil, err
	}

	results := make([]models.AllocationResult, 0, len(subtopics))
	if len(subtopics) == 0 {
		return results, nil
	}

	totalWeight := 0
	for _, s := range subtopics {
		totalWeight += s.Importance.Weight()
	}
	if totalWeight <= 0 {
		return nil, fmt.Errorf("%w: total importance weight is zero", models.ErrInvalidInput)
	}

	for _, s := range subtopics {
		share := float64(s.Importance.Weight()) / float64(totalWeight) * totalMinutes
		results = append(results, models.AllocationResult{
			Subtopic:      s,
			TimeAllocated: int(math.Floor(share + 0.5)),
		})
	}

	return results, nil
}
