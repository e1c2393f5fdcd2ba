package models

import (
	"strings"
	"time"
)

type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

var importanceWeights = map[Importance]int{
	ImportanceHigh:   3,
	ImportanceMedium: 2,
	ImportanceLow:    1,
}

// Weight returns the allocation weight for the importance level.
// Unknown or empty levels weigh 1.
func (i Importance) Weight() int {
	normalized := Importance(strings.ToLower(strings.TrimSpace(string(i))))
	if w, ok := importanceWeights[normalized]; ok {
		return w
	}
	return 1
}

type Subtopic struct {
	Name       string     `json:"subtopic"`
	Importance Importance `json:"importance"`
}

type AllocationResult struct {
	Subtopic
	TimeAllocated int `json:"timeAllocated"`
}

// PlanEntry is one line of a study plan. Video fields are nil when no video
// could be selected for the subtopic; Error then carries the reason.
type PlanEntry struct {
	Subtopic      string     `json:"subtopic"`
	Importance    Importance `json:"importance"`
	TimeAllocated int        `json:"timeAllocated"`
	VideoTitle    *string    `json:"videoTitle"`
	VideoURL      *string    `json:"videoUrl"`
	Error         string     `json:"error,omitempty"`
}

type Plan struct {
	ID           string      `json:"id"`
	Topic        string      `json:"topic"`
	TotalMinutes float64     `json:"totalMinutes"`
	CreatedAt    time.Time   `json:"createdAt"`
	Entries      []PlanEntry `json:"entries"`
}

// MatchedCount returns how many entries received a video.
func (p *Plan) MatchedCount() int {
	n := 0
	for _, e := range p.Entries {
		if e.VideoURL != nil {
			n++
		}
	}
	return n
}

// DigestReport is the content of a scheduled study digest email.
type DigestReport struct {
	Date  time.Time `json:"date"`
	Plans []*Plan   `json:"plans"`
}
