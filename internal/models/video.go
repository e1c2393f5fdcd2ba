package models

// SearchHit is a raw search result before any metadata is fetched.
type SearchHit struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// VideoDetails is the metadata the provider returns for a single video.
type VideoDetails struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	Duration     string `json:"duration"` // ISO 8601, e.g. PT12M30S
	LikeCount    uint64 `json:"like_count"`
	CommentCount uint64 `json:"comment_count"`
}

// VideoCandidate is a video whose duration has been parsed and can be ranked.
type VideoCandidate struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	URL             string  `json:"url"`
	DurationMinutes float64 `json:"duration_minutes"`
	LikeCount       uint64  `json:"like_count"`
	CommentCount    uint64  `json:"comment_count"`
}

// VideoSelection is the outcome of one selection call. Found is false when
// every attempt came back without an acceptable candidate.
type VideoSelection struct {
	Found              bool    `json:"found"`
	VideoTitle         string  `json:"videoTitle,omitempty"`
	VideoURL           string  `json:"videoUrl,omitempty"`
	Attempts           int     `json:"attempts"`
	MaxDurationMinutes float64 `json:"maxDurationMinutes"`
}
