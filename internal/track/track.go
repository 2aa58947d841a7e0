package track

import (
	"math"
	"time"
)

// Status is the presentation-layer freshness label for a track. It is derived
// from wall-clock time at snapshot, independently of the engine's tick-based
// disappearance counter: a track can render Expired while still registered
// and still eligible to be matched again.
type Status string

const (
	StatusActive  Status = "Active"
	StatusExpired Status = "Expired"
)

// DisplayExpiry is how long after the last match a snapshot reports Expired.
const DisplayExpiry = 10 * time.Second

// Track is one persistent object identity carried across ticks. Tracks are
// created, mutated and removed only by the Engine; everything outside the
// engine sees immutable Snapshot values.
type Track struct {
	ID    string
	Class string

	// Confidence is a running percentage estimate in [0,100], smoothed
	// across matches.
	Confidence float64

	Box      Box
	Centroid Point

	CreatedAt     time.Time
	LastMatchedAt time.Time
	MatchCount    int
}

func newTrack(id, class string, confidence float64, box Box, now time.Time) *Track {
	return &Track{
		ID:            id,
		Class:         class,
		Confidence:    round1(confidence * 100),
		Box:           box,
		Centroid:      box.Centroid(),
		CreatedAt:     now,
		LastMatchedAt: now,
		MatchCount:    1,
	}
}

// applyMatch folds a fresh detection into the track. Confidence is smoothed
// 70/30 toward the old value, favouring stability over the newest single
// reading.
func (t *Track) applyMatch(confidence float64, box Box, now time.Time) {
	t.Box = box
	t.Centroid = box.Centroid()
	t.LastMatchedAt = now
	t.MatchCount++
	t.Confidence = round1(0.7*t.Confidence + 0.3*confidence*100)
}

// Snapshot is an immutable read view of a track. Status and Duration are
// derived freshly at snapshot time, so two snapshots of the same track taken
// at different times may disagree.
type Snapshot struct {
	ID         string  `json:"id"`
	Class      string  `json:"vehicle_type"`
	Confidence float64 `json:"confidence_score"`
	Box        Box     `json:"bbox"`
	Status     Status  `json:"status"`
	MatchCount int     `json:"update_count"`
	DetectedAt string  `json:"detected_at"`
	Duration   string  `json:"duration"`

	CreatedAt     time.Time `json:"-"`
	LastMatchedAt time.Time `json:"-"`
}

// Snapshot produces the read view for a given observation time. It never
// mutates the track.
func (t *Track) Snapshot(now time.Time) Snapshot {
	status := StatusActive
	if now.Sub(t.LastMatchedAt) > DisplayExpiry {
		status = StatusExpired
	}
	return Snapshot{
		ID:            t.ID,
		Class:         t.Class,
		Confidence:    t.Confidence,
		Box:           t.Box,
		Status:        status,
		MatchCount:    t.MatchCount,
		DetectedAt:    t.CreatedAt.Format("15:04:05"),
		Duration:      now.Sub(t.CreatedAt).Truncate(time.Second).String(),
		CreatedAt:     t.CreatedAt,
		LastMatchedAt: t.LastMatchedAt,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
