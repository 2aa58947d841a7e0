package track

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/vehicle.count/internal/timeutil"
)

// Detection is one detector output for a single tick: a class label, a
// confidence in [0,1] and a bounding box.
type Detection struct {
	Class      string  `json:"vehicle_type"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"bbox"`
}

// Assignment cost model. A pair must pass all three gates (class equality,
// centroid distance, minimum overlap) to be feasible; feasible cost blends
// normalised distance with inverse overlap, lower is better.
const (
	// InfeasibleCost marks a (track, detection) pair that fails a gate.
	InfeasibleCost = 999.0
	// maxAcceptedCost is the greedy cutoff: the scan stops once the smallest
	// remaining cost reaches it.
	maxAcceptedCost = 1.0
	// minMatchIoU is the overlap gate.
	minMatchIoU = 0.05

	distanceWeight = 0.6
	overlapWeight  = 0.4
)

// ClassStat is the per-class aggregation over currently registered tracks.
type ClassStat struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Engine owns the track registry and runs the per-tick matching algorithm.
// All mutation happens inside ProcessTick and Reset; reads take consistent
// snapshots. One mutex serialises a full tick against a full read pass, so a
// reader never observes a track mid-mutation.
type Engine struct {
	mu    sync.RWMutex
	cfg   EngineConfig
	clock timeutil.Clock

	tracks map[string]*Track
	// order holds track ids in registration order. The map alone would give
	// nondeterministic iteration; the greedy scan and the aging pass both
	// walk this slice so tie-breaks are reproducible.
	order []string
	// disappeared counts consecutive unmatched ticks per track id. Its key
	// set always equals the registry's.
	disappeared map[string]int
	// issued remembers every id ever handed out so ids are never reused
	// within the engine's lifetime, even after deregistration or Reset.
	issued map[string]struct{}
}

// NewEngine validates the configuration and returns a ready engine. A nil
// clock falls back to the real clock.
func NewEngine(cfg EngineConfig, clock timeutil.Clock) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	e := &Engine{
		cfg:    cfg,
		clock:  clock,
		issued: make(map[string]struct{}),
	}
	e.resetLocked()
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() EngineConfig {
	return e.cfg
}

// ProcessTick folds one tick of detections into the registry and returns
// snapshots of the tracks created during this call, in creation order.
// A nil or empty detection list ages every track; a track whose
// disappearance count exceeds the configured threshold is deregistered. No
// track is both matched and deregistered, or created and deregistered, in
// the same tick.
func (e *Engine) ProcessTick(detections []Detection) []Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()

	if len(detections) == 0 {
		e.ageAllLocked()
		return nil
	}

	// Cold start: nothing to match against.
	if len(e.tracks) == 0 {
		created := make([]Snapshot, 0, len(detections))
		for _, d := range detections {
			created = append(created, e.registerLocked(d, now).Snapshot(now))
		}
		return created
	}

	// Cost matrix, rows in registration order.
	costs := make([][]float64, len(e.order))
	for i, id := range e.order {
		t := e.tracks[id]
		row := make([]float64, len(detections))
		for j, d := range detections {
			row[j] = e.matchCost(t, d)
		}
		costs[i] = row
	}

	// Greedy assignment: repeatedly commit the globally smallest feasible
	// cost. First strict minimum in scan order wins, which keeps ties
	// deterministic. This is deliberately not an optimal bipartite match;
	// downstream counts depend on these exact semantics.
	matchedTrack := make([]bool, len(e.order))
	matchedDet := make([]bool, len(detections))
	rounds := len(e.order)
	if len(detections) < rounds {
		rounds = len(detections)
	}
	for r := 0; r < rounds; r++ {
		best := math.Inf(1)
		bi, bj := -1, -1
		for i := range costs {
			if matchedTrack[i] {
				continue
			}
			for j := range costs[i] {
				if matchedDet[j] {
					continue
				}
				if costs[i][j] < best {
					best = costs[i][j]
					bi, bj = i, j
				}
			}
		}
		if bi < 0 || best >= maxAcceptedCost {
			break
		}
		matchedTrack[bi] = true
		matchedDet[bj] = true

		id := e.order[bi]
		d := detections[bj]
		e.tracks[id].applyMatch(d.Confidence, d.Box, now)
		e.disappeared[id] = 0
	}

	// Unmatched tracks age out.
	var expired []string
	for i, id := range e.order {
		if matchedTrack[i] {
			continue
		}
		e.disappeared[id]++
		if e.disappeared[id] > e.cfg.MaxDisappearanceTicks {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		e.deregisterLocked(id)
	}

	// Unmatched detections start new tracks, in input order.
	var created []Snapshot
	for j, d := range detections {
		if !matchedDet[j] {
			created = append(created, e.registerLocked(d, now).Snapshot(now))
		}
	}
	return created
}

// matchCost computes the assignment cost for one (track, detection) pair.
func (e *Engine) matchCost(t *Track, d Detection) float64 {
	if t.Class != d.Class {
		return InfeasibleCost
	}
	dist := t.Centroid.DistanceTo(d.Box.Centroid())
	if dist > e.cfg.MaxMatchDistance {
		return InfeasibleCost
	}
	iou := t.Box.IoU(d.Box)
	if iou < minMatchIoU {
		return InfeasibleCost
	}
	return distanceWeight*(dist/e.cfg.MaxMatchDistance) + overlapWeight*(1-iou)
}

// Reset discards the registry and starts fresh with the same configuration.
// Previously issued ids remain retired.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *Engine) resetLocked() {
	e.tracks = make(map[string]*Track)
	e.order = nil
	e.disappeared = make(map[string]int)
}

// ageAllLocked handles the empty-detections tick: every track's disappearance
// count increments, over-threshold tracks are removed. Safe on an empty
// registry.
func (e *Engine) ageAllLocked() {
	var expired []string
	for _, id := range e.order {
		e.disappeared[id]++
		if e.disappeared[id] > e.cfg.MaxDisappearanceTicks {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		e.deregisterLocked(id)
	}
}

func (e *Engine) registerLocked(d Detection, now time.Time) *Track {
	id := e.nextIDLocked()
	t := newTrack(id, d.Class, d.Confidence, d.Box, now)
	e.tracks[id] = t
	e.order = append(e.order, id)
	e.disappeared[id] = 0
	return t
}

func (e *Engine) deregisterLocked(id string) {
	delete(e.tracks, id)
	delete(e.disappeared, id)
	for i, v := range e.order {
		if v == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// nextIDLocked returns a short unique id. Collisions against previously
// issued ids are vanishingly unlikely but checked anyway.
func (e *Engine) nextIDLocked() string {
	for {
		id := uuid.NewString()[:8]
		if _, taken := e.issued[id]; !taken {
			e.issued[id] = struct{}{}
			return id
		}
	}
}

// SnapshotAll returns snapshots of every registered track, most recently
// matched first.
func (e *Engine) SnapshotAll() []Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	now := e.clock.Now()
	out := make([]Snapshot, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.tracks[id].Snapshot(now))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMatchedAt.After(out[j].LastMatchedAt)
	})
	return out
}

// CountByClass returns per-class counts and percentage shares over the
// currently registered tracks. Every configured class appears in the result;
// an empty registry yields zeros, not a divide-by-zero.
func (e *Engine) CountByClass() map[string]ClassStat {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stats := make(map[string]ClassStat, len(e.cfg.Classes))
	for _, class := range e.cfg.Classes {
		stats[class] = ClassStat{}
	}
	total := len(e.tracks)
	if total == 0 {
		return stats
	}
	for _, t := range e.tracks {
		s, ok := stats[t.Class]
		if !ok {
			continue
		}
		s.Count++
		stats[t.Class] = s
	}
	for class, s := range stats {
		s.Percentage = round1(float64(s.Count) / float64(total) * 100)
		stats[class] = s
	}
	return stats
}

// ActiveCount returns how many registered tracks currently derive an Active
// display status.
func (e *Engine) ActiveCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	now := e.clock.Now()
	active := 0
	for _, t := range e.tracks {
		if now.Sub(t.LastMatchedAt) <= DisplayExpiry {
			active++
		}
	}
	return active
}

// TrackCount returns the number of currently registered tracks.
func (e *Engine) TrackCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.tracks)
}
