// Package counting owns the tick loop that drives the tracking engine and
// the running totals the dashboard reports. The engine counts nothing itself;
// the monitor increments its totals from the tracks each tick creates.
package counting

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/vehicle.count/internal/detect"
	"github.com/banshee-data/vehicle.count/internal/monitoring"
	"github.com/banshee-data/vehicle.count/internal/timeutil"
	"github.com/banshee-data/vehicle.count/internal/track"
)

// Recorder persists count history. A nil Recorder disables persistence; the
// monitor never depends on it for correctness.
type Recorder interface {
	// RecordTrack appends one row for a newly registered track.
	RecordTrack(id, class string, confidence float64, registeredAt time.Time) error

	// RecordHourlyCount upserts the per-class count for a closed hour bucket.
	RecordHourlyCount(hourStart time.Time, class string, count int) error
}

// Config holds the monitor's tuning parameters.
type Config struct {
	// Interval is the sleep between ticks.
	Interval time.Duration
	// HourlyBuckets is how many closed hour buckets the in-memory history
	// retains.
	HourlyBuckets int
}

// DefaultConfig matches production: two-second ticks, a day of hourly
// history.
func DefaultConfig() Config {
	return Config{
		Interval:      2 * time.Second,
		HourlyBuckets: 24,
	}
}

// Validate reports the first invalid parameter, if any.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %v", c.Interval)
	}
	if c.HourlyBuckets <= 0 {
		return fmt.Errorf("hourly buckets must be positive, got %d", c.HourlyBuckets)
	}
	return nil
}

// HourlyCount is one closed hour bucket of newly counted objects.
type HourlyCount struct {
	HourStart time.Time      `json:"hour_start"`
	Total     int            `json:"total"`
	ByClass   map[string]int `json:"by_class"`
}

// Monitor runs the tick loop: it pulls one detection list per tick from its
// Source, feeds the engine, and accumulates the unique-object total. All
// engine mutation happens on the Run goroutine, one tick fully processed
// before the next.
type Monitor struct {
	engine *track.Engine
	source detect.Source
	rec    Recorder
	clock  timeutil.Clock
	cfg    Config

	mu          sync.Mutex
	running     bool
	total       int
	lastReset   time.Time
	hourly      []HourlyCount
	hourStart   time.Time
	hourTotal   int
	hourByClass map[string]int
}

// NewMonitor wires a monitor over an engine and a detection source. rec may
// be nil.
func NewMonitor(engine *track.Engine, source detect.Source, rec Recorder, clock timeutil.Clock, cfg Config) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	now := clock.Now()
	return &Monitor{
		engine:      engine,
		source:      source,
		rec:         rec,
		clock:       clock,
		cfg:         cfg,
		lastReset:   now,
		hourStart:   now.Truncate(time.Hour),
		hourByClass: make(map[string]int),
	}, nil
}

// Engine exposes the underlying engine for read-only query handlers.
func (m *Monitor) Engine() *track.Engine { return m.engine }

// Run drives ticks until the context is cancelled. Stopping detection via
// Stop does not exit the loop; it only makes ticks no-ops, so a later Start
// resumes without respawning the goroutine.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := m.clock.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			m.Tick(ctx)
		}
	}
}

// Tick processes exactly one tick: read detections, update the engine, fold
// new tracks into the totals. It is a no-op while detection is stopped.
func (m *Monitor) Tick(ctx context.Context) {
	if !m.Running() {
		return
	}

	detections, err := m.source.Next(ctx)
	if err != nil {
		// Upstream failure is indistinguishable from an empty scene; the
		// engine only ever sees "zero detections this tick".
		monitoring.Logf("detection source error, treating tick as empty: %v", err)
		detections = nil
	}

	detections, dropped := detect.Filter(detections, m.engine.Config().Classes)
	if dropped > 0 {
		monitoring.Debugf("dropped %d invalid detections this tick", dropped)
	}

	created := m.engine.ProcessTick(detections)
	now := m.clock.Now()

	m.mu.Lock()
	m.rollOverHourLocked(now)
	m.total += len(created)
	m.hourTotal += len(created)
	for _, s := range created {
		m.hourByClass[s.Class]++
	}
	m.mu.Unlock()

	if len(created) > 0 {
		monitoring.Debugf("tick: %d detected, %d tracked, %d new",
			len(detections), m.engine.TrackCount(), len(created))
	}

	if m.rec == nil {
		return
	}
	for _, s := range created {
		if err := m.rec.RecordTrack(s.ID, s.Class, s.Confidence, s.CreatedAt); err != nil {
			monitoring.Logf("failed to record track %s: %v", s.ID, err)
		}
	}
}

// rollOverHourLocked closes the current hour bucket once now has moved past
// it, persisting the per-class counts and appending to the in-memory ring.
func (m *Monitor) rollOverHourLocked(now time.Time) {
	hour := now.Truncate(time.Hour)
	if !hour.After(m.hourStart) {
		return
	}

	closed := HourlyCount{
		HourStart: m.hourStart,
		Total:     m.hourTotal,
		ByClass:   m.hourByClass,
	}
	m.hourly = append(m.hourly, closed)
	if len(m.hourly) > m.cfg.HourlyBuckets {
		m.hourly = m.hourly[len(m.hourly)-m.cfg.HourlyBuckets:]
	}

	if m.rec != nil {
		for class, count := range closed.ByClass {
			if err := m.rec.RecordHourlyCount(closed.HourStart, class, count); err != nil {
				monitoring.Logf("failed to record hourly count for %s: %v", class, err)
			}
		}
	}

	m.hourStart = hour
	m.hourTotal = 0
	m.hourByClass = make(map[string]int)
}

// Start enables detection. Returns false if it was already running.
func (m *Monitor) Start() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return false
	}
	m.running = true
	return true
}

// Stop disables detection. The in-flight tick, if any, completes first.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
}

// Running reports whether detection is enabled.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Reset zeroes the running total and replaces the engine's registry. It
// serialises against Tick on the engine's own lock, so it never interleaves
// with an in-flight tick's engine mutation.
func (m *Monitor) Reset() {
	m.engine.Reset()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = 0
	m.lastReset = m.clock.Now()
}

// Total returns the number of unique objects counted since the last reset.
func (m *Monitor) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// LastReset returns when the count was last zeroed.
func (m *Monitor) LastReset() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReset
}

// Hourly returns the closed hour buckets, oldest first.
func (m *Monitor) Hourly() []HourlyCount {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]HourlyCount, len(m.hourly))
	copy(out, m.hourly)
	return out
}
