package detect

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/banshee-data/vehicle.count/internal/track"
)

// ReplaySource plays back recorded detections from fixture data for dev mode.
// Each non-empty line is a JSON array of detections for one tick; a blank
// line is an empty tick. Playback wraps around at the end so a short fixture
// drives an indefinite run.
type ReplaySource struct {
	mu    sync.Mutex
	ticks [][]track.Detection
	pos   int
}

// NewReplaySource parses JSON-lines fixture data into a replayable source.
func NewReplaySource(data []byte) (*ReplaySource, error) {
	var ticks [][]track.Detection

	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			ticks = append(ticks, nil)
			continue
		}
		var detections []track.Detection
		if err := json.Unmarshal(raw, &detections); err != nil {
			return nil, fmt.Errorf("fixture line %d: %w", line, err)
		}
		ticks = append(ticks, detections)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fixture data: %w", err)
	}
	if len(ticks) == 0 {
		return nil, fmt.Errorf("fixture data contains no ticks")
	}

	return &ReplaySource{ticks: ticks}, nil
}

// Next returns the next recorded tick, wrapping to the start after the last.
func (r *ReplaySource) Next(ctx context.Context) ([]track.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tick := r.ticks[r.pos]
	r.pos = (r.pos + 1) % len(r.ticks)

	// Hand out a copy so a caller cannot mutate the fixture.
	out := make([]track.Detection, len(tick))
	copy(out, tick)
	return out, nil
}

// Close implements Source.
func (r *ReplaySource) Close() error { return nil }
