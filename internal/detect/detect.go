// Package detect defines the boundary between the tracking core and whatever
// produces detections. Camera acquisition and neural-net inference live
// outside this repository; a Source stands in for them and hands the tick
// loop one detection list per call. Upstream failure is represented as an
// empty tick, never as an error the core has to interpret.
package detect

import (
	"context"
	"fmt"

	"github.com/banshee-data/vehicle.count/internal/track"
)

// Source supplies one tick's worth of detections. An empty slice is a normal
// result (an empty scene or a failed upstream read look identical to the
// core).
type Source interface {
	// Next returns the detections for the next tick. It must not block
	// beyond the given context.
	Next(ctx context.Context) ([]track.Detection, error)

	// Close releases any underlying resources.
	Close() error
}

// Validate checks a detection against the boundary contract: a configured
// class label and a confidence in [0,1]. Malformed bounding boxes are
// deliberately NOT rejected here; the geometry treats their area as zero so
// the core stays robust against a noisy detector.
func Validate(d track.Detection, classes []string) error {
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range [0,1]", d.Confidence)
	}
	for _, c := range classes {
		if d.Class == c {
			return nil
		}
	}
	return fmt.Errorf("unknown object class %q", d.Class)
}

// Filter returns the subset of detections that pass Validate, preserving
// order, along with how many were dropped.
func Filter(detections []track.Detection, classes []string) ([]track.Detection, int) {
	kept := detections[:0:0]
	dropped := 0
	for _, d := range detections {
		if err := Validate(d, classes); err != nil {
			dropped++
			continue
		}
		kept = append(kept, d)
	}
	return kept, dropped
}
