package track

import "fmt"

// EngineConfig holds the tuning parameters for the tracking engine, fixed at
// construction.
type EngineConfig struct {
	// MaxDisappearanceTicks is how many consecutive unmatched ticks a track
	// survives before it is deregistered.
	MaxDisappearanceTicks int
	// MaxMatchDistance is the centroid distance gate in pixels.
	MaxMatchDistance float64
	// Classes are the recognised detection labels.
	Classes []string
}

// DefaultEngineConfig returns the tuning used in production: permissive
// distance and disappearance windows suited to multiple simultaneous objects
// at ~2 ticks per second.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxDisappearanceTicks: 20,
		MaxMatchDistance:      120,
		Classes:               []string{"car", "motorcycle"},
	}
}

// Validate reports the first invalid parameter, if any.
func (c EngineConfig) Validate() error {
	if c.MaxMatchDistance <= 0 {
		return fmt.Errorf("max match distance must be positive, got %v", c.MaxMatchDistance)
	}
	if c.MaxDisappearanceTicks < 0 {
		return fmt.Errorf("max disappearance ticks must be non-negative, got %d", c.MaxDisappearanceTicks)
	}
	if len(c.Classes) == 0 {
		return fmt.Errorf("at least one object class is required")
	}
	return nil
}
