package detect

import (
	"context"
	"math/rand"
	"sync"

	"github.com/banshee-data/vehicle.count/internal/track"
)

// Simulation shape: a burst of one to three objects every few ticks, with
// boxes spread horizontally so simultaneous objects do not overlap each
// other.
const (
	simBurstEvery   = 3
	simMaxObjects   = 3
	simBaseX        = 100
	simBaseY        = 100
	simSpreadX      = 150
	simJitter       = 20
	simMinBoxWidth  = 80
	simMaxBoxWidth  = 120
	simMinBoxHeight = 60
	simMaxBoxHeight = 100
)

// SimSource generates synthetic detections when no camera is available. The
// generator is seeded so dev runs are reproducible.
type SimSource struct {
	mu      sync.Mutex
	classes []string
	rng     *rand.Rand
	tick    int
}

// NewSimSource creates a simulated detection source over the given class
// labels.
func NewSimSource(classes []string, seed int64) *SimSource {
	return &SimSource{
		classes: classes,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Next returns a burst of detections every third tick and an empty list
// otherwise, approximating intermittent traffic.
func (s *SimSource) Next(ctx context.Context) ([]track.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick++
	if s.tick%simBurstEvery != 0 {
		return nil, nil
	}

	n := 1 + s.rng.Intn(simMaxObjects)
	detections := make([]track.Detection, 0, n)
	for i := 0; i < n; i++ {
		baseX := float64(simBaseX + i*simSpreadX)
		baseY := float64(simBaseY + s.rng.Intn(61) - 30)

		x1 := baseX + float64(s.rng.Intn(2*simJitter+1)-simJitter)
		y1 := baseY + float64(s.rng.Intn(2*simJitter+1)-simJitter)
		x2 := x1 + float64(simMinBoxWidth+s.rng.Intn(simMaxBoxWidth-simMinBoxWidth+1))
		y2 := y1 + float64(simMinBoxHeight+s.rng.Intn(simMaxBoxHeight-simMinBoxHeight+1))

		detections = append(detections, track.Detection{
			Class:      s.classes[s.rng.Intn(len(s.classes))],
			Confidence: 0.6 + s.rng.Float64()*0.35,
			Box:        track.Box{X1: x1, Y1: y1, X2: x2, Y2: y2},
		})
	}
	return detections, nil
}

// Close implements Source.
func (s *SimSource) Close() error { return nil }
