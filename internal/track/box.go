package track

import "math"

// Point is a 2D image-plane coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the Euclidean distance between two points.
func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Box is an axis-aligned bounding box in pixel coordinates.
// A well-formed box has X1 < X2 and Y1 < Y2; malformed boxes from a noisy
// detector are tolerated and contribute zero area.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Centroid returns the geometric midpoint of the box.
func (b Box) Centroid() Point {
	return Point{X: (b.X1 + b.X2) / 2, Y: (b.Y1 + b.Y2) / 2}
}

// Area returns the box area, or 0 for malformed boxes.
func (b Box) Area() float64 {
	w := b.X2 - b.X1
	h := b.Y2 - b.Y1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// IoU returns the intersection-over-union of two boxes, 0 when they do not
// overlap or when the union has no area.
func (b Box) IoU(o Box) float64 {
	x1 := math.Max(b.X1, o.X1)
	y1 := math.Max(b.Y1, o.Y1)
	x2 := math.Min(b.X2, o.X2)
	y2 := math.Min(b.Y2, o.Y2)

	if x2 <= x1 || y2 <= y1 {
		return 0
	}

	intersection := (x2 - x1) * (y2 - y1)
	union := b.Area() + o.Area() - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}
