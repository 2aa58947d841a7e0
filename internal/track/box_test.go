package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestBoxCentroid(t *testing.T) {
	t.Parallel()

	b := Box{X1: 80, Y1: 80, X2: 120, Y2: 120}
	c := b.Centroid()
	assert.Equal(t, Point{X: 100, Y: 100}, c)
}

func TestBoxArea(t *testing.T) {
	t.Parallel()

	t.Run("well-formed box", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 1600.0, Box{X1: 80, Y1: 80, X2: 120, Y2: 120}.Area())
	})

	t.Run("malformed box contributes no area", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 0.0, Box{X1: 120, Y1: 80, X2: 80, Y2: 120}.Area())
		assert.Equal(t, 0.0, Box{X1: 80, Y1: 120, X2: 120, Y2: 80}.Area())
		assert.Equal(t, 0.0, Box{X1: 10, Y1: 10, X2: 10, Y2: 10}.Area())
	})
}

func TestBoxIoU(t *testing.T) {
	t.Parallel()

	t.Run("identical boxes", func(t *testing.T) {
		t.Parallel()
		b := Box{X1: 0, Y1: 0, X2: 10, Y2: 10}
		assert.Equal(t, 1.0, b.IoU(b))
	})

	t.Run("disjoint boxes", func(t *testing.T) {
		t.Parallel()
		a := Box{X1: 0, Y1: 0, X2: 10, Y2: 10}
		b := Box{X1: 20, Y1: 20, X2: 30, Y2: 30}
		assert.Equal(t, 0.0, a.IoU(b))
	})

	t.Run("touching edges count as disjoint", func(t *testing.T) {
		t.Parallel()
		a := Box{X1: 0, Y1: 0, X2: 10, Y2: 10}
		b := Box{X1: 10, Y1: 0, X2: 20, Y2: 10}
		assert.Equal(t, 0.0, a.IoU(b))
	})

	t.Run("partial overlap", func(t *testing.T) {
		t.Parallel()
		a := Box{X1: 80, Y1: 80, X2: 120, Y2: 120}
		b := Box{X1: 82, Y1: 82, X2: 122, Y2: 122}
		// intersection 38x38 = 1444, union 3200-1444 = 1756
		assert.True(t, scalar.EqualWithinAbs(a.IoU(b), 1444.0/1756.0, 1e-9))
	})

	t.Run("malformed operand yields zero", func(t *testing.T) {
		t.Parallel()
		a := Box{X1: 0, Y1: 0, X2: 10, Y2: 10}
		bad := Box{X1: 10, Y1: 10, X2: 0, Y2: 0}
		assert.Equal(t, 0.0, a.IoU(bad))
	})
}

func TestPointDistance(t *testing.T) {
	t.Parallel()

	p := Point{X: 0, Y: 0}
	q := Point{X: 3, Y: 4}
	assert.Equal(t, 5.0, p.DistanceTo(q))
}
