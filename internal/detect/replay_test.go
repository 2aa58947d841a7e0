package detect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const replayFixture = `[{"vehicle_type":"car","confidence":0.9,"bbox":{"x1":80,"y1":80,"x2":120,"y2":120}}]

[{"vehicle_type":"motorcycle","confidence":0.7,"bbox":{"x1":300,"y1":80,"x2":360,"y2":140}},{"vehicle_type":"car","confidence":0.85,"bbox":{"x1":500,"y1":80,"x2":580,"y2":160}}]
`

func TestReplaySourcePlaysTicksInOrder(t *testing.T) {
	t.Parallel()

	src, err := NewReplaySource([]byte(replayFixture))
	require.NoError(t, err)
	defer src.Close()
	ctx := context.Background()

	first, err := src.Next(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "car", first[0].Class)
	assert.Equal(t, 0.9, first[0].Confidence)
	assert.Equal(t, 80.0, first[0].Box.X1)

	second, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Empty(t, second, "blank fixture line is an empty tick")

	third, err := src.Next(ctx)
	require.NoError(t, err)
	require.Len(t, third, 2)
	assert.Equal(t, "motorcycle", third[0].Class)
}

func TestReplaySourceWrapsAround(t *testing.T) {
	t.Parallel()

	src, err := NewReplaySource([]byte(replayFixture))
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		src.Next(ctx)
	}
	again, err := src.Next(ctx)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, "car", again[0].Class)
}

func TestReplaySourceCopiesTicks(t *testing.T) {
	t.Parallel()

	src, err := NewReplaySource([]byte(replayFixture))
	require.NoError(t, err)
	ctx := context.Background()

	first, err := src.Next(ctx)
	require.NoError(t, err)
	first[0].Class = "mutated"

	for i := 0; i < 2; i++ {
		src.Next(ctx)
	}
	again, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "car", again[0].Class, "callers must not be able to mutate the fixture")
}

func TestReplaySourceRejectsBadInput(t *testing.T) {
	t.Parallel()

	t.Run("empty fixture", func(t *testing.T) {
		t.Parallel()
		_, err := NewReplaySource(nil)
		assert.Error(t, err)
	})

	t.Run("malformed json names the line", func(t *testing.T) {
		t.Parallel()
		_, err := NewReplaySource([]byte("[{\"vehicle_type\":\"car\"}]\nnot json\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})
}

func TestReplaySourceHonoursContext(t *testing.T) {
	t.Parallel()

	src, err := NewReplaySource([]byte(replayFixture))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
