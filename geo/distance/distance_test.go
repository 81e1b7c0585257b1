package distance

import (
	"github.com/paulmach/orb"
	"github.com/rotblauer/trackclust/params"
	"github.com/rotblauer/trackclust/testing/testdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"testing"
)

// line walks n steps of (dx, dy) meters from start.
func line(start orb.Point, n int, dx, dy float64) orb.LineString {
	ls := orb.LineString{start}
	for i := 1; i < n; i++ {
		ls = append(ls, testdata.Offset(ls[i-1], dx, dy))
	}
	return ls
}

func TestIdenticalStraightLines(t *testing.T) {
	a := line(testdata.Origin, 5, 10, 0)
	b := line(testdata.Origin, 5, 10, 0)

	assert.Equal(t, 0.0, Frechet(a, b))
	assert.Equal(t, 0.0, Hausdorff(a, b))
	assert.InDelta(t, 0.0, Traclus(a, b), 1e-6)
}

func TestFrechet(t *testing.T) {
	t.Run("zero identity", func(t *testing.T) {
		for _, ls := range []orb.LineString{
			{testdata.Origin},
			line(testdata.Origin, 7, 3, 4),
			line(testdata.Origin, 50, -12, 1),
		} {
			assert.Equal(t, 0.0, Frechet(ls, ls))
		}
	})
	t.Run("parallel offset", func(t *testing.T) {
		a := line(testdata.Origin, 10, 10, 0)
		b := line(testdata.Offset(testdata.Origin, 0, 30), 10, 10, 0)
		assert.InDelta(t, 30.0, Frechet(a, b), 0.01)
		assert.InDelta(t, Frechet(a, b), Frechet(b, a), 1e-9)
	})
	t.Run("order matters", func(t *testing.T) {
		a := line(testdata.Origin, 10, 10, 0)
		b := append(orb.LineString{}, a...)
		for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
			b[i], b[j] = b[j], b[i]
		}
		assert.Equal(t, 0.0, Hausdorff(a, b))
		assert.InDelta(t, 90.0, Frechet(a, b), 0.01)
	})
	t.Run("empty", func(t *testing.T) {
		assert.True(t, math.IsInf(Frechet(nil, line(testdata.Origin, 3, 1, 1)), 1))
	})
}

func TestHausdorff(t *testing.T) {
	a := line(testdata.Origin, 10, 10, 0)
	b := line(testdata.Offset(testdata.Origin, 20, 5), 3, 0, 10)
	assert.Equal(t, Hausdorff(a, b), Hausdorff(b, a))
	assert.Greater(t, Hausdorff(a, b), 0.0)

	// A short line inside a long one: only one direction sees the gap.
	long := line(testdata.Origin, 11, 10, 0)
	short := long[:3]
	assert.InDelta(t, 80.0, Hausdorff(long, short), 0.01)
	assert.True(t, math.IsInf(Hausdorff(long, nil), 1))
}

func TestTraclus(t *testing.T) {
	a := line(testdata.Origin, 5, 10, 0)

	t.Run("degenerate", func(t *testing.T) {
		assert.True(t, math.IsInf(Traclus(a, a[:1]), 1))
		assert.True(t, math.IsInf(Traclus(nil, a), 1))
	})
	t.Run("parallel offset has no angle", func(t *testing.T) {
		b := line(testdata.Offset(testdata.Origin, 0, 10), 5, 10, 0)
		m := DefaultMeasure
		m.Weights = params.TraclusConfig{PerpWeight: 1}
		assert.InDelta(t, 10.0, m.Traclus(a, b), 0.01)
		m.Weights = params.TraclusConfig{AngleWeight: 1, AngleAmplification: 10}
		assert.InDelta(t, 0.0, m.Traclus(a, b), 1e-6)
	})
	t.Run("perpendicular lines", func(t *testing.T) {
		b := line(testdata.Origin, 5, 0, 10)
		m := DefaultMeasure
		m.Weights = params.TraclusConfig{AngleWeight: 1, AngleAmplification: 1}
		// pi/2 times the 40 m mean chord.
		assert.InDelta(t, math.Pi/2*40, m.Traclus(a, b), 0.01)
	})
	t.Run("collinear extension overshoots", func(t *testing.T) {
		b := line(testdata.Offset(testdata.Origin, 60, 0), 3, 10, 0)
		m := DefaultMeasure
		m.Weights = params.TraclusConfig{ParallelWeight: 1}
		assert.Greater(t, m.Traclus(a, b), 0.0)
		assert.InDelta(t, m.Traclus(a, b), m.Traclus(b, a), 0.01)
	})
	t.Run("symmetric", func(t *testing.T) {
		b := line(testdata.Offset(testdata.Origin, 300, 1500), 8, 7, 12)
		assert.InDelta(t, Traclus(a, b), Traclus(b, a), 1e-9)
		assert.Greater(t, Traclus(a, b), 1000.0)
	})
	t.Run("zero length chord", func(t *testing.T) {
		loop := orb.LineString{testdata.Origin, testdata.Offset(testdata.Origin, 10, 10), testdata.Origin}
		d := Traclus(a, loop)
		assert.False(t, math.IsInf(d, 0))
		assert.False(t, math.IsNaN(d))
	})
}

func TestParseMetric(t *testing.T) {
	for _, s := range []string{"euclidean", "frechet", "hausdorff", "traclus"} {
		m, err := ParseMetric(s)
		require.NoError(t, err)
		assert.Equal(t, s, string(m))
	}
	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricEuclidean, m)
	assert.False(t, m.IsShape())

	_, err = ParseMetric("wasserstein")
	assert.ErrorIs(t, err, params.ErrInvalidConfig)

	_, err = DefaultMeasure.Func(MetricEuclidean)
	assert.Error(t, err)
	fn, err := DefaultMeasure.Func(MetricHausdorff)
	require.NoError(t, err)
	assert.NotNil(t, fn)
}

func TestPairwise(t *testing.T) {
	lines := []orb.LineString{
		line(testdata.Origin, 5, 10, 0),
		line(testdata.Offset(testdata.Origin, 0, 20), 5, 10, 0),
		line(testdata.Offset(testdata.Origin, 0, 500), 5, 10, 0),
	}
	d := Pairwise(lines, Hausdorff)
	require.NotNil(t, d)
	n, _ := d.Dims()
	assert.Equal(t, 3, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, 0.0, d.At(i, i))
		for j := 0; j < n; j++ {
			assert.Equal(t, d.At(i, j), d.At(j, i))
		}
	}
	assert.InDelta(t, 20.0, d.At(0, 1), 0.01)
	assert.InDelta(t, 480.0, d.At(1, 2), 0.01)
	assert.Nil(t, Pairwise(nil, Hausdorff))
}
