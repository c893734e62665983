package ranktest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdenticalSamples(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 1., PValue(x, x))
}

func TestEmptySample(t *testing.T) {
	assert.Equal(t, 1., PValue(nil, []float64{1, 2}))
	assert.Equal(t, 1., PValue([]float64{1, 2}, nil))
}

func TestConstantSamples(t *testing.T) {
	assert.Equal(t, 1., PValue([]float64{3, 3, 3}, []float64{3, 3}))
}

func TestSeparatedSamples(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	y := []float64{101, 102, 103, 104, 105, 106, 107, 108}
	p := PValue(x, y)
	require.Less(t, p, 0.01)

	// symmetric in the two-sided test
	assert.InDelta(t, p, PValue(y, x), 1e-12)
}

func TestOverlappingSamples(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	x := make([]float64, 30)
	y := make([]float64, 30)
	for i := range x {
		x[i] = rng.NormFloat64()
		y[i] = rng.NormFloat64()
	}
	p := PValue(x, y)
	assert.Greater(t, p, 0.05)
	assert.LessOrEqual(t, p, 1.)
}

func TestShiftDetectedAtModerateSize(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	x := make([]float64, 40)
	y := make([]float64, 40)
	for i := range x {
		x[i] = rng.NormFloat64()
		y[i] = rng.NormFloat64() + 2
	}
	assert.Less(t, PValue(x, y), 0.001)
}

func TestUStatistic(t *testing.T) {
	// every x value below every y value: U = 0
	res := Test([]float64{1, 2}, []float64{3, 4, 5})
	assert.Equal(t, 0., res.UStatistic)

	// reversed: U = n1 * n2
	res = Test([]float64{3, 4, 5}, []float64{1, 2})
	assert.Equal(t, 6., res.UStatistic)
}
