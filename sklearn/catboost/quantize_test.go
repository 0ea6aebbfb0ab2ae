package catboost

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSelectBorders(t *testing.T) {
	tests := []struct {
		name       string
		values     []float64
		maxBorders int
		want       []float32
	}{
		{"midpoints", []float64{3, 1, 2, 2}, 254, []float32{1.5, 2.5}},
		{"constant", []float64{7, 7, 7}, 254, nil},
		{"nan ignored", []float64{math.NaN(), 1, 3}, 254, []float32{2}},
		{"equal frequency", []float64{1, 2, 3, 4}, 1, []float32{2.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selectBorders(tt.values, tt.maxBorders))
		})
	}
}

func TestSelectBordersRespectsLimit(t *testing.T) {
	values := make([]float64, 1000)
	for i := range values {
		values[i] = float64(i)
	}
	borders := selectBorders(values, 16)
	require.NotEmpty(t, borders)
	assert.LessOrEqual(t, len(borders), 16)
	for i := 1; i < len(borders); i++ {
		assert.Less(t, borders[i-1], borders[i])
	}
}

func TestBinIndex(t *testing.T) {
	borders := []float32{1.5, 2.5}
	assert.Equal(t, 0, binIndex(1, borders))
	assert.Equal(t, 0, binIndex(1.5, borders))
	assert.Equal(t, 1, binIndex(2.5, borders))
	assert.Equal(t, 2, binIndex(3, borders))
	assert.Equal(t, 0, binIndex(float32(math.NaN()), borders))
}

func TestQuantize(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
		4, 5,
	})
	pool := quantize(X, 254, 1)

	require.Len(t, pool.features, 2)
	assert.Equal(t, 4, pool.rows)
	assert.Equal(t, []float32{1.5, 2.5, 3.5}, pool.features[0].Borders)
	assert.Empty(t, pool.features[1].Borders)
	assert.Equal(t, []uint16{0, 1, 2, 3}, pool.bins[0])
	assert.Equal(t, []uint16{0, 0, 0, 0}, pool.bins[1])
	assert.Equal(t, 1, pool.features[1].FlatFeatureIndex)
}
