package catboost

import (
	"context"
	"testing"

	scigoErrors "github.com/YuminosukeSato/catserve/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestPredictorCalcFlatMatchesModel(t *testing.T) {
	m := newTestModel()
	rows := make([][]float32, 1000)
	for i := range rows {
		rows[i] = []float32{float32(i%7) / 5, float32(i%11)/2 - 2}
	}

	for _, threads := range []int{1, 4, 0} {
		p := NewPredictor(m)
		p.SetNumThreads(threads)

		got, err := p.CalcFlat(context.Background(), rows)
		require.NoError(t, err)
		require.Len(t, got, len(rows))
		for i, row := range rows {
			want, err := m.CalcRaw(row)
			require.NoError(t, err)
			assert.Equal(t, want, got[i], "row %d with %d threads", i, threads)
		}
	}
}

func TestPredictorCalcMatrix(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{
		1, 0,
		0, 3,
	})
	got, err := NewPredictor(newTestModel()).CalcMatrix(context.Background(), X)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.35, 0.35}, got, 1e-12)
}

func TestPredictorEmpty(t *testing.T) {
	got, err := NewPredictor(newTestModel()).CalcFlat(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPredictorShortRow(t *testing.T) {
	_, err := NewPredictor(newTestModel()).CalcFlat(context.Background(), [][]float32{{1, 0}, {1}})

	var dimErr *scigoErrors.DimensionError
	assert.True(t, scigoErrors.As(err, &dimErr))
}

func TestPredictorCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPredictor(newTestModel()).CalcFlat(ctx, [][]float32{{1, 0}})
	assert.ErrorIs(t, err, context.Canceled)
}
