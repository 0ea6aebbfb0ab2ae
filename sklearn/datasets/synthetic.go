// Package datasets generates small synthetic datasets for tests and fixtures.
//
// All generators draw from a caller-supplied rand.Source so that a fixed seed
// reproduces the same matrices on every run.
package datasets

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/catserve/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// NewSource returns the PCG source used by the generators for a given seed.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed)
}

// StandardNormal draws a rows×cols matrix of N(0, 1) values, filled row by row.
// Successive calls on the same src continue the same stream.
func StandardNormal(rows, cols int, src rand.Source) (*mat.Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.NewValueError("StandardNormal", "rows and cols must be positive")
	}

	dist := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = dist.Rand()
	}
	return mat.NewDense(rows, cols, data), nil
}

// SumThresholdLabels labels each row 1 when the sum of the given columns is
// strictly greater than threshold and 0 otherwise. The result is (rows, 1).
func SumThresholdLabels(X mat.Matrix, cols []int, threshold float64) (*mat.Dense, error) {
	rows, nCols := X.Dims()
	if len(cols) == 0 {
		return nil, errors.NewValueError("SumThresholdLabels", "no columns selected")
	}
	for _, c := range cols {
		if c < 0 || c >= nCols {
			return nil, errors.NewDimensionError("SumThresholdLabels", nCols, c, 1)
		}
	}

	y := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		sum := 0.0
		for _, c := range cols {
			sum += X.At(i, c)
		}
		if sum > threshold {
			y.Set(i, 0, 1)
		}
	}
	return y, nil
}

// MakeSumThreshold draws a standard normal samples×features matrix and labels
// each row 1 iff x[0] + x[1] > 0.
func MakeSumThreshold(samples, features int, src rand.Source) (X, y *mat.Dense, err error) {
	if features < 2 {
		return nil, nil, errors.NewValidationError("features", "at least two features are required", features)
	}
	X, err = StandardNormal(samples, features, src)
	if err != nil {
		return nil, nil, err
	}
	y, err = SumThresholdLabels(X, []int{0, 1}, 0)
	if err != nil {
		return nil, nil, err
	}
	return X, y, nil
}
