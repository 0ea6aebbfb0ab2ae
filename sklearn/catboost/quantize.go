package catboost

import (
	"sort"

	"github.com/YuminosukeSato/catserve/core/parallel"
	"gonum.org/v1/gonum/mat"
)

// parallelFeatureThreshold is the column count below which quantization runs inline.
const parallelFeatureThreshold = 8

// selectBorders picks at most maxBorders split borders for one column.
//
// Candidate borders are the midpoints between consecutive distinct values.
// When there are more candidates than maxBorders, the ones closest to
// equal-frequency cut points are kept. A constant column yields no borders.
func selectBorders(values []float64, maxBorders int) []float32 {
	sorted := make([]float32, 0, len(values))
	for _, v := range values {
		if v == v {
			sorted = append(sorted, float32(v))
		}
	}
	sort.Slice(sorted, func(a, b int) bool { return sorted[a] < sorted[b] })

	// distinct values and how many samples are <= each of them
	var unique []float32
	var cum []int
	for i, v := range sorted {
		if len(unique) > 0 && unique[len(unique)-1] == v {
			cum[len(cum)-1] = i + 1
			continue
		}
		unique = append(unique, v)
		cum = append(cum, i+1)
	}
	if len(unique) < 2 {
		return nil
	}

	candidates := len(unique) - 1
	chosen := make([]int, 0, min(candidates, maxBorders))
	if candidates <= maxBorders {
		for i := 0; i < candidates; i++ {
			chosen = append(chosen, i)
		}
	} else {
		n := cum[len(cum)-1]
		last := -1
		for k := 1; k <= maxBorders; k++ {
			target := float64(k*n) / float64(maxBorders+1)
			// first candidate whose left count reaches target, or its left neighbour
			i := sort.Search(candidates, func(j int) bool { return float64(cum[j]) >= target })
			if i == candidates {
				i = candidates - 1
			}
			if i > 0 && target-float64(cum[i-1]) < float64(cum[i])-target {
				i--
			}
			if i > last {
				chosen = append(chosen, i)
				last = i
			}
		}
	}

	borders := make([]float32, 0, len(chosen))
	for _, i := range chosen {
		b := float32((float64(unique[i]) + float64(unique[i+1])) / 2)
		if len(borders) > 0 && borders[len(borders)-1] >= b {
			continue
		}
		borders = append(borders, b)
	}
	return borders
}

// binIndex returns how many borders v is strictly greater than.
// Bin k > j means the value goes right at border j.
func binIndex(v float32, borders []float32) int {
	return sort.Search(len(borders), func(i int) bool { return !(v > borders[i]) })
}

// quantizedPool holds the binarized training matrix, one bin column per feature.
type quantizedPool struct {
	features []FloatFeature
	bins     [][]uint16
	rows     int
}

// quantize selects borders for every column of X and binarizes it.
func quantize(X mat.Matrix, borderCount, threads int) *quantizedPool {
	rows, cols := X.Dims()
	pool := &quantizedPool{
		features: make([]FloatFeature, cols),
		bins:     make([][]uint16, cols),
		rows:     rows,
	}

	parallel.ParallelizeWithThreshold(cols, parallelFeatureThreshold, threads, func(start, end int) {
		column := make([]float64, rows)
		for j := start; j < end; j++ {
			mat.Col(column, j, X)
			borders := selectBorders(column, borderCount)

			bins := make([]uint16, rows)
			hasNaNs := false
			for i, v := range column {
				hasNaNs = hasNaNs || v != v
				bins[i] = uint16(binIndex(float32(v), borders))
			}

			pool.features[j] = FloatFeature{
				FeatureIndex:      j,
				FlatFeatureIndex:  j,
				Borders:           borders,
				HasNaNs:           hasNaNs,
				NanValueTreatment: NanAsIs,
			}
			pool.bins[j] = bins
		}
	})
	return pool
}
