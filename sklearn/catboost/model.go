package catboost

import (
	"fmt"
	"sort"

	scigoErrors "github.com/YuminosukeSato/catserve/pkg/errors"
)

// NanValueTreatment describes how a missing value is routed at a split.
type NanValueTreatment string

const (
	// NanAsIs compares NaN like any other value; NaN > border is false, so it goes left.
	NanAsIs NanValueTreatment = "AsIs"
	// NanAsFalse always sends NaN left.
	NanAsFalse NanValueTreatment = "AsFalse"
	// NanAsTrue always sends NaN right.
	NanAsTrue NanValueTreatment = "AsTrue"
)

// Info map keys written by the classifier.
const (
	InfoParams      = "params"
	InfoClassParams = "class_params"
	InfoModelGUID   = "model_guid"
)

// MaxFlatFeatureIndex is the largest input column a model may read.
const MaxFlatFeatureIndex = 1<<24 - 1

// FloatFeature describes one numeric input column and its quantization borders.
type FloatFeature struct {
	FeatureIndex      int               // position among float features
	FlatFeatureIndex  int               // column in the input row
	Borders           []float32         // ascending
	HasNaNs           bool
	NanValueTreatment NanValueTreatment
}

// Split sends a row right when its value of FloatFeatureIndex is > Border.
type Split struct {
	FloatFeatureIndex int
	Border            float32
}

// ObliviousTree is a symmetric tree: Splits[d] is applied at depth d and
// LeafValues has 1 << len(Splits) entries.
type ObliviousTree struct {
	Splits      []Split
	LeafValues  []float64
	LeafWeights []float64
}

// Depth returns the number of levels of the tree.
func (t *ObliviousTree) Depth() int {
	return len(t.Splits)
}

// Model is a trained ensemble of oblivious trees.
//
// The raw prediction (RawFormulaVal) of a row is Scale * Σ leaf + Bias.
type Model struct {
	FloatFeatures []FloatFeature
	Trees         []ObliviousTree
	Scale         float64
	Bias          float64
	Info          map[string]string
}

// NumTrees returns the number of trees in the ensemble.
func (m *Model) NumTrees() int {
	return len(m.Trees)
}

// NumFeatures returns the minimal row width the model can evaluate.
func (m *Model) NumFeatures() int {
	n := 0
	for _, f := range m.FloatFeatures {
		if f.FlatFeatureIndex+1 > n {
			n = f.FlatFeatureIndex + 1
		}
	}
	return n
}

// Validate checks the structural invariants of the model. Decoders call it
// after reading so that evaluation never indexes out of range.
func (m *Model) Validate() error {
	for i, f := range m.FloatFeatures {
		if f.FeatureIndex != i {
			return scigoErrors.NewModelError("Validate", fmt.Sprintf("float feature %d has feature index %d", i, f.FeatureIndex), nil)
		}
		if f.FlatFeatureIndex < 0 || f.FlatFeatureIndex > MaxFlatFeatureIndex {
			return scigoErrors.NewModelError("Validate", fmt.Sprintf("float feature %d has flat index %d outside [0, %d]", i, f.FlatFeatureIndex, MaxFlatFeatureIndex), nil)
		}
		if !sort.SliceIsSorted(f.Borders, func(a, b int) bool { return f.Borders[a] < f.Borders[b] }) {
			return scigoErrors.NewModelError("Validate", fmt.Sprintf("borders of float feature %d are not sorted", i), nil)
		}
	}
	for ti, t := range m.Trees {
		if t.Depth() > MaxDepth {
			return scigoErrors.NewModelError("Validate", fmt.Sprintf("tree %d is deeper than %d", ti, MaxDepth), nil)
		}
		leaves := 1 << t.Depth()
		if len(t.LeafValues) != leaves {
			return scigoErrors.NewModelError("Validate", fmt.Sprintf("tree %d has %d leaf values, want %d", ti, len(t.LeafValues), leaves), nil)
		}
		if t.LeafWeights != nil && len(t.LeafWeights) != leaves {
			return scigoErrors.NewModelError("Validate", fmt.Sprintf("tree %d has %d leaf weights, want %d", ti, len(t.LeafWeights), leaves), nil)
		}
		for _, s := range t.Splits {
			if s.FloatFeatureIndex < 0 || s.FloatFeatureIndex >= len(m.FloatFeatures) {
				return scigoErrors.NewModelError("Validate", fmt.Sprintf("tree %d splits on unknown float feature %d", ti, s.FloatFeatureIndex), nil)
			}
			if borderPosition(m.FloatFeatures[s.FloatFeatureIndex].Borders, s.Border) < 0 {
				return scigoErrors.NewModelError("Validate", fmt.Sprintf("tree %d splits float feature %d on %v, which is not one of its borders", ti, s.FloatFeatureIndex, s.Border), nil)
			}
		}
	}
	return nil
}

// leafIndex evaluates the splits of t on row.
func (m *Model) leafIndex(t *ObliviousTree, row []float32) int {
	idx := 0
	for depth, s := range t.Splits {
		f := &m.FloatFeatures[s.FloatFeatureIndex]
		if splitGoesRight(row[f.FlatFeatureIndex], s.Border, f.NanValueTreatment) {
			idx |= 1 << depth
		}
	}
	return idx
}

func splitGoesRight(v, border float32, nan NanValueTreatment) bool {
	if v != v {
		return nan == NanAsTrue
	}
	return v > border
}

// CalcRaw returns the raw formula value for a single row. The row must have
// at least NumFeatures values.
func (m *Model) CalcRaw(row []float32) (float64, error) {
	if len(row) < m.NumFeatures() {
		return 0, scigoErrors.NewDimensionError("CalcRaw", m.NumFeatures(), len(row), 1)
	}
	return m.calcRaw(row), nil
}

func (m *Model) calcRaw(row []float32) float64 {
	sum := 0.0
	for i := range m.Trees {
		t := &m.Trees[i]
		sum += t.LeafValues[m.leafIndex(t, row)]
	}
	return m.Scale*sum + m.Bias
}
