package catboost

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newTestModel returns a depth-2 tree over two features:
// bit 0 is x0 > 0.5, bit 1 is x1 > -1.
func newTestModel() *Model {
	return &Model{
		FloatFeatures: []FloatFeature{
			{FeatureIndex: 0, FlatFeatureIndex: 0, Borders: []float32{0.5}, NanValueTreatment: NanAsIs},
			{FeatureIndex: 1, FlatFeatureIndex: 1, Borders: []float32{-1, 2}, NanValueTreatment: NanAsIs},
		},
		Trees: []ObliviousTree{
			{
				Splits:      []Split{{FloatFeatureIndex: 0, Border: 0.5}, {FloatFeatureIndex: 1, Border: -1}},
				LeafValues:  []float64{0.1, 0.2, 0.3, 0.4},
				LeafWeights: []float64{10, 20, 30, 40},
			},
			{
				Splits:      []Split{{FloatFeatureIndex: 1, Border: 2}},
				LeafValues:  []float64{-0.05, 0.05},
				LeafWeights: []float64{90, 10},
			},
		},
		Scale: 1,
		Bias:  0,
		Info:  map[string]string{InfoParams: `{"iterations":2}`},
	}
}
