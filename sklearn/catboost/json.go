package catboost

import (
	"encoding/json"
	"io"

	scigoErrors "github.com/YuminosukeSato/catserve/pkg/errors"
)

// JSON export layout, as written by CatBoost's save_model(format="json").

type jsonModel struct {
	ModelInfo      map[string]json.RawMessage `json:"model_info"`
	FeaturesInfo   jsonFeaturesInfo           `json:"features_info"`
	ObliviousTrees []jsonTree                 `json:"oblivious_trees"`
	ScaleAndBias   *jsonScaleAndBias          `json:"scale_and_bias,omitempty"`
}

type jsonFeaturesInfo struct {
	FloatFeatures []jsonFloatFeature `json:"float_features"`
}

type jsonFloatFeature struct {
	FeatureIndex      int               `json:"feature_index"`
	FlatFeatureIndex  int               `json:"flat_feature_index"`
	Borders           []float32         `json:"borders"`
	HasNaNs           bool              `json:"has_nans"`
	NanValueTreatment NanValueTreatment `json:"nan_value_treatment"`
}

type jsonTree struct {
	Splits      []jsonSplit `json:"splits"`
	LeafValues  []float64   `json:"leaf_values"`
	LeafWeights []float64   `json:"leaf_weights"`
}

type jsonSplit struct {
	FloatFeatureIndex int     `json:"float_feature_index"`
	Border            float32 `json:"border"`
	SplitIndex        int     `json:"split_index"`
	SplitType         string  `json:"split_type"`
}

// jsonScaleAndBias is encoded as [scale, [bias]]. Older exports write the bias
// as a bare number, which is accepted on decode.
type jsonScaleAndBias struct {
	Scale float64
	Bias  float64
}

func (s jsonScaleAndBias) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{s.Scale, []float64{s.Bias}})
}

func (s *jsonScaleAndBias) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return scigoErrors.NewFormatError("json", -1, "scale_and_bias must have two elements")
	}
	if err := json.Unmarshal(pair[0], &s.Scale); err != nil {
		return err
	}
	var biases []float64
	if err := json.Unmarshal(pair[1], &biases); err == nil {
		if len(biases) != 1 {
			return scigoErrors.NewFormatError("json", -1, "only approx dimension 1 is supported")
		}
		s.Bias = biases[0]
		return nil
	}
	return json.Unmarshal(pair[1], &s.Bias)
}

// JSONCodec reads and writes a Model in the JSON export layout.
type JSONCodec struct {
	Model *Model
}

// WriteTo implements io.WriterTo. Models that fail Validate are not written.
func (c JSONCodec) WriteTo(w io.Writer) (int64, error) {
	m := c.Model
	if err := m.Validate(); err != nil {
		return 0, err
	}
	doc := jsonModel{
		ModelInfo:    make(map[string]json.RawMessage, len(m.Info)),
		ScaleAndBias: &jsonScaleAndBias{Scale: m.Scale, Bias: m.Bias},
	}
	for k, v := range m.Info {
		raw, err := json.Marshal(v)
		if err != nil {
			return 0, scigoErrors.Wrap(err, "failed to marshal model_info")
		}
		doc.ModelInfo[k] = raw
	}

	// split_index enumerates every border of every feature in order
	offsets := make([]int, len(m.FloatFeatures))
	total := 0
	doc.FeaturesInfo.FloatFeatures = make([]jsonFloatFeature, len(m.FloatFeatures))
	for i, f := range m.FloatFeatures {
		offsets[i] = total
		total += len(f.Borders)
		borders := f.Borders
		if borders == nil {
			borders = []float32{}
		}
		doc.FeaturesInfo.FloatFeatures[i] = jsonFloatFeature{
			FeatureIndex:      f.FeatureIndex,
			FlatFeatureIndex:  f.FlatFeatureIndex,
			Borders:           borders,
			HasNaNs:           f.HasNaNs,
			NanValueTreatment: f.NanValueTreatment,
		}
	}

	doc.ObliviousTrees = make([]jsonTree, len(m.Trees))
	for i, t := range m.Trees {
		jt := jsonTree{
			Splits:      make([]jsonSplit, len(t.Splits)),
			LeafValues:  t.LeafValues,
			LeafWeights: t.LeafWeights,
		}
		for j, s := range t.Splits {
			jt.Splits[j] = jsonSplit{
				FloatFeatureIndex: s.FloatFeatureIndex,
				Border:            s.Border,
				SplitIndex:        offsets[s.FloatFeatureIndex] + borderPosition(m.FloatFeatures[s.FloatFeatureIndex].Borders, s.Border),
				SplitType:         "FloatFeature",
			}
		}
		doc.ObliviousTrees[i] = jt
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return 0, scigoErrors.Wrap(err, "failed to marshal json model")
	}
	n, err := w.Write(data)
	return int64(n), err
}

// borderPosition returns the index of border in borders, or -1.
func borderPosition(borders []float32, border float32) int {
	for i, b := range borders {
		if b == border {
			return i
		}
	}
	return -1
}

// ReadFrom implements io.ReaderFrom. c.Model must be non-nil.
func (c JSONCodec) ReadFrom(r io.Reader) (int64, error) {
	cr := &countingReader{r: r}
	var doc jsonModel
	if err := json.NewDecoder(cr).Decode(&doc); err != nil {
		return cr.n, scigoErrors.NewFormatError("json", cr.n, err.Error())
	}
	if doc.ObliviousTrees == nil {
		return cr.n, scigoErrors.NewFormatError("json", -1, "missing oblivious_trees")
	}

	m := &Model{
		Info:  make(map[string]string, len(doc.ModelInfo)),
		Scale: 1,
	}
	// string values are unquoted, anything else is kept as its JSON text
	for k, raw := range doc.ModelInfo {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			m.Info[k] = s
		} else {
			m.Info[k] = string(raw)
		}
	}
	if doc.ScaleAndBias != nil {
		m.Scale = doc.ScaleAndBias.Scale
		m.Bias = doc.ScaleAndBias.Bias
	}

	m.FloatFeatures = make([]FloatFeature, len(doc.FeaturesInfo.FloatFeatures))
	for i, f := range doc.FeaturesInfo.FloatFeatures {
		treatment := f.NanValueTreatment
		if treatment == "" {
			treatment = NanAsIs
		}
		m.FloatFeatures[i] = FloatFeature{
			FeatureIndex:      f.FeatureIndex,
			FlatFeatureIndex:  f.FlatFeatureIndex,
			Borders:           f.Borders,
			HasNaNs:           f.HasNaNs,
			NanValueTreatment: treatment,
		}
	}

	m.Trees = make([]ObliviousTree, len(doc.ObliviousTrees))
	for i, jt := range doc.ObliviousTrees {
		t := ObliviousTree{
			Splits:      make([]Split, len(jt.Splits)),
			LeafValues:  jt.LeafValues,
			LeafWeights: jt.LeafWeights,
		}
		for j, s := range jt.Splits {
			if s.SplitType != "" && s.SplitType != "FloatFeature" {
				return cr.n, scigoErrors.NewFormatError("json", -1, "unsupported split type "+s.SplitType)
			}
			t.Splits[j] = Split{FloatFeatureIndex: s.FloatFeatureIndex, Border: s.Border}
		}
		m.Trees[i] = t
	}

	if err := m.Validate(); err != nil {
		return cr.n, scigoErrors.Wrap(err, "invalid json model")
	}
	*c.Model = *m
	return cr.n, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
