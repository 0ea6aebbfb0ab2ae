package catboost

import (
	"context"
	"time"

	"github.com/YuminosukeSato/catserve/pkg/errors"
	"github.com/YuminosukeSato/catserve/pkg/log"
	cbmodel "github.com/YuminosukeSato/catserve/sklearn/catboost"
)

// ModelSpec names a servable. Version 0 selects whatever version is loaded.
type ModelSpec struct {
	Name    string
	Version int64
}

// FeatureScore is one sparse row: Score[i] is the value of feature ID[i].
type FeatureScore struct {
	ID    []uint64
	Score []float32
}

// PredictRequest asks for raw predictions of a batch of sparse rows.
type PredictRequest struct {
	ModelSpec *ModelSpec
	Inputs    map[string][]FeatureScore
}

// PredictResponse carries one output per request row.
type PredictResponse struct {
	ModelSpec ModelSpec
	Outputs   map[string][]float64
}

// BundleSource resolves a model spec to a loaded bundle and its version.
type BundleSource interface {
	Bundle(ctx context.Context, spec ModelSpec) (*Bundle, int64, error)
}

// SingleBundleSource serves exactly one bundle under one name and version.
type SingleBundleSource struct {
	Name     string
	Version  int64
	Servable *Bundle
}

// NewSingleBundleSource returns a source serving b as name/version.
func NewSingleBundleSource(name string, version int64, b *Bundle) *SingleBundleSource {
	return &SingleBundleSource{Name: name, Version: version, Servable: b}
}

// Bundle implements BundleSource.
func (s *SingleBundleSource) Bundle(ctx context.Context, spec ModelSpec) (*Bundle, int64, error) {
	if spec.Name != s.Name {
		return nil, 0, errors.Mark(errors.Newf("Servable not found for request: %s", spec.Name), ErrNotFound)
	}
	if spec.Version != 0 && spec.Version != s.Version {
		return nil, 0, errors.Mark(errors.Newf("Servable not found for request: %s version %d", spec.Name, spec.Version), ErrNotFound)
	}
	return s.Servable, s.Version, nil
}

// Predictor answers predict requests.
type Predictor struct {
	threads int
	logger  log.Logger
}

// NewPredictor creates a predictor that evaluates each batch on every CPU.
func NewPredictor() *Predictor {
	return &Predictor{
		logger: log.GetLoggerWithName("catboost.predict"),
	}
}

// SetNumThreads bounds the goroutines used per request. n <= 0 uses every CPU.
func (p *Predictor) SetNumThreads(n int) {
	p.threads = n
}

// Predict densifies the catboost_features rows of req and returns the raw
// formula value of each under the predictions output.
func (p *Predictor) Predict(ctx context.Context, source BundleSource, req *PredictRequest) (*PredictResponse, error) {
	if req == nil || req.ModelSpec == nil {
		return nil, invalidArgument("Missing ModelSpec")
	}
	return p.predictWithModelSpec(ctx, source, *req.ModelSpec, req)
}

func (p *Predictor) predictWithModelSpec(ctx context.Context, source BundleSource, spec ModelSpec, req *PredictRequest) (*PredictResponse, error) {
	bundle, version, err := source.Bundle(ctx, spec)
	if err != nil {
		return nil, err
	}
	m := bundle.Model()
	if m == nil {
		return nil, errors.Mark(errors.Newf("CatBoost model %s is unloaded", spec.Name), ErrUnknown)
	}

	rows, ok := req.Inputs[FeaturesName]
	if !ok {
		return nil, invalidArgument("No catboost_features input found")
	}

	dense, err := densify(rows, m.NumFeatures())
	if err != nil {
		return nil, err
	}

	start := time.Now()
	predictor := cbmodel.NewPredictor(m)
	predictor.SetNumThreads(p.threads)
	predictions, err := predictor.CalcFlat(ctx, dense)
	elapsed := time.Since(start)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "CatBoost prediction failed"), ErrUnknown)
	}

	p.logger.Debug("CatBoost predict",
		log.OperationKey, log.OperationPredict,
		log.ModelNameKey, spec.Name,
		log.ModelVersionKey, version,
		log.BatchSizeKey, len(rows),
		log.DurationMsKey, float64(elapsed.Microseconds())/1000,
	)

	return &PredictResponse{
		ModelSpec: ModelSpec{Name: spec.Name, Version: version},
		Outputs:   map[string][]float64{PredictionsOutputName: predictions},
	}, nil
}

const (
	// maxFeatureID bounds the dense row width a request can ask for.
	maxFeatureID = cbmodel.MaxFlatFeatureIndex
	// maxDenseCells bounds the dense values allocated for one request.
	maxDenseCells = 1 << 25
)

// densify turns sparse rows into zero-filled dense rows. Each row is
// max(its max id + 1, minWidth) wide.
func densify(rows []FeatureScore, minWidth int) ([][]float32, error) {
	widths := make([]int, len(rows))
	total := 0
	for i, row := range rows {
		if len(row.ID) != len(row.Score) {
			return nil, invalidArgument("Sizes(catboost_features) of id and score must be the same")
		}
		width := minWidth
		for _, id := range row.ID {
			if id > maxFeatureID {
				return nil, invalidArgument("catboost_features id exceeds the supported feature count")
			}
			if int(id) >= width {
				width = int(id) + 1
			}
		}
		widths[i] = width
		total += width
		if total > maxDenseCells {
			return nil, invalidArgument("catboost_features request is too large")
		}
	}

	data := make([]float32, total)
	dense := make([][]float32, len(rows))
	off := 0
	for i, row := range rows {
		end := off + widths[i]
		dense[i] = data[off:end:end]
		for j, id := range row.ID {
			dense[i][id] = row.Score[j]
		}
		off = end
	}
	return dense, nil
}
