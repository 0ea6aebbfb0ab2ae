// Package fixture generates the CatBoost model artifact that the servable
// tests load.
package fixture

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/catserve/core/model"
	"github.com/YuminosukeSato/catserve/pkg/errors"
	"github.com/YuminosukeSato/catserve/pkg/log"
	"github.com/YuminosukeSato/catserve/servables/catboost"
	cbmodel "github.com/YuminosukeSato/catserve/sklearn/catboost"
	"github.com/YuminosukeSato/catserve/sklearn/datasets"
	"gonum.org/v1/gonum/mat"
)

// Config controls what Export trains and where it writes.
type Config struct {
	Root    string // the artifact goes to Root/test_model/<Version>/catboost.cbm
	Version int

	Seed         uint64
	Samples      int
	Features     int
	TestSamples  int
	Iterations   int
	Depth        int
	LearningRate float64
	LossFunction string

	Out    io.Writer
	Logger log.Logger
}

// DefaultConfig returns the fixture's fixed settings rooted at root.
func DefaultConfig(root string) Config {
	return Config{
		Root:         root,
		Version:      1,
		Seed:         42,
		Samples:      100,
		Features:     10,
		TestSamples:  2,
		Iterations:   10,
		Depth:        4,
		LearningRate: 0.1,
		LossFunction: cbmodel.LossLogloss,
		Out:          os.Stdout,
		Logger:       log.GetLoggerWithName("fixture"),
	}
}

// ModelPath returns where Export writes the model.
func (c Config) ModelPath() string {
	return filepath.Join(c.Root, "test_model", fmt.Sprint(c.Version), catboost.ModelFileName)
}

// Result describes a finished export.
type Result struct {
	ModelPath     string
	TrainAccuracy float64
	Predictions   []int
}

// Export trains the fixture classifier on synthetic data, writes it in cbm
// format and predicts two further random rows as a sanity check. The same
// Config always produces the same file bytes.
func Export(cfg Config) (*Result, error) {
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = log.GetLoggerWithName("fixture")
	}

	src := datasets.NewSource(cfg.Seed)
	X, y, err := datasets.MakeSumThreshold(cfg.Samples, cfg.Features, src)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate training data")
	}

	clf := cbmodel.NewCatBoostClassifier().
		WithIterations(cfg.Iterations).
		WithDepth(cfg.Depth).
		WithLearningRate(cfg.LearningRate).
		WithLossFunction(cfg.LossFunction).
		WithVerbose(false)
	accuracy, err := fitAndScore(clf, X, y)
	if err != nil {
		return nil, errors.Wrap(err, "failed to train model")
	}

	path := cfg.ModelPath()
	if err := clf.SaveModel(path, cbmodel.FormatCBM); err != nil {
		return nil, errors.Wrapf(err, "failed to save model to %s", path)
	}
	cfg.Logger.Info("Model exported",
		log.OperationKey, log.OperationExport,
		log.ModelPathKey, path,
		log.RandomSeedKey, cfg.Seed,
		log.SamplesKey, cfg.Samples,
		log.FeaturesKey, cfg.Features,
		log.TreesKey, clf.Model().NumTrees(),
		log.AccuracyKey, accuracy,
	)
	if _, err := fmt.Fprintf(cfg.Out, "Model saved to: %s\n", path); err != nil {
		return nil, errors.Wrap(err, "failed to write output")
	}

	XTest, err := datasets.StandardNormal(cfg.TestSamples, cfg.Features, src)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate test rows")
	}
	labels, err := predictLabels(clf, XTest)
	if err != nil {
		return nil, errors.Wrap(err, "failed to predict test rows")
	}
	if _, err := fmt.Fprintf(cfg.Out, "Test predictions: %v\n", labels); err != nil {
		return nil, errors.Wrap(err, "failed to write output")
	}

	return &Result{ModelPath: path, TrainAccuracy: accuracy, Predictions: labels}, nil
}

// fitAndScore trains clf and returns its accuracy on the training data.
func fitAndScore(clf model.Classifier, X, y mat.Matrix) (float64, error) {
	if err := clf.Fit(X, y); err != nil {
		return 0, err
	}
	return clf.Score(X, y)
}

func predictLabels(p model.Predictor, X mat.Matrix) ([]int, error) {
	pred, err := p.Predict(X)
	if err != nil {
		return nil, err
	}
	rows, _ := pred.Dims()
	labels := make([]int, rows)
	for i := range labels {
		labels[i] = int(pred.At(i, 0))
	}
	return labels, nil
}
