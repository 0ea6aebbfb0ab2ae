// Package catserve trains, stores and serves CatBoost-style gradient-boosted
// oblivious tree models in Go.
//
// The module exists to produce and consume the model artifact that the
// CatBoost servable tests load: a small binary classifier written to
// test_model/1/catboost.cbm.
//
// # Layout
//
//   - sklearn/catboost: the classifier (Fit, Predict, PredictProba), the model
//     type, the cbm and JSON model formats and a parallel batch predictor.
//   - sklearn/datasets: seeded synthetic data.
//   - servables/catboost: loads a model directory as a bundle and answers
//     predict requests made of sparse (feature id, score) rows.
//   - fixture: the end-to-end export of the test model.
//   - cmd/export-test-model: the command that runs the export.
//   - metrics, core/model, core/parallel, pkg/errors, pkg/log: shared plumbing.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//
//	    "github.com/YuminosukeSato/catserve/sklearn/catboost"
//	    "github.com/YuminosukeSato/catserve/sklearn/datasets"
//	)
//
//	func main() {
//	    X, y, _ := datasets.MakeSumThreshold(100, 10, datasets.NewSource(42))
//
//	    clf := catboost.NewCatBoostClassifier().
//	        WithIterations(10).
//	        WithDepth(4).
//	        WithLearningRate(0.1)
//	    if err := clf.Fit(X, y); err != nil {
//	        panic(err)
//	    }
//	    if err := clf.SaveModel("test_model/1/catboost.cbm", catboost.FormatCBM); err != nil {
//	        panic(err)
//	    }
//	    pred, _ := clf.Predict(X)
//	    fmt.Println(pred.At(0, 0))
//	}
//
// # Error Handling
//
// Errors are built with github.com/cockroachdb/errors and carry stack traces.
// Structured kinds such as NotFittedError, DimensionError and FormatError live
// in pkg/errors; the servable marks request errors with ErrInvalidArgument,
// ErrNotFound or ErrUnknown for errors.Is.
//
// # Logging
//
// pkg/log wraps log/slog with a JSON handler that renders error stack traces.
// Call log.SetupLogger once at startup.
package catserve
