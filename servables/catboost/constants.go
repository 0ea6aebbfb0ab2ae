// Package catboost loads a CatBoost model directory as a servable bundle and
// answers predict requests against it.
//
// A servable version directory holds a single model file:
//
//	<base>/<model>/<version>/catboost.cbm
//
// Requests carry sparse rows of (feature id, score) pairs under the
// "catboost_features" input. Rows are densified, evaluated, and the raw
// formula values are returned under the "predictions" output.
package catboost

const (
	// ModelFileName is the model file inside a servable version directory.
	ModelFileName = "catboost.cbm"

	// FeaturesName is the request input holding the sparse feature rows.
	FeaturesName = "catboost_features"

	// PredictionsOutputName is the response output holding raw predictions.
	PredictionsOutputName = "predictions"
)
