// Standard attribute keys for logging.
//
// Keys follow a hierarchical naming convention ("model.name", "data.samples")
// so log pipelines can filter and aggregate across components.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model, e.g. "CatBoostClassifier".
	ModelNameKey = "model.name"

	// ModelPathKey is the filesystem location of a model artifact.
	ModelPathKey = "model.path"

	// ModelVersionKey is the servable version a model was loaded as.
	ModelVersionKey = "model.version"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which component is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape
const (
	// SamplesKey indicates the number of rows in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of feature columns.
	FeaturesKey = "data.features"

	// DataSizeKey indicates the size of a payload in bytes.
	DataSizeKey = "data.size_bytes"

	// BatchSizeKey indicates the number of rows in a prediction batch.
	BatchSizeKey = "data.batch_size"
)

// Performance and Training Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy in [0, 1].
	AccuracyKey = "metrics.accuracy"

	// LossKey records the loss value during training or evaluation.
	LossKey = "metrics.loss"

	// IterationKey records the current boosting iteration.
	IterationKey = "training.iteration"

	// TreesKey records the number of trees in an ensemble.
	TreesKey = "training.trees"
)

// Prediction Context
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"
)

// Error Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"
)

// Hyperparameters and Configuration
const (
	// LearningRateKey records the learning rate.
	LearningRateKey = "hyperparams.learning_rate"

	// DepthKey records the tree depth.
	DepthKey = "hyperparams.depth"

	// IterationsKey records the configured number of boosting iterations.
	IterationsKey = "hyperparams.iterations"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationSave    = "save"
	OperationLoad    = "load"
	OperationUnload  = "unload"
	OperationExport  = "export"

	PhaseTraining  = "training"
	PhaseInference = "inference"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorInvalidInput      = "INVALID_INPUT"
)
