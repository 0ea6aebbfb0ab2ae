package catboost

import (
	"context"
	"encoding/json"
	"math"
	"sort"

	"github.com/YuminosukeSato/catserve/core/model"
	"github.com/YuminosukeSato/catserve/metrics"
	scigoErrors "github.com/YuminosukeSato/catserve/pkg/errors"
	"github.com/YuminosukeSato/catserve/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// CatBoostClassifier is a binary classifier with a scikit-learn style API
// backed by an ensemble of oblivious trees.
type CatBoostClassifier struct {
	model.BaseEstimator

	// Hyperparameters (matching Python CatBoost)
	Iterations   int     // Number of boosting iterations
	Depth        int     // Depth of every tree
	LearningRate float64 // Multiplier applied to every leaf value
	L2LeafReg    float64 // L2 regularization of leaf values
	BorderCount  int     // Maximum number of borders per feature
	LossFunction string  // only Logloss; CrossEntropy needs soft targets, see Trainer
	ThreadCount  int     // Number of threads, -1 uses every CPU
	Verbose      bool    // Log training progress

	model       *Model
	classes     []float64
	nFeatures   int
	lossHistory []float64
	logger      log.Logger
}

// classParams is stored under the class_params info key.
type classParams struct {
	ClassLabelType string    `json:"class_label_type"`
	ClassToLabel   []float64 `json:"class_to_label"`
	ClassNames     []float64 `json:"class_names"`
	ClassesCount   int       `json:"classes_count"`
}

// NewCatBoostClassifier creates a classifier with CatBoost's default parameters.
func NewCatBoostClassifier() *CatBoostClassifier {
	p := DefaultTrainingParams()
	return &CatBoostClassifier{
		Iterations:   p.Iterations,
		Depth:        p.Depth,
		LearningRate: p.LearningRate,
		L2LeafReg:    p.L2LeafReg,
		BorderCount:  p.BorderCount,
		LossFunction: p.LossFunction,
		ThreadCount:  p.ThreadCount,
		logger:       log.GetLoggerWithName("catboost.classifier"),
	}
}

// WithIterations sets the number of boosting iterations
func (c *CatBoostClassifier) WithIterations(n int) *CatBoostClassifier {
	c.Iterations = n
	return c
}

// WithDepth sets the tree depth
func (c *CatBoostClassifier) WithDepth(d int) *CatBoostClassifier {
	c.Depth = d
	return c
}

// WithLearningRate sets the learning rate
func (c *CatBoostClassifier) WithLearningRate(lr float64) *CatBoostClassifier {
	c.LearningRate = lr
	return c
}

// WithLossFunction sets the loss function
func (c *CatBoostClassifier) WithLossFunction(loss string) *CatBoostClassifier {
	c.LossFunction = loss
	return c
}

// WithL2LeafReg sets the L2 regularization coefficient
func (c *CatBoostClassifier) WithL2LeafReg(reg float64) *CatBoostClassifier {
	c.L2LeafReg = reg
	return c
}

// WithBorderCount sets the maximum number of borders per feature
func (c *CatBoostClassifier) WithBorderCount(n int) *CatBoostClassifier {
	c.BorderCount = n
	return c
}

// WithThreadCount sets the number of threads
func (c *CatBoostClassifier) WithThreadCount(n int) *CatBoostClassifier {
	c.ThreadCount = n
	return c
}

// WithVerbose enables progress logging
func (c *CatBoostClassifier) WithVerbose(v bool) *CatBoostClassifier {
	c.Verbose = v
	return c
}

func (c *CatBoostClassifier) params() TrainingParams {
	return TrainingParams{
		Iterations:   c.Iterations,
		Depth:        c.Depth,
		LearningRate: c.LearningRate,
		L2LeafReg:    c.L2LeafReg,
		BorderCount:  c.BorderCount,
		LossFunction: c.LossFunction,
		ThreadCount:  c.ThreadCount,
		Verbose:      c.Verbose,
	}
}

// Fit trains the classifier on X (n_samples, n_features) and y (n_samples, 1).
// y must contain exactly two distinct labels; the larger one is the positive class.
// A failed Fit leaves the classifier unfitted.
func (c *CatBoostClassifier) Fit(X, y mat.Matrix) (err error) {
	defer scigoErrors.Recover(&err, "CatBoostClassifier.Fit")
	c.Reset()

	if c.LossFunction != LossLogloss {
		return scigoErrors.NewValidationError("loss_function", "CatBoostClassifier trains on hard labels and supports only Logloss", c.LossFunction)
	}

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return scigoErrors.NewValueError("CatBoostClassifier.Fit", "empty training data")
	}
	if yRows != rows {
		return scigoErrors.NewDimensionError("CatBoostClassifier.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return scigoErrors.NewDimensionError("CatBoostClassifier.Fit", 1, yCols, 1)
	}
	overflow := false
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				return scigoErrors.NewValueError("CatBoostClassifier.Fit", "X contains NaN")
			}
			overflow = overflow || math.Abs(v) > math.MaxFloat32
		}
	}
	if overflow {
		scigoErrors.Warn(scigoErrors.NewDataConversionWarning("float64", "float32",
			"features outside the float32 range are evaluated as +/-Inf"))
	}

	classes, err := uniqueLabels(y)
	if err != nil {
		return err
	}
	if len(classes) != 2 {
		return scigoErrors.NewValidationError("y", "binary classification needs exactly 2 classes", len(classes))
	}

	target := make([]float64, rows)
	for i := range target {
		if y.At(i, 0) == classes[1] {
			target[i] = 1
		}
	}

	trainer := NewTrainer(c.params())
	if err := trainer.Fit(X, target); err != nil {
		return err
	}

	m := trainer.Model()
	info, err := json.Marshal(classParams{
		ClassLabelType: "Integer",
		ClassToLabel:   []float64{0, 1},
		ClassNames:     classes,
		ClassesCount:   0,
	})
	if err != nil {
		return scigoErrors.Wrap(err, "failed to encode class params")
	}
	m.Info[InfoClassParams] = string(info)

	c.model = m
	c.classes = classes
	c.nFeatures = cols
	c.lossHistory = trainer.LossHistory()
	c.SetFitted()

	if c.Verbose {
		c.logger.Info("Model fitted",
			log.ModelNameKey, "CatBoostClassifier",
			log.TreesKey, m.NumTrees(),
			log.SamplesKey, rows,
			log.FeaturesKey, cols,
		)
	}
	return nil
}

func uniqueLabels(y mat.Matrix) ([]float64, error) {
	rows, _ := y.Dims()
	seen := make(map[float64]struct{})
	for i := 0; i < rows; i++ {
		v := y.At(i, 0)
		if math.IsNaN(v) {
			return nil, scigoErrors.NewValueError("CatBoostClassifier.Fit", "y contains NaN")
		}
		seen[v] = struct{}{}
	}
	labels := make([]float64, 0, len(seen))
	for v := range seen {
		labels = append(labels, v)
	}
	sort.Float64s(labels)
	return labels, nil
}

// PredictRaw returns the raw formula value of every row as (n_samples, 1).
func (c *CatBoostClassifier) PredictRaw(X mat.Matrix) (mat.Matrix, error) {
	raw, err := c.rawPredictions("PredictRaw", X)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(len(raw), 1, raw), nil
}

// PredictProba returns class probabilities as (n_samples, 2).
func (c *CatBoostClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	raw, err := c.rawPredictions("PredictProba", X)
	if err != nil {
		return nil, err
	}
	proba := mat.NewDense(len(raw), 2, nil)
	for i, v := range raw {
		p := scigoErrors.Sigmoid(v)
		proba.Set(i, 0, 1-p)
		proba.Set(i, 1, p)
	}
	return proba, nil
}

// Predict returns the predicted label of every row as (n_samples, 1).
func (c *CatBoostClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	raw, err := c.rawPredictions("Predict", X)
	if err != nil {
		return nil, err
	}
	labels := make([]float64, len(raw))
	for i, v := range raw {
		if v > 0 {
			labels[i] = c.classes[1]
		} else {
			labels[i] = c.classes[0]
		}
	}
	return mat.NewDense(len(labels), 1, labels), nil
}

// Score returns the mean accuracy on X and y.
func (c *CatBoostClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := c.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(y, pred)
}

func (c *CatBoostClassifier) rawPredictions(method string, X mat.Matrix) ([]float64, error) {
	if !c.IsFitted() {
		return nil, scigoErrors.NewNotFittedError("CatBoostClassifier", method)
	}
	rows, cols := X.Dims()
	if rows == 0 {
		return nil, scigoErrors.NewValueError("CatBoostClassifier."+method, "empty input")
	}
	if cols != c.nFeatures {
		return nil, scigoErrors.NewDimensionError("CatBoostClassifier."+method, c.nFeatures, cols, 1)
	}
	p := NewPredictor(c.model)
	p.SetNumThreads(c.ThreadCount)
	return p.CalcMatrix(context.Background(), X)
}

// SaveModel writes the fitted model to path, creating parent directories and
// overwriting an existing file.
func (c *CatBoostClassifier) SaveModel(path string, format Format) error {
	if !c.IsFitted() {
		return scigoErrors.NewNotFittedError("CatBoostClassifier", "SaveModel")
	}
	if err := SaveModelToFile(c.model, path, format); err != nil {
		return err
	}
	c.logger.Debug("Model saved",
		log.OperationKey, log.OperationSave,
		log.ModelPathKey, path,
		log.TreesKey, c.model.NumTrees(),
	)
	return nil
}

// LoadModel replaces the classifier's state with the model stored at path.
// Class labels are restored from class_params when present and default to 0 and 1.
func (c *CatBoostClassifier) LoadModel(path string, format Format) error {
	m, err := LoadModelFromFile(path, format)
	if err != nil {
		return err
	}

	classes := []float64{0, 1}
	if raw, ok := m.Info[InfoClassParams]; ok {
		var cp classParams
		if err := json.Unmarshal([]byte(raw), &cp); err != nil {
			return scigoErrors.Wrap(err, "failed to decode class params")
		}
		if len(cp.ClassNames) == 2 {
			classes = cp.ClassNames
		}
	}

	c.model = m
	c.classes = classes
	c.nFeatures = m.NumFeatures()
	c.lossHistory = nil
	c.SetFitted()

	c.logger.Debug("Model loaded",
		log.OperationKey, log.OperationLoad,
		log.ModelPathKey, path,
		log.TreesKey, m.NumTrees(),
	)
	return nil
}

// Model returns the underlying ensemble, or nil before Fit or LoadModel.
func (c *CatBoostClassifier) Model() *Model {
	return c.model
}

// Classes returns the sorted class labels.
func (c *CatBoostClassifier) Classes() []float64 {
	return c.classes
}

// LossHistory returns the mean training loss after each iteration.
func (c *CatBoostClassifier) LossHistory() []float64 {
	return c.lossHistory
}
