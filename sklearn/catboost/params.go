package catboost

import (
	"encoding/json"

	scigoErrors "github.com/YuminosukeSato/catserve/pkg/errors"
)

// Loss function names accepted by the classifier.
const (
	LossLogloss      = "Logloss"
	LossCrossEntropy = "CrossEntropy"
)

// MaxDepth is the deepest oblivious tree that can be trained or decoded.
const MaxDepth = 16

// maxBorderCount keeps bin indices within uint16.
const maxBorderCount = 65535

// TrainingParams contains all training hyperparameters.
type TrainingParams struct {
	Iterations   int     `json:"iterations"`
	Depth        int     `json:"depth"`
	LearningRate float64 `json:"learning_rate"`
	L2LeafReg    float64 `json:"l2_leaf_reg"`
	BorderCount  int     `json:"border_count"`
	LossFunction string  `json:"loss_function"`

	ThreadCount int  `json:"thread_count"` // <= 0 uses every CPU
	Verbose     bool `json:"-"`
}

// DefaultTrainingParams returns CatBoost's defaults for binary classification.
func DefaultTrainingParams() TrainingParams {
	return TrainingParams{
		Iterations:   1000,
		Depth:        6,
		LearningRate: 0.03,
		L2LeafReg:    3,
		BorderCount:  254,
		LossFunction: LossLogloss,
		ThreadCount:  -1,
	}
}

// Validate rejects hyperparameters that cannot train a model.
func (p TrainingParams) Validate() error {
	switch {
	case p.Iterations < 1:
		return scigoErrors.NewValidationError("iterations", "must be at least 1", p.Iterations)
	case p.Depth < 1 || p.Depth > MaxDepth:
		return scigoErrors.NewValidationError("depth", "must be in [1, 16]", p.Depth)
	case !(p.LearningRate > 0):
		return scigoErrors.NewValidationError("learning_rate", "must be positive", p.LearningRate)
	case p.L2LeafReg < 0:
		return scigoErrors.NewValidationError("l2_leaf_reg", "must be non-negative", p.L2LeafReg)
	case p.BorderCount < 1 || p.BorderCount > maxBorderCount:
		return scigoErrors.NewValidationError("border_count", "must be in [1, 65535]", p.BorderCount)
	}
	if _, err := CreateObjectiveFunction(p.LossFunction); err != nil {
		return err
	}
	return nil
}

// String returns the parameters as the JSON stored in the model's "params" info key.
func (p TrainingParams) String() string {
	b, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(b)
}
