package catboost

import (
	scigoErrors "github.com/YuminosukeSato/catserve/pkg/errors"
)

// ObjectiveFunction supplies the per-sample derivatives used for Newton leaf
// estimation. Der1 points in the direction that decreases the loss, Der2 is
// the (positive) curvature.
type ObjectiveFunction interface {
	// Derivatives returns (der1, der2) at the current approx for target.
	Derivatives(approx, target float64) (der1, der2 float64)

	// Loss returns the per-sample loss.
	Loss(approx, target float64) float64

	// Name returns the loss function name.
	Name() string
}

// LoglossObjective is binary cross-entropy on {0, 1} targets.
type LoglossObjective struct{}

func (LoglossObjective) Derivatives(approx, target float64) (float64, float64) {
	p := scigoErrors.Sigmoid(approx)
	return target - p, p * (1 - p)
}

func (LoglossObjective) Loss(approx, target float64) float64 {
	p := scigoErrors.Sigmoid(approx)
	return -(target*scigoErrors.StabilizeLog(p) + (1-target)*scigoErrors.StabilizeLog(1-p))
}

func (LoglossObjective) Name() string { return LossLogloss }

// CrossEntropyObjective is Logloss with probabilistic targets in [0, 1].
type CrossEntropyObjective struct {
	LoglossObjective
}

func (CrossEntropyObjective) Name() string { return LossCrossEntropy }

// CreateObjectiveFunction returns the objective registered under name.
func CreateObjectiveFunction(name string) (ObjectiveFunction, error) {
	switch name {
	case LossLogloss:
		return LoglossObjective{}, nil
	case LossCrossEntropy:
		return CrossEntropyObjective{}, nil
	default:
		return nil, scigoErrors.NewValidationError("loss_function", "unsupported loss function", name)
	}
}
