package catboost

import (
	"math"

	"github.com/YuminosukeSato/catserve/core/parallel"
	scigoErrors "github.com/YuminosukeSato/catserve/pkg/errors"
	"github.com/YuminosukeSato/catserve/pkg/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Trainer grows an ensemble of oblivious trees by Newton boosting.
type Trainer struct {
	params    TrainingParams
	objective ObjectiveFunction
	logger    log.Logger

	pool   *quantizedPool
	target []float64

	approx []float64
	der1   []float64
	der2   []float64

	trees       []ObliviousTree
	lossHistory []float64
}

// splitCandidate is the best split found for one feature at one level.
type splitCandidate struct {
	feature int
	bin     int
	score   float64
}

// NewTrainer creates a trainer. Params are validated by Fit.
func NewTrainer(params TrainingParams) *Trainer {
	return &Trainer{
		params: params,
		logger: log.GetLoggerWithName("catboost.trainer"),
	}
}

// Fit trains on X (n_samples, n_features) and target (n_samples). Targets are
// 0/1 for Logloss and probabilities for CrossEntropy.
func (t *Trainer) Fit(X mat.Matrix, target []float64) error {
	if err := t.params.Validate(); err != nil {
		return err
	}
	objective, err := CreateObjectiveFunction(t.params.LossFunction)
	if err != nil {
		return err
	}
	t.objective = objective

	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return scigoErrors.NewValueError("Trainer.Fit", "empty training data")
	}
	if len(target) != rows {
		return scigoErrors.NewDimensionError("Trainer.Fit", rows, len(target), 0)
	}

	t.pool = quantize(X, t.params.BorderCount, t.params.ThreadCount)
	t.target = target

	splittable := false
	for _, f := range t.pool.features {
		if len(f.Borders) > 0 {
			splittable = true
			break
		}
	}
	if !splittable {
		return scigoErrors.NewValueError("Trainer.Fit", "all features are constant")
	}

	t.approx = make([]float64, rows)
	t.der1 = make([]float64, rows)
	t.der2 = make([]float64, rows)
	t.trees = make([]ObliviousTree, 0, t.params.Iterations)
	t.lossHistory = make([]float64, 0, t.params.Iterations)

	if t.params.Verbose {
		t.logger.Info("Training started",
			log.OperationKey, log.OperationFit,
			log.SamplesKey, rows,
			log.FeaturesKey, cols,
			log.IterationsKey, t.params.Iterations,
			log.DepthKey, t.params.Depth,
			log.LearningRateKey, t.params.LearningRate,
		)
	}

	for iter := 0; iter < t.params.Iterations; iter++ {
		t.calculateDerivatives()

		tree, leafOf := t.buildTree()
		t.trees = append(t.trees, tree)

		for i, leaf := range leafOf {
			t.approx[i] += tree.LeafValues[leaf]
		}
		if err := scigoErrors.CheckNumericalStability("approx", t.approx, iter); err != nil {
			return err
		}

		loss := t.calculateLoss()
		if err := scigoErrors.CheckScalar("logloss", loss, iter); err != nil {
			return err
		}
		t.lossHistory = append(t.lossHistory, loss)

		if t.params.Verbose {
			t.logger.Debug("Training progress",
				log.IterationKey, iter,
				log.LossKey, loss,
			)
		}
	}

	if t.params.Verbose {
		t.logger.Info("Training completed",
			log.TreesKey, len(t.trees),
			log.LossKey, t.lossHistory[len(t.lossHistory)-1],
		)
	}
	return nil
}

func (t *Trainer) calculateDerivatives() {
	for i, a := range t.approx {
		t.der1[i], t.der2[i] = t.objective.Derivatives(a, t.target[i])
	}
}

func (t *Trainer) calculateLoss() float64 {
	losses := make([]float64, len(t.approx))
	for i, a := range t.approx {
		losses[i] = t.objective.Loss(a, t.target[i])
	}
	return floats.Sum(losses) / float64(len(losses))
}

// buildTree grows one oblivious tree level by level and returns it together
// with the leaf each training row landed in.
func (t *Trainer) buildTree() (ObliviousTree, []int) {
	leafOf := make([]int, t.pool.rows)
	used := make(map[[2]int]bool)
	var splits []Split

	for depth := 0; depth < t.params.Depth; depth++ {
		best, ok := t.findBestSplit(leafOf, 1<<depth, used)
		if !ok {
			break
		}
		used[[2]int{best.feature, best.bin}] = true

		bins := t.pool.bins[best.feature]
		for i := range leafOf {
			if int(bins[i]) > best.bin {
				leafOf[i] |= 1 << depth
			}
		}
		splits = append(splits, Split{
			FloatFeatureIndex: best.feature,
			Border:            t.pool.features[best.feature].Borders[best.bin],
		})
	}

	leaves := 1 << len(splits)
	sumDer1 := make([]float64, leaves)
	sumDer2 := make([]float64, leaves)
	weights := make([]float64, leaves)
	for i, leaf := range leafOf {
		sumDer1[leaf] += t.der1[i]
		sumDer2[leaf] += t.der2[i]
		weights[leaf]++
	}

	values := make([]float64, leaves)
	for leaf := range values {
		values[leaf] = t.params.LearningRate * newtonStep(sumDer1[leaf], sumDer2[leaf], t.params.L2LeafReg)
	}

	return ObliviousTree{
		Splits:      splits,
		LeafValues:  values,
		LeafWeights: weights,
	}, leafOf
}

// findBestSplit scores every unused (feature, border) pair for the current
// level. Features are scored concurrently; ties go to the lowest feature and
// then the lowest border so the result does not depend on scheduling.
func (t *Trainer) findBestSplit(leafOf []int, leaves int, used map[[2]int]bool) (splitCandidate, bool) {
	nFeatures := len(t.pool.features)
	perFeature := make([]splitCandidate, nFeatures)

	parallel.ParallelizeWithThreshold(nFeatures, parallelFeatureThreshold, t.params.ThreadCount, func(start, end int) {
		for f := start; f < end; f++ {
			perFeature[f] = t.scoreFeature(f, leafOf, leaves, used)
		}
	})

	best := splitCandidate{score: math.Inf(-1)}
	found := false
	for _, c := range perFeature {
		if c.bin >= 0 && c.score > best.score {
			best = c
			found = true
		}
	}
	return best, found
}

// scoreFeature returns the best border of feature f, or bin -1 if none is usable.
//
// The score of a split is Σ G²/(H+λ) over the leaves it produces, where G and
// H are the sums of der1 and der2 in each leaf.
func (t *Trainer) scoreFeature(f int, leafOf []int, leaves int, used map[[2]int]bool) splitCandidate {
	best := splitCandidate{feature: f, bin: -1, score: math.Inf(-1)}
	borders := t.pool.features[f].Borders
	if len(borders) == 0 {
		return best
	}

	nBins := len(borders) + 1
	histDer1 := make([]float64, leaves*nBins)
	histDer2 := make([]float64, leaves*nBins)
	bins := t.pool.bins[f]
	for i, leaf := range leafOf {
		idx := leaf*nBins + int(bins[i])
		histDer1[idx] += t.der1[i]
		histDer2[idx] += t.der2[i]
	}

	totalDer1 := make([]float64, leaves)
	totalDer2 := make([]float64, leaves)
	for leaf := 0; leaf < leaves; leaf++ {
		row := leaf * nBins
		totalDer1[leaf] = floats.Sum(histDer1[row : row+nBins])
		totalDer2[leaf] = floats.Sum(histDer2[row : row+nBins])
	}

	l2 := t.params.L2LeafReg
	leftDer1 := make([]float64, leaves)
	leftDer2 := make([]float64, leaves)
	for b := 0; b < len(borders); b++ {
		score := 0.0
		for leaf := 0; leaf < leaves; leaf++ {
			idx := leaf*nBins + b
			leftDer1[leaf] += histDer1[idx]
			leftDer2[leaf] += histDer2[idx]
			rightDer1 := totalDer1[leaf] - leftDer1[leaf]
			rightDer2 := totalDer2[leaf] - leftDer2[leaf]
			score += leafScore(leftDer1[leaf], leftDer2[leaf], l2) + leafScore(rightDer1, rightDer2, l2)
		}
		if used[[2]int{f, b}] {
			continue
		}
		if score > best.score {
			best.bin = b
			best.score = score
		}
	}
	return best
}

func leafScore(sumDer1, sumDer2, l2 float64) float64 {
	denom := sumDer2 + l2
	if denom <= 0 {
		return 0
	}
	return sumDer1 * sumDer1 / denom
}

func newtonStep(sumDer1, sumDer2, l2 float64) float64 {
	denom := sumDer2 + l2
	if denom <= 0 {
		return 0
	}
	return sumDer1 / denom
}

// Model returns the trained ensemble. Bias is 0: Logloss does not boost from
// the average.
func (t *Trainer) Model() *Model {
	return &Model{
		FloatFeatures: t.pool.features,
		Trees:         t.trees,
		Scale:         1,
		Bias:          0,
		Info:          map[string]string{InfoParams: t.params.String()},
	}
}

// LossHistory returns the mean training loss after each iteration.
func (t *Trainer) LossHistory() []float64 {
	return t.lossHistory
}
