package metrics

import (
	"github.com/YuminosukeSato/catserve/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Accuracy は正解率（予測ラベルと正解ラベルが一致する割合）を計算する
//
// yTrue と yPred は (n_samples, 1) の行列。
func Accuracy(yTrue, yPred mat.Matrix) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return 0, errors.NewValueError("Accuracy", "empty matrix")
	}
	if rTrue != rPred {
		return 0, errors.NewDimensionError("Accuracy", rTrue, rPred, 0)
	}
	if cTrue != 1 || cPred != 1 {
		return 0, errors.NewDimensionError("Accuracy", 1, cPred, 1)
	}

	correct := 0
	for i := 0; i < rTrue; i++ {
		if yTrue.At(i, 0) == yPred.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(rTrue), nil
}

// LogLoss は二値分類の平均対数損失を計算する
//
// yTrue は 0/1 のラベル、proba は陽性クラスの確率。
func LogLoss(yTrue, proba []float64) (float64, error) {
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewValueError("LogLoss", "empty vector")
	}
	if len(proba) != n {
		return 0, errors.NewDimensionError("LogLoss", n, len(proba), 0)
	}

	losses := make([]float64, n)
	for i, y := range yTrue {
		p := proba[i]
		losses[i] = -(y*errors.StabilizeLog(p) + (1-y)*errors.StabilizeLog(1-p))
	}
	return floats.Sum(losses) / float64(n), nil
}
