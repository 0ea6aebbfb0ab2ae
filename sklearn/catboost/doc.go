// Package catboost trains and evaluates gradient-boosted ensembles of
// oblivious (symmetric) decision trees in the style of CatBoost.
//
// An oblivious tree applies the same split at every node of a level, so a
// tree of depth d is just d (feature, border) pairs and 2^d leaf values. The
// leaf for a row is found by setting bit k of the leaf index when the row's
// feature value is strictly greater than the k-th split border.
//
// # Training
//
//	clf := catboost.NewCatBoostClassifier().
//	    WithIterations(10).
//	    WithDepth(4).
//	    WithLearningRate(0.1).
//	    WithLossFunction(catboost.LossLogloss)
//	if err := clf.Fit(X, y); err != nil {
//	    return err
//	}
//	labels, _ := clf.Predict(XTest)
//
// # Model files
//
// Models are written in the binary "cbm" layout (a "CBM1" header followed by
// the little-endian model core) or in CatBoost's JSON export layout:
//
//	err := clf.SaveModel("test_model/1/catboost.cbm", catboost.FormatCBM)
//	m, err := catboost.LoadModelFromFile("test_model/1/catboost.cbm", catboost.FormatCBM)
//
// # Serving
//
// Predictor evaluates a loaded Model on float32 rows in parallel and is what
// the servable in servables/catboost calls:
//
//	raw, err := catboost.NewPredictor(m).CalcFlat(ctx, rows)
package catboost
