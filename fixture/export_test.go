package fixture

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/catserve/pkg/log"
	"github.com/YuminosukeSato/catserve/servables/catboost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, root string) (Config, *bytes.Buffer, *log.TestLogger) {
	t.Helper()
	logger, _ := log.NewTestLogger(log.LevelDebug)
	out := &bytes.Buffer{}
	cfg := DefaultConfig(root)
	cfg.Out = out
	cfg.Logger = logger
	return cfg, out, logger
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/srv")
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, 100, cfg.Samples)
	assert.Equal(t, 10, cfg.Features)
	assert.Equal(t, 2, cfg.TestSamples)
	assert.Equal(t, 10, cfg.Iterations)
	assert.Equal(t, 4, cfg.Depth)
	assert.Equal(t, 0.1, cfg.LearningRate)
	assert.Equal(t, "Logloss", cfg.LossFunction)
	assert.Equal(t, filepath.Join("/srv", "test_model", "1", "catboost.cbm"), cfg.ModelPath())
}

func TestExport(t *testing.T) {
	root := t.TempDir()
	cfg, out, logger := testConfig(t, root)

	res, err := Export(cfg)
	require.NoError(t, err)

	path := filepath.Join(root, "test_model", "1", "catboost.cbm")
	assert.Equal(t, path, res.ModelPath)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	require.Len(t, res.Predictions, 2)
	for _, p := range res.Predictions {
		assert.Contains(t, []int{0, 1}, p)
	}

	want := fmt.Sprintf("Model saved to: %s\nTest predictions: [%d %d]\n", path, res.Predictions[0], res.Predictions[1])
	assert.Equal(t, want, out.String())
	assert.True(t, logger.ContainsField(log.OperationKey, log.OperationExport))
	assert.Greater(t, res.TrainAccuracy, 0.7)
	assert.True(t, logger.ContainsField(log.AccuracyKey, res.TrainAccuracy))
}

func TestExportIsDeterministic(t *testing.T) {
	first, err := Export(func() Config { c, _, _ := testConfig(t, t.TempDir()); return c }())
	require.NoError(t, err)
	second, err := Export(func() Config { c, _, _ := testConfig(t, t.TempDir()); return c }())
	require.NoError(t, err)

	a, err := os.ReadFile(first.ModelPath)
	require.NoError(t, err)
	b, err := os.ReadFile(second.ModelPath)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, first.Predictions, second.Predictions)
}

func TestExportOverwrites(t *testing.T) {
	root := t.TempDir()
	cfg, _, _ := testConfig(t, root)

	first, err := Export(cfg)
	require.NoError(t, err)
	before, err := os.ReadFile(first.ModelPath)
	require.NoError(t, err)

	second, err := Export(cfg)
	require.NoError(t, err)
	after, err := os.ReadFile(second.ModelPath)
	require.NoError(t, err)

	assert.Equal(t, before, after)
	entries, err := os.ReadDir(filepath.Dir(second.ModelPath))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExportedModelIsServable(t *testing.T) {
	root := t.TempDir()
	cfg, _, _ := testConfig(t, root)
	res, err := Export(cfg)
	require.NoError(t, err)

	b, err := catboost.LoadBundle(filepath.Dir(res.ModelPath))
	require.NoError(t, err)
	defer b.Unload()

	resp, err := catboost.NewPredictor().Predict(context.Background(),
		catboost.NewSingleBundleSource("catboost", 1, b),
		&catboost.PredictRequest{
			ModelSpec: &catboost.ModelSpec{Name: "catboost"},
			Inputs: map[string][]catboost.FeatureScore{catboost.FeaturesName: {
				{ID: []uint64{0, 1}, Score: []float32{2, 2}},
				{ID: []uint64{0, 1}, Score: []float32{-2, -2}},
			}},
		})
	require.NoError(t, err)

	raw := resp.Outputs[catboost.PredictionsOutputName]
	require.Len(t, raw, 2)
	assert.Greater(t, raw[0], 0.0)
	assert.Less(t, raw[1], 0.0)
}

func TestExportFailsOnUnwritableRoot(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "test_model")
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0o644))

	cfg, out, _ := testConfig(t, root)
	_, err := Export(cfg)
	require.Error(t, err)
	assert.Empty(t, out.String())
}

func TestExportRejectsInvalidConfig(t *testing.T) {
	cfg, _, _ := testConfig(t, t.TempDir())
	cfg.Depth = 0
	_, err := Export(cfg)
	assert.Error(t, err)
}
