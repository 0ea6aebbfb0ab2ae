package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(root)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootExportsModel(t *testing.T) {
	root := t.TempDir()

	out, err := execute(t, root)
	require.NoError(t, err)

	path := filepath.Join(root, "test_model", "1", "catboost.cbm")
	assert.Contains(t, out, "Model saved to: "+path)
	assert.Contains(t, out, "Test predictions: [")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRootRejectsArgs(t *testing.T) {
	_, err := execute(t, t.TempDir(), "extra")
	assert.Error(t, err)
}

func TestRootRejectsFlags(t *testing.T) {
	_, err := execute(t, t.TempDir(), "--seed", "7")
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	root := t.TempDir()
	_, err := execute(t, root)
	require.NoError(t, err)

	path := filepath.Join(root, "test_model", "1", "catboost.cbm")
	out, err := execute(t, root, "inspect", path)
	require.NoError(t, err)

	var summary modelSummary
	require.NoError(t, yaml.Unmarshal([]byte(out), &summary))
	assert.Equal(t, path, summary.Path)
	assert.Equal(t, "cbm", summary.Format)
	assert.Equal(t, 10, summary.Trees)
	assert.LessOrEqual(t, summary.MaxDepth, 4)
	assert.Equal(t, 1.0, summary.Scale)
	assert.Len(t, summary.Features, 10)
	assert.Contains(t, summary.Info, "model_guid")
	assert.True(t, summary.Features[0].Used || summary.Features[1].Used)
}

func TestInspectMissingFile(t *testing.T) {
	_, err := execute(t, t.TempDir(), "inspect", filepath.Join(t.TempDir(), "nope.cbm"))
	assert.Error(t, err)
}

func TestScriptDir(t *testing.T) {
	dir, err := scriptDir()
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "main.go"))
}
