package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestLoggerLevels(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelInfo)

	testLogger.Debug("hidden debug")
	testLogger.Info("info message", "key1", "value1", "number", 42)
	testLogger.Warn("warning message")
	testLogger.Error("error message", fmt.Errorf("boom"), ErrorCodeKey, ErrorInvalidInput)

	assert.NotEmpty(t, buffer.String())
	assert.False(t, testLogger.ContainsMessage("hidden debug"))
	assert.True(t, testLogger.ContainsMessage("info message"))
	assert.True(t, testLogger.ContainsMessage("warning message"))
	assert.True(t, testLogger.ContainsField("key1", "value1"))
	assert.True(t, testLogger.ContainsField("number", 42.0))
	assert.True(t, testLogger.ContainsField(ErrAttrKey, "boom"))
	assert.True(t, testLogger.ContainsField(ErrorCodeKey, ErrorInvalidInput))

	assert.True(t, testLogger.Enabled(context.Background(), LevelError))
	assert.False(t, testLogger.Enabled(context.Background(), LevelDebug))
}

func TestTestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(ModelNameKey, "CatBoostClassifier", ComponentKey, "catboost")
	contextLogger.Info("contextual message", OperationKey, OperationFit, SamplesKey, 100)

	entries, err := testLogger.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "CatBoostClassifier", entries[0][ModelNameKey])
	assert.Equal(t, "catboost", entries[0][ComponentKey])
	assert.Equal(t, OperationFit, entries[0][OperationKey])
	assert.Equal(t, 100.0, entries[0][SamplesKey])

	testLogger.Clear()
	entries, err = testLogger.GetLogEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSetProvider(t *testing.T) {
	p, buffer := NewTestLoggerProvider(LevelDebug)
	prev := SetProvider(p)
	defer SetProvider(prev)

	GetLogger().Info("provider message")
	GetLoggerWithName("catboost.trainer").Debug("named message")

	out := buffer.String()
	assert.Contains(t, out, "provider message")
	assert.Contains(t, out, "named message")
	assert.True(t, p.Logger().ContainsField(ComponentKey, "catboost.trainer"))

	p.SetLevel(LevelWarn)
	GetLogger().Info("suppressed")
	assert.False(t, p.Logger().ContainsMessage("suppressed"))
}

func TestSetupLoggerWritesStacktrace(t *testing.T) {
	var buf bytes.Buffer
	SetupLogger("debug", &buf)

	logger := GetLoggerWithName("export")
	logger.Error("export failed", errors.New("disk full"), OperationKey, OperationSave)

	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "ERROR", entry["severity"])
	assert.Equal(t, "export failed", entry["message"])
	assert.Equal(t, "export", entry[ComponentKey])
	assert.Equal(t, OperationSave, entry[OperationKey])
	assert.NotEmpty(t, entry[StacktraceAttrKey])
}

func TestToLogLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, Level(ToLogLevel("debug")))
	assert.Equal(t, LevelError, Level(ToLogLevel("error")))
	assert.Panics(t, func() { ToLogLevel("verbose") })
	assert.Equal(t, "WARN", LevelWarn.String())
}
