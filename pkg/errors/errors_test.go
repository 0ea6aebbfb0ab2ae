package errors

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Fit",
			kind:    "invalid input",
			err:     fmt.Errorf("test error"),
			wantMsg: "catserve: Fit: invalid input: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not fitted",
			err:     nil,
			wantMsg: "catserve: Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			assert.Equal(t, tt.wantMsg, err.Error())

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			assert.True(t, strings.Contains(formatted, "errors_test.go"),
				"expected stack trace to contain test file name")

			var modelErr *ModelError
			assert.True(t, As(err, &modelErr))
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 3, 1)

	assert.Equal(t, "catserve: Predict: dimension mismatch on axis 1 (features). Expected 10, got 3", err.Error())

	var dimErr *DimensionError
	require.True(t, As(err, &dimErr))
	assert.Equal(t, 10, dimErr.Expected)
	assert.Equal(t, 3, dimErr.Got)
}

func TestNewFormatError(t *testing.T) {
	err := NewFormatError("cbm", 4, "truncated core")
	assert.Equal(t, "catserve: malformed cbm model at offset 4: truncated core", err.Error())

	err = NewFormatError("json", -1, "missing oblivious_trees")
	assert.Equal(t, "catserve: malformed json model: missing oblivious_trees", err.Error())

	var formatErr *FormatError
	assert.True(t, As(err, &formatErr))
}

func TestMark(t *testing.T) {
	kind := New("invalid argument")
	err := Mark(Newf("missing %s", "ModelSpec"), kind)

	assert.True(t, Is(err, kind))
	assert.False(t, Is(err, ErrEmptyData))
	assert.Equal(t, "missing ModelSpec", err.Error())
}

func TestWarnRoutesToZerolog(t *testing.T) {
	var buf bytes.Buffer
	SetZerologWarnFunc(NewZerologWarnFunc(zerolog.New(&buf)))
	defer SetZerologWarnFunc(nil)

	Warn(NewDataConversionWarning("float64", "float32", "borders are stored as float32"))

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"type":"DataConversionWarning"`)
	assert.Contains(t, out, `"from_type":"float64"`)
}

func TestWarnFallsBackToHandler(t *testing.T) {
	var got error
	SetWarningHandler(func(w error) { got = w })
	defer SetWarningHandler(nil)

	w := NewDataConversionWarning("int", "float64", "labels")
	Warn(w)

	assert.Equal(t, w, got)
}

func TestCheckNumericalStability(t *testing.T) {
	assert.NoError(t, CheckNumericalStability("ok", []float64{0, 1, -1}, 0))
	assert.NoError(t, CheckScalar("ok", 0.5, 0))

	err := CheckNumericalStability("logloss", []float64{1, math.NaN()}, 3)
	require.Error(t, err)

	var numErr *NumericalInstabilityError
	require.True(t, As(err, &numErr))
	assert.Equal(t, 3, numErr.Iteration)

	assert.Error(t, CheckScalar("logloss", math.Inf(1), 1))
}

func TestSigmoid(t *testing.T) {
	assert.InDelta(t, 0.5, Sigmoid(0), 1e-12)
	assert.InDelta(t, 1.0, Sigmoid(1000), 1e-12)
	assert.InDelta(t, 0.0, Sigmoid(-1000), 1e-12)
	assert.InDelta(t, 1/(1+math.Exp(-2)), Sigmoid(2), 1e-12)
	assert.InDelta(t, 1/(1+math.Exp(3)), Sigmoid(-3), 1e-12)
	assert.False(t, math.IsNaN(StabilizeLog(0)))
}
