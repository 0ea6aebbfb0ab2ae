package catboost

import (
	"bytes"
	"encoding/binary"
	"testing"

	scigoErrors "github.com/YuminosukeSato/catserve/pkg/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeCBM(t *testing.T, m *Model) []byte {
	t.Helper()
	var buf bytes.Buffer
	n, err := m.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)
	return buf.Bytes()
}

func TestCBMRoundTrip(t *testing.T) {
	want := newTestModel()
	data := encodeCBM(t, want)

	assert.Equal(t, "CBM1", string(data[:4]))
	assert.Equal(t, uint32(len(data)-8), binary.LittleEndian.Uint32(data[4:8]))

	got := &Model{}
	n, err := got.ReadFrom(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)

	guid := got.Info[InfoModelGUID]
	_, err = uuid.Parse(guid)
	require.NoError(t, err, "model_guid %q", guid)

	want.Info[InfoModelGUID] = guid
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded model mismatch (-want +got):\n%s", diff)
	}
}

func TestCBMDeterministic(t *testing.T) {
	first := encodeCBM(t, newTestModel())
	second := encodeCBM(t, newTestModel())
	assert.Equal(t, first, second)

	m := newTestModel()
	m.Trees[0].LeafValues[0] = 0.11
	assert.NotEqual(t, first, encodeCBM(t, m))
}

func TestCBMKeepsExistingGUID(t *testing.T) {
	m := newTestModel()
	m.Info[InfoModelGUID] = "fixed"

	got := &Model{}
	_, err := got.ReadFrom(bytes.NewReader(encodeCBM(t, m)))
	require.NoError(t, err)
	assert.Equal(t, "fixed", got.Info[InfoModelGUID])
}

func TestCBMNilLeafWeights(t *testing.T) {
	m := newTestModel()
	m.Trees[1].LeafWeights = nil

	got := &Model{}
	_, err := got.ReadFrom(bytes.NewReader(encodeCBM(t, m)))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, got.Trees[1].LeafWeights)
}

func TestCBMRejectsMalformedInput(t *testing.T) {
	valid := encodeCBM(t, newTestModel())

	withSize := func(core []byte) []byte {
		out := append([]byte("CBM1"), binary.LittleEndian.AppendUint32(nil, uint32(len(core)))...)
		return append(out, core...)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", []byte("CBM")},
		{"bad magic", append([]byte("XBM1"), valid[4:]...)},
		{"truncated", valid[:len(valid)-3]},
		{"trailing garbage", append(append([]byte{}, valid...), 0)},
		{"truncated core with matching size", withSize(valid[8 : len(valid)-3])},
		{"wrong version", withSize(append(binary.LittleEndian.AppendUint32(nil, 9), valid[12:]...))},
		{"huge feature count", withSize(append(binary.LittleEndian.AppendUint32(binary.LittleEndian.AppendUint32(nil, 1), 1), 0xff, 0xff, 0xff, 0x7f))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&Model{}).ReadFrom(bytes.NewReader(tt.data))

			var formatErr *scigoErrors.FormatError
			assert.True(t, scigoErrors.As(err, &formatErr), "got %v", err)
		})
	}
}

func TestCBMRejectsInvalidStructure(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Model)
	}{
		{"unknown split feature", func(m *Model) { m.Trees[0].Splits[1].FloatFeatureIndex = 7 }},
		{"huge flat index", func(m *Model) { m.FloatFeatures[1].FlatFeatureIndex = 1 << 26 }},
		{"split border outside borders", func(m *Model) { m.Trees[0].Splits[0].Border = 0.75 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel()
			tt.mutate(m)

			_, err := (&Model{}).ReadFrom(bytes.NewReader(encodeCBM(t, m)))

			var modelErr *scigoErrors.ModelError
			assert.True(t, scigoErrors.As(err, &modelErr), "got %v", err)
		})
	}
}
