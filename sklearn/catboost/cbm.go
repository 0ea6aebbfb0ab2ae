package catboost

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"sort"

	scigoErrors "github.com/YuminosukeSato/catserve/pkg/errors"
	"github.com/google/uuid"
)

// Binary model layout:
//
//	"CBM1" | uint32 core size | core
//
// The core is little-endian:
//
//	uint32 format version, uint32 approx dimension
//	uint32 n float features, then per feature:
//	    uint32 feature index, uint32 flat index, uint8 has NaNs,
//	    uint8 NaN treatment, uint32 n borders, float32 borders...
//	uint32 n trees, then per tree:
//	    uint32 depth, (uint32 float feature index, float32 border) per level,
//	    float64 leaf values..., float64 leaf weights...
//	float64 scale, float64 bias
//	uint32 n info entries, then (uint32 len, key, uint32 len, value) sorted by key
const (
	cbmMagic         = "CBM1"
	cbmFormatVersion = 1
	cbmHeaderSize    = 8
)

var nanTreatmentCodes = map[NanValueTreatment]uint8{
	NanAsIs:    0,
	NanAsFalse: 1,
	NanAsTrue:  2,
}

var nanTreatmentByCode = []NanValueTreatment{NanAsIs, NanAsFalse, NanAsTrue}

// WriteTo encodes the model in the binary cbm layout. If the model has no
// model_guid, one is derived from the core bytes, so encoding the same model
// twice yields identical files.
func (m *Model) WriteTo(w io.Writer) (int64, error) {
	info := make(map[string]string, len(m.Info)+1)
	for k, v := range m.Info {
		info[k] = v
	}
	if _, ok := info[InfoModelGUID]; !ok {
		info[InfoModelGUID] = uuid.NewSHA1(uuid.NameSpaceOID, m.encodeCore(info)).String()
	}

	core := m.encodeCore(info)
	if uint64(len(core)) > math.MaxUint32 {
		return 0, scigoErrors.NewModelError("WriteTo", "model core exceeds 4GiB", nil)
	}

	out := make([]byte, 0, cbmHeaderSize+len(core))
	out = append(out, cbmMagic...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(core)))
	out = append(out, core...)

	n, err := w.Write(out)
	return int64(n), err
}

func (m *Model) encodeCore(info map[string]string) []byte {
	var b []byte
	le := binary.LittleEndian

	b = le.AppendUint32(b, cbmFormatVersion)
	b = le.AppendUint32(b, 1)

	b = le.AppendUint32(b, uint32(len(m.FloatFeatures)))
	for _, f := range m.FloatFeatures {
		b = le.AppendUint32(b, uint32(f.FeatureIndex))
		b = le.AppendUint32(b, uint32(f.FlatFeatureIndex))
		b = append(b, boolByte(f.HasNaNs), nanTreatmentCodes[f.NanValueTreatment])
		b = le.AppendUint32(b, uint32(len(f.Borders)))
		for _, border := range f.Borders {
			b = le.AppendUint32(b, math.Float32bits(border))
		}
	}

	b = le.AppendUint32(b, uint32(len(m.Trees)))
	for _, t := range m.Trees {
		b = le.AppendUint32(b, uint32(t.Depth()))
		for _, s := range t.Splits {
			b = le.AppendUint32(b, uint32(s.FloatFeatureIndex))
			b = le.AppendUint32(b, math.Float32bits(s.Border))
		}
		for _, v := range t.LeafValues {
			b = le.AppendUint64(b, math.Float64bits(v))
		}
		weights := t.LeafWeights
		if weights == nil {
			weights = make([]float64, len(t.LeafValues))
		}
		for _, v := range weights {
			b = le.AppendUint64(b, math.Float64bits(v))
		}
	}

	b = le.AppendUint64(b, math.Float64bits(m.Scale))
	b = le.AppendUint64(b, math.Float64bits(m.Bias))

	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b = le.AppendUint32(b, uint32(len(keys)))
	for _, k := range keys {
		b = le.AppendUint32(b, uint32(len(k)))
		b = append(b, k...)
		b = le.AppendUint32(b, uint32(len(info[k])))
		b = append(b, info[k]...)
	}
	return b
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// ReadFrom decodes a binary cbm model, replacing the receiver's contents.
func (m *Model) ReadFrom(r io.Reader) (int64, error) {
	var buf bytes.Buffer
	n, err := buf.ReadFrom(r)
	if err != nil {
		return n, scigoErrors.Wrap(err, "failed to read cbm model")
	}
	decoded, err := decodeCBM(buf.Bytes())
	if err != nil {
		return n, err
	}
	*m = *decoded
	return n, nil
}

func decodeCBM(data []byte) (*Model, error) {
	if len(data) < cbmHeaderSize {
		return nil, scigoErrors.NewFormatError("cbm", 0, "file is shorter than the header")
	}
	if string(data[:4]) != cbmMagic {
		return nil, scigoErrors.NewFormatError("cbm", 0, "missing CBM1 magic")
	}
	size := binary.LittleEndian.Uint32(data[4:8])
	if uint64(size) != uint64(len(data)-cbmHeaderSize) {
		return nil, scigoErrors.NewFormatError("cbm", 4, "core size does not match file size")
	}

	d := &cbmDecoder{data: data, off: cbmHeaderSize}
	m := &Model{}

	if v := d.u32(); d.err == nil && v != cbmFormatVersion {
		return nil, scigoErrors.NewFormatError("cbm", int64(d.off-4), "unsupported format version")
	}
	if v := d.u32(); d.err == nil && v != 1 {
		return nil, scigoErrors.NewFormatError("cbm", int64(d.off-4), "only approx dimension 1 is supported")
	}

	nFeatures := d.count(14) // fixed part of a float feature
	m.FloatFeatures = make([]FloatFeature, nFeatures)
	for i := range m.FloatFeatures {
		f := &m.FloatFeatures[i]
		f.FeatureIndex = int(d.u32())
		f.FlatFeatureIndex = int(d.u32())
		f.HasNaNs = d.u8() != 0
		code := d.u8()
		if d.err == nil && int(code) >= len(nanTreatmentByCode) {
			return nil, scigoErrors.NewFormatError("cbm", int64(d.off-1), "unknown NaN treatment")
		}
		if d.err == nil {
			f.NanValueTreatment = nanTreatmentByCode[code]
		}
		nBorders := d.count(4)
		f.Borders = make([]float32, nBorders)
		for j := range f.Borders {
			f.Borders[j] = math.Float32frombits(d.u32())
		}
	}

	nTrees := d.count(4)
	m.Trees = make([]ObliviousTree, nTrees)
	for i := range m.Trees {
		depth := int(d.u32())
		if d.err == nil && depth > MaxDepth {
			return nil, scigoErrors.NewFormatError("cbm", int64(d.off-4), "tree is deeper than 16")
		}
		if d.err != nil {
			break
		}
		t := &m.Trees[i]
		t.Splits = make([]Split, depth)
		for j := range t.Splits {
			t.Splits[j].FloatFeatureIndex = int(d.u32())
			t.Splits[j].Border = math.Float32frombits(d.u32())
		}
		leaves := 1 << depth
		if !d.has(leaves * 16) {
			break
		}
		t.LeafValues = make([]float64, leaves)
		for j := range t.LeafValues {
			t.LeafValues[j] = math.Float64frombits(d.u64())
		}
		t.LeafWeights = make([]float64, leaves)
		for j := range t.LeafWeights {
			t.LeafWeights[j] = math.Float64frombits(d.u64())
		}
	}

	m.Scale = math.Float64frombits(d.u64())
	m.Bias = math.Float64frombits(d.u64())

	nInfo := d.count(8)
	m.Info = make(map[string]string, nInfo)
	for i := 0; i < nInfo; i++ {
		key := d.str()
		m.Info[key] = d.str()
	}

	if d.err != nil {
		return nil, d.err
	}
	if d.off != len(data) {
		return nil, scigoErrors.NewFormatError("cbm", int64(d.off), "trailing bytes after model core")
	}
	if err := m.Validate(); err != nil {
		return nil, scigoErrors.Wrap(err, "invalid cbm model")
	}
	return m, nil
}

// cbmDecoder reads little-endian values and records the first out-of-bounds read.
type cbmDecoder struct {
	data []byte
	off  int
	err  error
}

func (d *cbmDecoder) has(n int) bool {
	if d.err != nil {
		return false
	}
	if n < 0 || len(d.data)-d.off < n {
		d.err = scigoErrors.NewFormatError("cbm", int64(d.off), "unexpected end of model core")
		return false
	}
	return true
}

func (d *cbmDecoder) u8() uint8 {
	if !d.has(1) {
		return 0
	}
	v := d.data[d.off]
	d.off++
	return v
}

func (d *cbmDecoder) u32() uint32 {
	if !d.has(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(d.data[d.off:])
	d.off += 4
	return v
}

func (d *cbmDecoder) u64() uint64 {
	if !d.has(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(d.data[d.off:])
	d.off += 8
	return v
}

// count reads an element count and checks that that many elements of at
// least minSize bytes can still follow.
func (d *cbmDecoder) count(minSize int) int {
	n := int(d.u32())
	if d.err != nil {
		return 0
	}
	if uint64(n)*uint64(minSize) > uint64(len(d.data)-d.off) {
		d.err = scigoErrors.NewFormatError("cbm", int64(d.off-4), "element count exceeds remaining bytes")
		return 0
	}
	return n
}

func (d *cbmDecoder) str() string {
	n := int(d.u32())
	if !d.has(n) {
		return ""
	}
	s := string(d.data[d.off : d.off+n])
	d.off += n
	return s
}
