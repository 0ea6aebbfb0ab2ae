package catboost

import (
	"io"

	"github.com/YuminosukeSato/catserve/core/model"
	scigoErrors "github.com/YuminosukeSato/catserve/pkg/errors"
)

// Format selects the on-disk model layout.
type Format string

const (
	FormatCBM  Format = "cbm"
	FormatJSON Format = "json"
)

// Encoder returns the writer for m in the given format.
func (m *Model) Encoder(format Format) (io.WriterTo, error) {
	switch format {
	case FormatCBM, "":
		return m, nil
	case FormatJSON:
		return JSONCodec{Model: m}, nil
	default:
		return nil, scigoErrors.NewValidationError("format", "unsupported model format", format)
	}
}

func decoderFor(m *Model, format Format) (io.ReaderFrom, error) {
	switch format {
	case FormatCBM, "":
		return m, nil
	case FormatJSON:
		return JSONCodec{Model: m}, nil
	default:
		return nil, scigoErrors.NewValidationError("format", "unsupported model format", format)
	}
}

// SaveModelToFile writes m to path, creating parent directories and replacing
// any existing file.
func SaveModelToFile(m *Model, path string, format Format) error {
	enc, err := m.Encoder(format)
	if err != nil {
		return err
	}
	return model.SaveToFile(path, enc)
}

// LoadModelFromFile reads a model written by SaveModelToFile or by CatBoost's
// JSON export.
func LoadModelFromFile(path string, format Format) (*Model, error) {
	m := &Model{}
	dec, err := decoderFor(m, format)
	if err != nil {
		return nil, err
	}
	if err := model.LoadFromFile(path, dec); err != nil {
		return nil, err
	}
	return m, nil
}
