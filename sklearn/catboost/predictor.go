package catboost

import (
	"context"
	"runtime"

	scigoErrors "github.com/YuminosukeSato/catserve/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// defaultChunkSize is the number of rows evaluated per goroutine.
const defaultChunkSize = 256

// Predictor evaluates a Model on batches of rows.
type Predictor struct {
	model      *Model
	numThreads int
	chunkSize  int
}

// NewPredictor creates a predictor using every CPU.
func NewPredictor(m *Model) *Predictor {
	return &Predictor{
		model:      m,
		numThreads: runtime.NumCPU(),
		chunkSize:  defaultChunkSize,
	}
}

// SetNumThreads bounds the number of concurrent goroutines. n <= 0 uses every CPU.
func (p *Predictor) SetNumThreads(n int) {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	p.numThreads = n
}

// CalcFlat returns the raw formula value of every row. Rows may be wider than
// the model needs; extra columns are ignored.
func (p *Predictor) CalcFlat(ctx context.Context, rows [][]float32) ([]float64, error) {
	need := p.model.NumFeatures()
	for _, row := range rows {
		if len(row) < need {
			return nil, scigoErrors.NewDimensionError("CalcFlat", need, len(row), 1)
		}
	}

	out := make([]float64, len(rows))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.numThreads)

	for start := 0; start < len(rows); start += p.chunkSize {
		end := min(start+p.chunkSize, len(rows))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				out[i] = p.model.calcRaw(rows[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// CalcMatrix converts X to float32 rows and calls CalcFlat.
func (p *Predictor) CalcMatrix(ctx context.Context, X mat.Matrix) ([]float64, error) {
	return p.CalcFlat(ctx, toFloat32Rows(X))
}

func toFloat32Rows(X mat.Matrix) [][]float32 {
	r, c := X.Dims()
	data := make([]float32, r*c)
	rows := make([][]float32, r)
	for i := 0; i < r; i++ {
		row := data[i*c : (i+1)*c : (i+1)*c]
		for j := 0; j < c; j++ {
			row[j] = float32(X.At(i, j))
		}
		rows[i] = row
	}
	return rows
}
