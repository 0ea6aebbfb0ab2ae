package catboost

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/YuminosukeSato/catserve/pkg/errors"
	"github.com/YuminosukeSato/catserve/pkg/log"
	cbmodel "github.com/YuminosukeSato/catserve/sklearn/catboost"
)

// Bundle holds one loaded model version.
type Bundle struct {
	mu     sync.RWMutex
	path   string
	model  *cbmodel.Model
	logger log.Logger
}

// LoadBundle loads <dir>/catboost.cbm.
func LoadBundle(dir string) (*Bundle, error) {
	b := &Bundle{
		path:   filepath.Join(dir, ModelFileName),
		logger: log.GetLoggerWithName("catboost.bundle"),
	}

	if _, err := os.Stat(b.path); err != nil {
		err = errors.Mark(errors.Newf("CatBoost Model Path is empty: %s", b.path), ErrUnknown)
		b.logger.Error("Failed to load bundle", err, log.ModelPathKey, b.path)
		return nil, err
	}

	m, err := cbmodel.LoadModelFromFile(b.path, cbmodel.FormatCBM)
	if err != nil {
		err = errors.Mark(errors.Wrap(err, "Failed to load CatBoost model"), ErrUnknown)
		b.logger.Error("Failed to load bundle", err, log.ModelPathKey, b.path)
		return nil, err
	}
	b.model = m

	b.logger.Info("Load the CatBoost model successfully",
		log.OperationKey, log.OperationLoad,
		log.ModelPathKey, b.path,
		log.TreesKey, m.NumTrees(),
		log.FeaturesKey, m.NumFeatures(),
	)
	return b, nil
}

// Model returns the loaded model, or nil once the bundle is unloaded.
func (b *Bundle) Model() *cbmodel.Model {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// Path returns the model file the bundle was loaded from.
func (b *Bundle) Path() string {
	return b.path
}

// Unload releases the model. Requests already holding it finish normally.
// Unloading twice is a no-op.
func (b *Bundle) Unload() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.model == nil {
		return nil
	}
	b.model = nil
	b.logger.Info("Unload the CatBoost model successfully",
		log.OperationKey, log.OperationUnload,
		log.ModelPathKey, b.path,
	)
	return nil
}
