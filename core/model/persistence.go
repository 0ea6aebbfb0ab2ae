package model

import (
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// SaveToFile はモデルを filename に書き出す
//
// 親ディレクトリが無ければ作成し（既に存在してもエラーにしない）、同じディレクトリの
// 一時ファイルに書き込んでから rename で置き換える。再実行すると既存のファイルを上書きする。
//
// 使用例:
//
//	err := model.SaveToFile(filepath.Join(root, "test_model", "1", "catboost.cbm"), m)
func SaveToFile(filename string, w io.WriterTo) (err error) {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := w.WriteTo(tmp); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	if err := tmp.Chmod(0o644); err != nil {
		return errors.Wrap(err, "failed to set file mode")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close file")
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return errors.Wrapf(err, "failed to move model into %s", filename)
	}
	return nil
}

// LoadFromFile はファイルからモデルを読み込む
//
// 使用例:
//
//	var m catboost.Model
//	err := model.LoadFromFile("catboost.cbm", &m)
func LoadFromFile(filename string, r io.ReaderFrom) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	if _, err := r.ReadFrom(file); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
