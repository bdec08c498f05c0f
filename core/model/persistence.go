package model

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/edusynth/pkg/errors"
)

// SaveJSON は値をJSONとしてファイルに保存する
// 一時ファイルに書き込んでからリネームするため、途中で失敗しても既存ファイルは壊れない
//
// 使用例:
//
//	err := model.SaveJSON("models/artifact.json", artifact)
func SaveJSON(filename string, v interface{}) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(filename)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer os.Remove(tmp.Name())

	if err := SaveJSONToWriter(tmp, v); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close file")
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return errors.Wrapf(err, "failed to move file into place: %s", filename)
	}
	return nil
}

// LoadJSON はファイルからJSONを読み込む
func LoadJSON(filename string, v interface{}) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	return LoadJSONFromReader(file, v)
}

// SaveJSONToWriter は値をインデント付きJSONでio.Writerに書き込む
func SaveJSONToWriter(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode json")
	}
	return nil
}

// LoadJSONFromReader はio.ReaderからJSONを読み込む
func LoadJSONFromReader(r io.Reader, v interface{}) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return errors.Wrap(err, "failed to decode json")
	}
	return nil
}
