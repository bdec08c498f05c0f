package model

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type artifact struct {
	Name    string    `json:"name"`
	Weights []float64 `json:"weights"`
}

func TestSaveLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "a.json")
	want := artifact{Name: "ridge", Weights: []float64{0.5, -1.25}}
	require.NoError(t, SaveJSON(path, want))

	var got artifact
	require.NoError(t, LoadJSON(path, &got))
	assert.Equal(t, want, got)

	// 一時ファイルは残らない
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	assert.Error(t, LoadJSON(filepath.Join(t.TempDir(), "absent.json"), &got))
}

func TestJSONWriterReader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SaveJSONToWriter(&buf, artifact{Name: "x"}))

	var got artifact
	require.NoError(t, LoadJSONFromReader(&buf, &got))
	assert.Equal(t, "x", got.Name)

	assert.Error(t, LoadJSONFromReader(bytes.NewBufferString("{"), &got))
}

func TestBaseEstimator(t *testing.T) {
	var e BaseEstimator
	assert.False(t, e.IsFitted())
	assert.Equal(t, "not_fitted", e.State().String())

	e.SetFitted()
	assert.True(t, e.IsFitted())
	assert.Equal(t, Fitted, e.State())

	e.Reset()
	assert.False(t, e.IsFitted())
}
