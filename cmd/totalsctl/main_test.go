package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink map[string]map[string]any

func (m memSink) ReplaceHash(_ context.Context, key string, fields map[string]any) error {
	m[key] = fields
	return nil
}

func TestPushFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "totals.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"bok":{"nob":{"1900":10,"1901":12}},"avis":{"all":{"1900":40}}}`), 0o644))

	sink := memSink{}
	require.NoError(t, pushFile(context.Background(), sink, "totals", path))

	assert.Len(t, sink, 2)
	assert.Equal(t, map[string]any{"1900": int64(10), "1901": int64(12)}, sink["totals:bok:nob"])
	assert.Equal(t, map[string]any{"1900": int64(40)}, sink["totals:avis:all"])
}

func TestPushFileMissing(t *testing.T) {
	assert.Error(t, pushFile(context.Background(), memSink{}, "totals", filepath.Join(t.TempDir(), "nope.json")))
}
