package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 0, cfg.Workers)
	assert.Equal(t, 1000, cfg.ShardSize)
	assert.Equal(t, uint64(42), cfg.Build.Seed)
	assert.Equal(t, "./pre1900_corpus", cfg.Build.Output)
	assert.Equal(t, 1900, cfg.Build.YearCutoff)
	assert.False(t, cfg.Build.Audit.Enabled)
	assert.Equal(t, "./filtered_out_samples.jsonl", cfg.Build.Audit.Path)
	assert.Equal(t, 100, cfg.Build.Audit.SampleSize)
	assert.Equal(t, 50, cfg.Build.Audit.SnippetLen)
	assert.Equal(t, 1024, cfg.Dedup.ChunkSize)
	assert.Equal(t, 128, cfg.Dedup.Overlap)
	assert.Equal(t, 5, cfg.Dedup.ShingleSize)
	assert.InDelta(t, 0.9, cfg.Dedup.Threshold, 0.0001)
	assert.Equal(t, 128, cfg.Dedup.NumPerm)
	assert.Equal(t, "project1899/1.0", cfg.Fetch.UserAgent)
	assert.Equal(t, 60, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 8501, cfg.Spotcheck.Port)
	assert.Equal(t, 25, cfg.Spotcheck.SampleSize)
	assert.Equal(t, 20000, cfg.Spotcheck.RemovedLimit)
	assert.Equal(t, 800, cfg.Spotcheck.ExcerptLen)
	assert.Equal(t, "corpus", cfg.Export.Schema)
	assert.Equal(t, "chunks", cfg.Export.Table)
	assert.Equal(t, "replace", cfg.Export.Mode)
	assert.Equal(t, "./project1899_runs.db", cfg.RunLog.Path)
	assert.Empty(t, cfg.Build.Sources)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)
	yaml := `
log:
  level: debug
  format: console
workers: 4
dedup:
  chunk_size: 512
  threshold: 0.8
build:
  sources:
    - name: pg19
      location: ./data/pg19.jsonl
      year_field: publication_date
      boilerplate: keywords
    - name: royal_society
      location: ./data/rs.csv
      year_field: year
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 512, cfg.Dedup.ChunkSize)
	assert.Equal(t, 128, cfg.Dedup.Overlap)
	assert.InDelta(t, 0.8, cfg.Dedup.Threshold, 0.0001)

	require.Len(t, cfg.Build.Sources, 2)
	pg := cfg.Build.Sources[0]
	assert.Equal(t, "jsonl", pg.Format)
	assert.Equal(t, "text", pg.TextField)
	assert.Equal(t, "keywords", pg.Boilerplate)
	assert.Equal(t, "lenient", pg.YearPolicy)
	assert.Equal(t, "csv", cfg.Build.Sources[1].Format)
	require.NoError(t, cfg.Validate())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: debug\n"), 0o644))
	t.Setenv("P1899_LOG_LEVEL", "warn")
	t.Setenv("P1899_DEDUP_CHUNK_SIZE", "256")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 256, cfg.Dedup.ChunkSize)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed\n"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadSourcesFile(t *testing.T) {
	dir := chdirTemp(t)
	manifest := `
sources:
  - name: blbooks
    location: https://example.org/blbooks.zip
    archive: zip
    member: books.xml
    xml_element: book
`
	path := filepath.Join(dir, "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))
	t.Setenv("P1899_BUILD_SOURCES_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Build.Sources, 1)
	assert.Equal(t, "xml", cfg.Build.Sources[0].Format)
	assert.Equal(t, "zip", cfg.Build.Sources[0].Archive)
	require.NoError(t, cfg.Validate())
}

func TestLoadSources_Missing(t *testing.T) {
	_, err := LoadSources(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFormatFromLocation(t *testing.T) {
	tests := []struct {
		location, member, want string
	}{
		{"a.jsonl", "", "jsonl"},
		{"a.NDJSON", "", "jsonl"},
		{"a.json", "", "json"},
		{"https://x/a.csv", "", "csv"},
		{"a.xlsx", "", "xlsx"},
		{"a.zip", "inner.xml", "xml"},
		{"./pre1900_corpus", "", "snapshot"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatFromLocation(tt.location, tt.member), tt.location)
	}
}

func TestInitLoggerConsole(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	assert.Error(t, InitLogger(LogConfig{Level: "loud", Format: "json"}))
}
