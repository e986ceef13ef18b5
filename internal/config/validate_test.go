package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		ShardSize: 1000,
		Dedup:     DedupConfig{ChunkSize: 1024, Overlap: 128, ShingleSize: 5, Threshold: 0.9, NumPerm: 128},
		Export:    ExportConfig{Mode: "replace"},
		Build: BuildConfig{Sources: []SourceConfig{
			{Name: "pg19", Location: "pg19.jsonl", Format: "jsonl", Boilerplate: "keywords", YearPolicy: "lenient"},
		}},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero chunk size", func(c *Config) { c.Dedup.ChunkSize = 0 }, "chunk_size"},
		{"negative overlap", func(c *Config) { c.Dedup.Overlap = -1 }, "overlap"},
		{"threshold zero", func(c *Config) { c.Dedup.Threshold = 0 }, "threshold"},
		{"threshold above one", func(c *Config) { c.Dedup.Threshold = 1.1 }, "threshold"},
		{"threshold one", func(c *Config) { c.Dedup.Threshold = 1 }, ""},
		{"num perm", func(c *Config) { c.Dedup.NumPerm = 0 }, "num_perm"},
		{"shingle size", func(c *Config) { c.Dedup.ShingleSize = 0 }, "shingle_size"},
		{"negative workers", func(c *Config) { c.Workers = -2 }, "workers"},
		{"shard size", func(c *Config) { c.ShardSize = 0 }, "shard_size"},
		{"export mode", func(c *Config) { c.Export.Mode = "merge" }, "export mode"},
		{"boilerplate", func(c *Config) { c.Build.Sources[0].Boilerplate = "regex" }, "boilerplate"},
		{"year policy", func(c *Config) { c.Build.Sources[0].YearPolicy = "maybe" }, "year policy"},
		{"format", func(c *Config) { c.Build.Sources[0].Format = "parquet" }, "format"},
		{"archive", func(c *Config) { c.Build.Sources[0].Archive = "tar" }, "archive"},
		{"missing name", func(c *Config) { c.Build.Sources[0].Name = "" }, "name is required"},
		{"missing location", func(c *Config) { c.Build.Sources[0].Location = "" }, "location"},
		{"xml needs element", func(c *Config) { c.Build.Sources[0].Format = "xml" }, "xml_element"},
		{"duplicate source", func(c *Config) {
			c.Build.Sources = append(c.Build.Sources, c.Build.Sources[0])
		}, "duplicate source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Build.Sources = append([]SourceConfig(nil), cfg.Build.Sources...)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
