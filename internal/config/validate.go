package config

import (
	"slices"

	"github.com/rotisserie/eris"
)

var (
	sourceFormats     = []string{"jsonl", "json", "csv", "xlsx", "xml", "snapshot"}
	boilerplates      = []string{"none", "markers", "keywords"}
	yearPolicies      = []string{"lenient", "strict"}
	exportModes       = []string{"replace", "upsert"}
	supportedArchives = []string{"", "zip"}
)

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return eris.Errorf("config: workers must be >= 0, got %d", c.Workers)
	}
	if c.ShardSize <= 0 {
		return eris.Errorf("config: shard_size must be positive, got %d", c.ShardSize)
	}
	if err := c.Dedup.Validate(); err != nil {
		return err
	}
	if !slices.Contains(exportModes, c.Export.Mode) {
		return eris.Errorf("config: unknown export mode %q", c.Export.Mode)
	}
	return c.Build.Validate()
}

// Validate checks chunking and MinHash parameters.
func (d DedupConfig) Validate() error {
	if d.ChunkSize <= 0 {
		return eris.Errorf("config: dedup.chunk_size must be positive, got %d", d.ChunkSize)
	}
	if d.Overlap < 0 {
		return eris.Errorf("config: dedup.overlap must be >= 0, got %d", d.Overlap)
	}
	if d.Threshold <= 0 || d.Threshold > 1 {
		return eris.Errorf("config: dedup.threshold must be in (0, 1], got %g", d.Threshold)
	}
	if d.NumPerm <= 0 {
		return eris.Errorf("config: dedup.num_perm must be positive, got %d", d.NumPerm)
	}
	if d.ShingleSize <= 0 {
		return eris.Errorf("config: dedup.shingle_size must be positive, got %d", d.ShingleSize)
	}
	return nil
}

// Validate checks the source list and audit settings.
func (b BuildConfig) Validate() error {
	if b.Audit.Enabled && b.Audit.SampleSize < 0 {
		return eris.Errorf("config: build.audit.sample_size must be >= 0, got %d", b.Audit.SampleSize)
	}
	seen := make(map[string]bool, len(b.Sources))
	for _, s := range b.Sources {
		if err := s.Validate(); err != nil {
			return err
		}
		if seen[s.Name] {
			return eris.Errorf("config: duplicate source name %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// Validate checks one source entry.
func (s SourceConfig) Validate() error {
	if s.Name == "" {
		return eris.New("config: source name is required")
	}
	if s.Location == "" {
		return eris.Errorf("config: source %q: location is required", s.Name)
	}
	if !slices.Contains(sourceFormats, s.Format) {
		return eris.Errorf("config: source %q: unknown format %q", s.Name, s.Format)
	}
	if !slices.Contains(boilerplates, s.Boilerplate) {
		return eris.Errorf("config: source %q: unknown boilerplate strategy %q", s.Name, s.Boilerplate)
	}
	if !slices.Contains(yearPolicies, s.YearPolicy) {
		return eris.Errorf("config: source %q: unknown year policy %q", s.Name, s.YearPolicy)
	}
	if !slices.Contains(supportedArchives, s.Archive) {
		return eris.Errorf("config: source %q: unsupported archive %q", s.Name, s.Archive)
	}
	if s.Format == "xml" && s.XMLElement == "" {
		return eris.Errorf("config: source %q: xml_element is required for xml sources", s.Name)
	}
	return nil
}
