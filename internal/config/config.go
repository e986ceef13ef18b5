// Package config loads project1899 settings from config.yaml, P1899_*
// environment variables and built-in defaults.
package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Workers   int             `yaml:"workers" mapstructure:"workers"`
	ShardSize int             `yaml:"shard_size" mapstructure:"shard_size"`
	Build     BuildConfig     `yaml:"build" mapstructure:"build"`
	Dedup     DedupConfig     `yaml:"dedup" mapstructure:"dedup"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Spotcheck SpotcheckConfig `yaml:"spotcheck" mapstructure:"spotcheck"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	RunLog    RunLogConfig    `yaml:"runlog" mapstructure:"runlog"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// BuildConfig configures corpus assembly.
type BuildConfig struct {
	Seed        uint64         `yaml:"seed" mapstructure:"seed"`
	Output      string         `yaml:"output" mapstructure:"output"`
	YearCutoff  int            `yaml:"year_cutoff" mapstructure:"year_cutoff"`
	SourcesFile string         `yaml:"sources_file" mapstructure:"sources_file"`
	Sources     []SourceConfig `yaml:"sources" mapstructure:"sources"`
	Audit       AuditConfig    `yaml:"audit" mapstructure:"audit"`
}

// AuditConfig configures the rejection sample log.
type AuditConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	Path       string `yaml:"path" mapstructure:"path"`
	SampleSize int    `yaml:"sample_size" mapstructure:"sample_size"`
	Seed       uint64 `yaml:"seed" mapstructure:"seed"`
	SnippetLen int    `yaml:"snippet_len" mapstructure:"snippet_len"`
}

// SourceConfig describes one external document collection.
type SourceConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Format      string `yaml:"format" mapstructure:"format"`
	Location    string `yaml:"location" mapstructure:"location"`
	Archive     string `yaml:"archive" mapstructure:"archive"`
	Member      string `yaml:"member" mapstructure:"member"`
	Encoding    string `yaml:"encoding" mapstructure:"encoding"`
	TextField   string `yaml:"text_field" mapstructure:"text_field"`
	YearField   string `yaml:"year_field" mapstructure:"year_field"`
	IDField     string `yaml:"id_field" mapstructure:"id_field"`
	TitleField  string `yaml:"title_field" mapstructure:"title_field"`
	XMLElement  string `yaml:"xml_element" mapstructure:"xml_element"`
	Boilerplate string `yaml:"boilerplate" mapstructure:"boilerplate"`
	YearPolicy  string `yaml:"year_policy" mapstructure:"year_policy"`
}

// DedupConfig configures chunking and near-duplicate removal.
type DedupConfig struct {
	ChunkSize   int     `yaml:"chunk_size" mapstructure:"chunk_size"`
	Overlap     int     `yaml:"overlap" mapstructure:"overlap"`
	ShingleSize int     `yaml:"shingle_size" mapstructure:"shingle_size"`
	Threshold   float64 `yaml:"threshold" mapstructure:"threshold"`
	NumPerm     int     `yaml:"num_perm" mapstructure:"num_perm"`
	Seed        uint64  `yaml:"seed" mapstructure:"seed"`
}

// FetchConfig configures remote source downloads.
type FetchConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	TempDir     string `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// SpotcheckConfig configures the review dashboard.
type SpotcheckConfig struct {
	Port         int    `yaml:"port" mapstructure:"port"`
	KeptPath     string `yaml:"kept_path" mapstructure:"kept_path"`
	RemovedPath  string `yaml:"removed_path" mapstructure:"removed_path"`
	SampleSize   int    `yaml:"sample_size" mapstructure:"sample_size"`
	RemovedLimit int    `yaml:"removed_limit" mapstructure:"removed_limit"`
	ExcerptLen   int    `yaml:"excerpt_len" mapstructure:"excerpt_len"`
}

// ExportConfig configures the Postgres chunk export.
type ExportConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Schema      string `yaml:"schema" mapstructure:"schema"`
	Table       string `yaml:"table" mapstructure:"table"`
	Mode        string `yaml:"mode" mapstructure:"mode"`
}

// RunLogConfig configures the pipeline run ledger.
type RunLogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("P1899")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("workers", 0)
	v.SetDefault("shard_size", 1000)
	v.SetDefault("build.seed", 42)
	v.SetDefault("build.output", "./pre1900_corpus")
	v.SetDefault("build.year_cutoff", 1900)
	v.SetDefault("build.sources_file", "")
	v.SetDefault("build.audit.enabled", false)
	v.SetDefault("build.audit.path", "./filtered_out_samples.jsonl")
	v.SetDefault("build.audit.sample_size", 100)
	v.SetDefault("build.audit.seed", 42)
	v.SetDefault("build.audit.snippet_len", 50)
	v.SetDefault("dedup.chunk_size", 1024)
	v.SetDefault("dedup.overlap", 128)
	v.SetDefault("dedup.shingle_size", 5)
	v.SetDefault("dedup.threshold", 0.9)
	v.SetDefault("dedup.num_perm", 128)
	v.SetDefault("dedup.seed", 42)
	v.SetDefault("fetch.user_agent", "project1899/1.0")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.temp_dir", "/tmp/project1899")
	v.SetDefault("spotcheck.port", 8501)
	v.SetDefault("spotcheck.kept_path", "./pre1900_corpus")
	v.SetDefault("spotcheck.removed_path", "./filtered_out_samples.jsonl")
	v.SetDefault("spotcheck.sample_size", 25)
	v.SetDefault("spotcheck.removed_limit", 20000)
	v.SetDefault("spotcheck.excerpt_len", 800)
	v.SetDefault("export.database_url", "")
	v.SetDefault("export.schema", "corpus")
	v.SetDefault("export.table", "chunks")
	v.SetDefault("export.mode", "replace")
	v.SetDefault("runlog.path", "./project1899_runs.db")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if cfg.Build.SourcesFile != "" {
		sources, err := LoadSources(cfg.Build.SourcesFile)
		if err != nil {
			return nil, err
		}
		cfg.Build.Sources = sources
	}
	for i := range cfg.Build.Sources {
		cfg.Build.Sources[i].ApplyDefaults()
	}

	return &cfg, nil
}

type sourceManifest struct {
	Sources []SourceConfig `yaml:"sources"`
}

// LoadSources reads a YAML source manifest with a top-level "sources" list.
func LoadSources(path string) ([]SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read sources file %s", path)
	}

	var m sourceManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "config: parse sources file %s", path)
	}
	for i := range m.Sources {
		m.Sources[i].ApplyDefaults()
	}
	return m.Sources, nil
}

// ApplyDefaults fills empty source fields.
func (s *SourceConfig) ApplyDefaults() {
	if s.TextField == "" {
		s.TextField = "text"
	}
	if s.Boilerplate == "" {
		s.Boilerplate = "none"
	}
	if s.YearPolicy == "" {
		s.YearPolicy = "lenient"
	}
	if s.Format == "" {
		s.Format = formatFromLocation(s.Location, s.Member)
	}
	s.Format = strings.ToLower(s.Format)
}

func formatFromLocation(location, member string) string {
	name := strings.ToLower(location)
	if member != "" {
		name = strings.ToLower(member)
	}
	switch {
	case strings.HasSuffix(name, ".jsonl"), strings.HasSuffix(name, ".ndjson"):
		return "jsonl"
	case strings.HasSuffix(name, ".json"):
		return "json"
	case strings.HasSuffix(name, ".csv"):
		return "csv"
	case strings.HasSuffix(name, ".xlsx"):
		return "xlsx"
	case strings.HasSuffix(name, ".xml"):
		return "xml"
	default:
		return "snapshot"
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
