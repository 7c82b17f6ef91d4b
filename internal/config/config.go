// Package config loads and validates skysnap configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cloudsight/skysnap/internal/snapshot"
)

// Config captures all configuration knobs loaded via Viper. The source list
// keeps the legacy CloudSources key so existing source documents keep
// working.
type Config struct {
	Sources   []SourceConfig  `mapstructure:"CloudSources"`
	Output    OutputConfig    `mapstructure:"output"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Publisher PublisherConfig `mapstructure:"publisher"`
}

// SourceConfig is one webcam source entry. Crop is the native four-integer
// form (left, top, right, bottom); CropCoords accepts the same four integers
// under the legacy field name.
type SourceConfig struct {
	Name       string   `mapstructure:"name"`
	URL        string   `mapstructure:"url"`
	Crop       []int    `mapstructure:"crop"`
	CropCoords []int    `mapstructure:"crop_coords"`
	Times      []string `mapstructure:"time_list"`
}

// OutputConfig sets where in-flight snapshots are written.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// HTTPConfig configures the image download client.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
	InsecureTLS    bool   `mapstructure:"insecure_tls"`
	MaxBodyBytes   int    `mapstructure:"max_body_bytes"`
}

// LoggingConfig toggles zap development features and the dated logfile.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Dir         string `mapstructure:"dir"`
}

// ArchiveConfig controls the dated backup directory.
type ArchiveConfig struct {
	Dir string `mapstructure:"dir"`
	// EachSuccess archives after every successful fetch instead of only at
	// run end.
	EachSuccess bool `mapstructure:"each_success"`
}

// MetricsConfig exposes the optional health/metrics endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// StorageConfig selects the remote mirror for archived snapshots.
type StorageConfig struct {
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// PublisherConfig selects the collection-event publisher.
type PublisherConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// Load builds a Config from disk/environment. A missing or malformed file is
// fatal: without sources there is nothing to schedule.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SKYSNAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("skysnap")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.skysnap")
	}
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output.dir", "images")
	v.SetDefault("archive.dir", "images/images_archive")
	v.SetDefault("archive.each_success", false)
	v.SetDefault("http.timeout_seconds", 60)
	v.SetDefault("http.user_agent", "skysnap/1.0 (+https://github.com/cloudsight/skysnap)")
	v.SetDefault("http.insecure_tls", false)
	v.SetDefault("http.max_body_bytes", 0)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.dir", "logs")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("storage.provider", "noop")
	v.SetDefault("publisher.provider", "noop")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured under CloudSources")
	}
	for i, src := range c.Sources {
		if _, err := src.Definition(); err != nil {
			return fmt.Errorf("source %d: %w", i, err)
		}
	}
	if c.HTTP.TimeoutSeconds < 0 {
		return fmt.Errorf("http.timeout_seconds must be >= 0")
	}
	if c.Storage.Provider == "gcs" && c.Storage.GCSBucket == "" {
		return fmt.Errorf("storage.gcs_bucket must be set when storage.provider is gcs")
	}
	if c.Publisher.Provider == "pubsub" && (c.Publisher.ProjectID == "" || c.Publisher.TopicName == "") {
		return fmt.Errorf("publisher.project_id and publisher.topic_name must be set when publisher.provider is pubsub")
	}
	return nil
}

// Definition converts one source entry into the immutable domain form.
func (s SourceConfig) Definition() (snapshot.SourceDefinition, error) {
	if s.Name == "" {
		return snapshot.SourceDefinition{}, fmt.Errorf("source name is required")
	}
	if s.URL == "" {
		return snapshot.SourceDefinition{}, fmt.Errorf("source %s: url is required", s.Name)
	}
	coords := s.Crop
	if len(coords) == 0 {
		coords = s.CropCoords
	}
	if len(coords) != 4 {
		return snapshot.SourceDefinition{}, fmt.Errorf("source %s: crop must have exactly 4 integers, got %d", s.Name, len(coords))
	}
	box := snapshot.CropBox{Left: coords[0], Top: coords[1], Right: coords[2], Bottom: coords[3]}
	if err := box.Validate(); err != nil {
		return snapshot.SourceDefinition{}, fmt.Errorf("source %s: %w", s.Name, err)
	}
	if len(s.Times) == 0 {
		return snapshot.SourceDefinition{}, fmt.Errorf("source %s: time_list must not be empty", s.Name)
	}
	for _, tod := range s.Times {
		if _, _, err := snapshot.ParseTimeOfDay(tod); err != nil {
			return snapshot.SourceDefinition{}, fmt.Errorf("source %s: %w", s.Name, err)
		}
	}
	return snapshot.SourceDefinition{
		Name:  s.Name,
		URL:   s.URL,
		Crop:  box,
		Times: append([]string(nil), s.Times...),
	}, nil
}

// Definitions converts the full source list.
func (c Config) Definitions() ([]snapshot.SourceDefinition, error) {
	defs := make([]snapshot.SourceDefinition, 0, len(c.Sources))
	for i, src := range c.Sources {
		def, err := src.Definition()
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// HTTPTimeout converts the timeout knob into a duration. Zero disables the
// timeout entirely.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
