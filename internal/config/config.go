// Package config loads and validates the blogbuilder YAML configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// DefaultConfigPath is the configuration file used when -c is not given.
const DefaultConfigPath = "blogbuilder.yaml"

// Config represents the application configuration.
type Config struct {
	Site        SiteConfig        `yaml:"site"`
	Content     ContentConfig     `yaml:"content"`
	Blog        BlogConfig        `yaml:"blog"`
	Output      OutputConfig      `yaml:"output"`
	WebManifest WebManifestConfig `yaml:"web_manifest"`
	History     HistoryConfig     `yaml:"history"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Notify      NotifyConfig      `yaml:"notify"`
	Watch       WatchConfig       `yaml:"watch"`
}

// SiteConfig is the site metadata exposed to every template.
type SiteConfig struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description,omitempty"`
	Author      string   `yaml:"author,omitempty"`
	SiteURL     string   `yaml:"site_url,omitempty"`
	Keywords    []string `yaml:"keywords,omitempty"`
}

// ContentConfig describes where authored posts live.
type ContentConfig struct {
	Dir           string   `yaml:"dir"`
	Extensions    []string `yaml:"extensions,omitempty"`
	ExcerptLength int      `yaml:"excerpt_length,omitempty"`
}

// CategoryPathMode selects how category labels become URL path segments.
type CategoryPathMode string

const (
	// CategoryPathsVerbatim uses the authored label unchanged.
	CategoryPathsVerbatim CategoryPathMode = "verbatim"
	// CategoryPathsSlugify lowercases, strips diacritics and hyphenates.
	CategoryPathsSlugify CategoryPathMode = "slugify"
)

// BlogConfig controls page planning.
type BlogConfig struct {
	PathPrefix     string           `yaml:"path_prefix"`
	CategoryPrefix string           `yaml:"category_prefix"`
	PostsPerPage   int              `yaml:"posts_per_page"`
	CategoryPaths  CategoryPathMode `yaml:"category_paths"`
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory  string `yaml:"directory"`
	Clean      bool   `yaml:"clean"`
	LayoutsDir string `yaml:"layouts_dir,omitempty"`
	StaticDir  string `yaml:"static_dir,omitempty"`
}

// WebManifestConfig is written to manifest.webmanifest when Name is set.
type WebManifestConfig struct {
	Name            string `yaml:"name,omitempty" json:"name"`
	ShortName       string `yaml:"short_name,omitempty" json:"short_name,omitempty"`
	StartURL        string `yaml:"start_url,omitempty" json:"start_url"`
	BackgroundColor string `yaml:"background_color,omitempty" json:"background_color,omitempty"`
	ThemeColor      string `yaml:"theme_color,omitempty" json:"theme_color,omitempty"`
	Display         string `yaml:"display,omitempty" json:"display,omitempty"`
	Icon            string `yaml:"icon,omitempty" json:"-"`
}

// HistoryConfig locates the SQLite build history. An empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// NotifyConfig enables NATS build notifications when NATSURL is set.
type NotifyConfig struct {
	NATSURL string      `yaml:"nats_url,omitempty"`
	Subject string      `yaml:"subject,omitempty"`
	Retry   RetryConfig `yaml:"retry,omitempty"`
}

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// RetryConfig controls retries of transient publish failures.
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff,omitempty"`
	Initial    time.Duration    `yaml:"initial,omitempty"`
	Max        time.Duration    `yaml:"max,omitempty"`
	MaxRetries int              `yaml:"max_retries,omitempty"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce,omitempty"`
	Interval time.Duration `yaml:"interval,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigError("configuration file not found").
			WithContext("path", configPath).
			Build()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Fatal().
			Build()
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references first,
// then applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").
			Fatal().
			Build()
	}

	if err := ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Example()
	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("marshal example config: %w", err)
	}

	header := "# blogbuilder configuration\n" +
		"# Values may reference environment variables as ${VAR}.\n" +
		"# Set history.path (e.g. .blogbuilder/history.db) to record builds and skip unchanged rebuilds.\n" +
		"# blog.category_paths: slugify (default) merges labels such as \"Go\" and \"go\" into one category; use verbatim to keep them apart.\n"
	// #nosec G306 -- configuration is not secret
	if err := os.WriteFile(configPath, append([]byte(header), data...), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}

	slog.Info("Configuration file created", "path", configPath)
	return nil
}

// Example returns the configuration written by Init. It uses the default
// slugify category paths, which merge labels differing only in case or
// punctuation ("Go" and "go") into one category.
func Example() *Config {
	cfg := &Config{
		Site: SiteConfig{
			Title:       "My Blog",
			Description: "Notes on software",
			Author:      "Jane Doe",
			SiteURL:     "https://example.com/",
			Keywords:    []string{"Software Engineer", "Web Developer"},
		},
		Content: ContentConfig{Dir: "content/posts"},
		Output:  OutputConfig{Directory: "./public", Clean: true, StaticDir: "static"},
		WebManifest: WebManifestConfig{
			Name:            "My Blog",
			ShortName:       "Blog",
			StartURL:        "/",
			BackgroundColor: "#fff",
			ThemeColor:      "#525dce",
			Display:         "standalone",
		},
	}
	_ = ApplyDefaults(cfg)
	return cfg
}
