package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// DataDir holds the catalog database and its lock file.
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Analysis contains worker pool and task lifecycle tuning.
type Analysis struct {
	// Workers is the fixed worker pool size.
	Workers int `toml:"workers"`
	// QueueCapacity bounds each priority lane of the task queue.
	QueueCapacity int `toml:"queue_capacity"`
	// TrackTimeoutSeconds caps a single track's feature extraction.
	TrackTimeoutSeconds int `toml:"track_timeout_seconds"`
	// MaxRetries bounds re-attempts for a failed task before it is
	// reported as permanently failed.
	MaxRetries int `toml:"max_retries"`
	// RetryBackoffSeconds is the base backoff, doubled per attempt.
	RetryBackoffSeconds int `toml:"retry_backoff_seconds"`
}

// Store contains catalog persistence tuning.
type Store struct {
	// WriteQueueCapacity bounds each priority lane feeding the single
	// writer. Producers block when their lane is full.
	WriteQueueCapacity int `toml:"write_queue_capacity"`
}

// Compat contains compatibility scoring weights and thresholds.
type Compat struct {
	HarmonicWeight      float64 `toml:"harmonic_weight"`
	BPMWeight           float64 `toml:"bpm_weight"`
	EnergyWeight        float64 `toml:"energy_weight"`
	BPMRatioFloor       float64 `toml:"bpm_ratio_floor"`
	HarmonicMaxDistance int     `toml:"harmonic_max_distance"`
	EnergyMaxDelta      float64 `toml:"energy_max_delta"`
	BlendMinScore       float64 `toml:"blend_min_score"`
	FadeMinScore        float64 `toml:"fade_min_score"`
}

// Cluster contains genre clustering policy.
type Cluster struct {
	// DefaultK is the cluster count used when a refit request does not
	// specify one.
	DefaultK int `toml:"default_k"`
	// Seed fixes k-means initialization for reproducible fits.
	Seed int64 `toml:"seed"`
	// AutoRefitThreshold re-fits automatically after this many newly
	// analyzed tracks. Zero disables automatic re-fitting.
	AutoRefitThreshold int `toml:"auto_refit_threshold"`
}

// Playlist contains generation defaults.
type Playlist struct {
	DefaultCurve string `toml:"default_curve"`
	// OpenerTolerance bounds how far the opening track's energy may sit
	// from the curve's starting target.
	OpenerTolerance float64 `toml:"opener_tolerance"`
	// MinScore excludes candidate suggestions below this compatibility.
	MinScore float64 `toml:"min_score"`
}

// Config encapsulates all configuration values for mixtape.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Logging  Logging  `toml:"logging"`
	Analysis Analysis `toml:"analysis"`
	Store    Store    `toml:"store"`
	Compat   Compat   `toml:"compat"`
	Cluster  Cluster  `toml:"cluster"`
	Playlist Playlist `toml:"playlist"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mixtape/config.toml")
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file existed at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("mixtape.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the engine writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ExpandPath resolves ~ and relative segments into an absolute path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the embedded annotated sample configuration to path.
func CreateSample(path string) error {
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
