package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mixtape/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("file should not exist")
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.Analysis.Workers != 2 {
		t.Fatalf("expected default workers, got %d", cfg.Analysis.Workers)
	}
}

func TestLoadOverridesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		"[analysis]",
		"workers = 4",
		"[logging]",
		`format = " JSON "`,
		"[playlist]",
		`default_curve = "Peak"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected file to exist")
	}
	if cfg.Analysis.Workers != 4 {
		t.Fatalf("workers = %d, want 4", cfg.Analysis.Workers)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("format = %q, want json", cfg.Logging.Format)
	}
	if cfg.Playlist.DefaultCurve != "peak" {
		t.Fatalf("curve = %q, want peak", cfg.Playlist.DefaultCurve)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("data dir not absolute: %q", cfg.Paths.DataDir)
	}
}

func TestValidateRejectsBadTuning(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero workers", func(c *config.Config) { c.Analysis.Workers = 0 }},
		{"zero queue", func(c *config.Config) { c.Analysis.QueueCapacity = 0 }},
		{"bpm floor too high", func(c *config.Config) { c.Compat.BPMRatioFloor = 1.2 }},
		{"harmonic distance past diameter", func(c *config.Config) { c.Compat.HarmonicMaxDistance = 9 }},
		{"blend below fade", func(c *config.Config) { c.Compat.BlendMinScore = 0.3 }},
		{"zero k", func(c *config.Config) { c.Cluster.DefaultK = 0 }},
		{"unknown curve", func(c *config.Config) { c.Playlist.DefaultCurve = "sawtooth" }},
		{"all-zero compat weights", func(c *config.Config) {
			c.Compat.HarmonicWeight, c.Compat.BPMWeight, c.Compat.EnergyWeight = 0, 0, 0
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSampleConfigNotEmpty(t *testing.T) {
	if !strings.Contains(config.SampleConfig(), "[analysis]") {
		t.Fatal("sample config missing analysis section")
	}
}
