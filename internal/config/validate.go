package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateCompat(); err != nil {
		return err
	}
	if err := c.validateCluster(); err != nil {
		return err
	}
	return c.validatePlaylist()
}

func (c *Config) validateAnalysis() error {
	return ensurePositiveMap(map[string]int{
		"analysis.workers":               c.Analysis.Workers,
		"analysis.queue_capacity":        c.Analysis.QueueCapacity,
		"analysis.track_timeout_seconds": c.Analysis.TrackTimeoutSeconds,
		"analysis.retry_backoff_seconds": c.Analysis.RetryBackoffSeconds,
	})
}

func (c *Config) validateStore() error {
	if c.Store.WriteQueueCapacity <= 0 {
		return errors.New("store.write_queue_capacity must be positive")
	}
	if c.Analysis.MaxRetries < 0 {
		return errors.New("analysis.max_retries must be >= 0")
	}
	return nil
}

func (c *Config) validateCompat() error {
	if c.Compat.HarmonicWeight < 0 || c.Compat.BPMWeight < 0 || c.Compat.EnergyWeight < 0 {
		return errors.New("compat weights must be >= 0")
	}
	if c.Compat.HarmonicWeight+c.Compat.BPMWeight+c.Compat.EnergyWeight <= 0 {
		return errors.New("compat weights must not all be zero")
	}
	if c.Compat.BPMRatioFloor <= 0 || c.Compat.BPMRatioFloor >= 1 {
		return errors.New("compat.bpm_ratio_floor must be between 0 and 1")
	}
	if c.Compat.HarmonicMaxDistance < 0 || c.Compat.HarmonicMaxDistance > 6 {
		return errors.New("compat.harmonic_max_distance must be between 0 and 6")
	}
	if c.Compat.EnergyMaxDelta <= 0 || c.Compat.EnergyMaxDelta > 1 {
		return errors.New("compat.energy_max_delta must be between 0 and 1")
	}
	if c.Compat.BlendMinScore <= c.Compat.FadeMinScore {
		return errors.New("compat.blend_min_score must be greater than compat.fade_min_score")
	}
	if c.Compat.FadeMinScore < 0 || c.Compat.BlendMinScore > 1 {
		return errors.New("compat transition thresholds must lie in [0,1]")
	}
	return nil
}

func (c *Config) validateCluster() error {
	if c.Cluster.DefaultK <= 0 {
		return errors.New("cluster.default_k must be positive")
	}
	if c.Cluster.AutoRefitThreshold < 0 {
		return errors.New("cluster.auto_refit_threshold must be >= 0")
	}
	return nil
}

func (c *Config) validatePlaylist() error {
	if c.Playlist.OpenerTolerance <= 0 || c.Playlist.OpenerTolerance > 1 {
		return errors.New("playlist.opener_tolerance must be between 0 and 1")
	}
	if c.Playlist.MinScore < 0 || c.Playlist.MinScore > 1 {
		return errors.New("playlist.min_score must be between 0 and 1")
	}
	switch c.Playlist.DefaultCurve {
	case "ascending", "descending", "peak", "wave", "flat":
	default:
		return fmt.Errorf("playlist.default_curve %q is not a known energy curve", c.Playlist.DefaultCurve)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
