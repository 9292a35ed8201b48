package config

const (
	defaultDataDir = "~/.local/share/mixtape"
	defaultLogDir  = "~/.local/share/mixtape/logs"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultAnalysisWorkers     = 2
	defaultQueueCapacity       = 64
	defaultTrackTimeoutSeconds = 30
	defaultMaxRetries          = 3
	defaultRetryBackoffSeconds = 2
	defaultWriteQueueCapacity  = 128
	defaultHarmonicWeight      = 0.5
	defaultBPMWeight           = 0.3
	defaultEnergyWeight        = 0.2
	defaultBPMRatioFloor       = 0.92
	defaultHarmonicMaxDistance = 1
	defaultEnergyMaxDelta      = 0.3
	defaultBlendMinScore       = 0.8
	defaultFadeMinScore        = 0.55
	defaultClusterK            = 8
	defaultClusterSeed         = 42
	defaultPlaylistCurve       = "ascending"
	defaultOpenerTolerance     = 0.2
	defaultSuggestMinScore     = 0.5
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Analysis: Analysis{
			Workers:             defaultAnalysisWorkers,
			QueueCapacity:       defaultQueueCapacity,
			TrackTimeoutSeconds: defaultTrackTimeoutSeconds,
			MaxRetries:          defaultMaxRetries,
			RetryBackoffSeconds: defaultRetryBackoffSeconds,
		},
		Store: Store{
			WriteQueueCapacity: defaultWriteQueueCapacity,
		},
		Compat: Compat{
			HarmonicWeight:      defaultHarmonicWeight,
			BPMWeight:           defaultBPMWeight,
			EnergyWeight:        defaultEnergyWeight,
			BPMRatioFloor:       defaultBPMRatioFloor,
			HarmonicMaxDistance: defaultHarmonicMaxDistance,
			EnergyMaxDelta:      defaultEnergyMaxDelta,
			BlendMinScore:       defaultBlendMinScore,
			FadeMinScore:        defaultFadeMinScore,
		},
		Cluster: Cluster{
			DefaultK: defaultClusterK,
			Seed:     defaultClusterSeed,
		},
		Playlist: Playlist{
			DefaultCurve:    defaultPlaylistCurve,
			OpenerTolerance: defaultOpenerTolerance,
			MinScore:        defaultSuggestMinScore,
		},
	}
}
