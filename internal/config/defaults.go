package config

const (
	defaultDataDir           = "~/.local/share/repsync"
	defaultLogDir            = "~/.local/share/repsync/logs"
	defaultAPIBaseURL        = "https://api.workouts.example.com/v1"
	defaultAPIRequestTimeout = 30
	defaultHealthPath        = "/health"
	defaultSettleDelayMS     = 1000
	defaultProbeInterval     = 15
	defaultPendingPoll       = 5
	defaultNtfyTimeout       = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

func defaultInvalidateBuckets() []string {
	return []string{
		"sessions",
		"active-session",
		"profile",
		"schedule",
		"leaderboard",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		API: API{
			BaseURL:        defaultAPIBaseURL,
			RequestTimeout: defaultAPIRequestTimeout,
			HealthPath:     defaultHealthPath,
		},
		Sync: Sync{
			SettleDelayMS:     defaultSettleDelayMS,
			ProbeInterval:     defaultProbeInterval,
			PendingPoll:       defaultPendingPoll,
			InvalidateBuckets: defaultInvalidateBuckets(),
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
