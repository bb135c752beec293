package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultConfigPath = "~/.config/subscrub/config.toml"

	defaultPlayerBinary      = "mpv"
	defaultPollIntervalMS    = 50
	defaultDefaultDurationMS = 200
	defaultWindow            = 3
	defaultBarWidth          = 22
	defaultSeekSmallMS       = 100
	defaultSeekLargeMS       = 5000
	defaultProvider          = "gemini"
	defaultBatchSize         = 50
	defaultConcurrency       = 3
)

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		Player: Player{
			Binary:         defaultPlayerBinary,
			Instances:      1,
			PollIntervalMS: defaultPollIntervalMS,
			Autoplay:       true,
		},
		Editor: Editor{
			DefaultDurationMS: defaultDefaultDurationMS,
			Window:            defaultWindow,
			BarWidth:          defaultBarWidth,
			SeekSmallMS:       defaultSeekSmallMS,
			SeekLargeMS:       defaultSeekLargeMS,
		},
		Log: Log{
			File: defaultLogFile(),
		},
		Translate: Translate{
			Provider:    defaultProvider,
			BatchSize:   defaultBatchSize,
			Concurrency: defaultConcurrency,
		},
	}
}

func defaultLogFile() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "subscrub", "subscrub.log")
	}
	return "~/.local/state/subscrub/subscrub.log"
}
