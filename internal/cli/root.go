package cli

import (
	"github.com/spf13/cobra"

	"github.com/mgpai22/subscrub/internal/config"
	"github.com/mgpai22/subscrub/internal/logging"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "subscrub",
	Short: "Scrub through a video and edit its captions from the terminal",
	Long: `Subscrub plays a video in mpv while showing the upcoming captions,
a countdown to the next one and the playback position in the terminal.

Captions are kept in an SRT file that is rewritten after every edit.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file (default ~/.config/subscrub/config.toml)")
}

// loads the configuration selected by --config
func loadConfig() (*config.Config, error) {
	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if exists {
		logger.Debugw("loaded config", "path", resolved)
	} else {
		logger.Debugw("no config file, using defaults", "path", resolved)
	}
	return cfg, nil
}
