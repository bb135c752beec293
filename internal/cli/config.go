package cli

import (
	"github.com/spf13/cobra"

	"github.com/mgpai22/subscrub/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the subscrub configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a commented sample configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			var err error
			if path, err = config.DefaultConfigPath(); err != nil {
				return err
			}
		}
		if err := config.CreateSample(path); err != nil {
			return err
		}
		logger.Infow("wrote sample config", "path", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
