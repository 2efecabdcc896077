package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/gflow/optimize"
)

// initCmd: gflow init
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new optimizer configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		path, err := initConfigurationFile(cfgFile)
		if err != nil {
			logger.Error("Error initializing config file", zap.Error(err))
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created/updated: %s\n", path)
	},
}

func initConfigurationFile(configurationPath string) (string, error) {
	if configurationPath == "" {
		configurationPath = optimize.DefaultConfigFile
	}
	return configurationPath, optimize.WriteConfigurationFile(configurationPath, optimize.DefaultConfig())
}
