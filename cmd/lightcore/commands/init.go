package commands

import (
	"github.com/spf13/cobra"

	"github.com/tendermint/lightcore/config"
	tmos "github.com/tendermint/lightcore/libs/os"
)

func newInitCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "init [chain-id]",
		Short: "Write a default config file to the home directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := e.conf
			if tmos.FileExists(conf.ConfigFile()) {
				e.logger.Info("Found config file", "path", conf.ConfigFile())
				return nil
			}
			if len(args) == 1 {
				conf.Light.ChainID = args[0]
			}
			if err := config.WriteConfigFile(conf.RootDir, conf); err != nil {
				return err
			}
			e.logger.Info("Generated config file", "path", conf.ConfigFile(), "chainID", conf.Light.ChainID)
			return nil
		},
	}
}
