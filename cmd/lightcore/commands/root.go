package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tendermint/lightcore/config"
	"github.com/tendermint/lightcore/libs/cli"
	"github.com/tendermint/lightcore/libs/log"
)

// ParseConfig retrieves the default environment configuration,
// sets up the root and ensures that the root exists
func ParseConfig(conf *config.Config) (*config.Config, error) {
	if err := viper.Unmarshal(conf); err != nil {
		return nil, err
	}

	conf.SetRoot(conf.RootDir)

	if err := conf.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("error in config file: %w", err)
	}
	return conf, nil
}

// env holds what every subcommand needs once the config has been parsed.
type env struct {
	conf   *config.Config
	logger log.Logger
}

// RootCommand constructs the root command-line entry point together with all
// subcommands.
func RootCommand(conf *config.Config) *cobra.Command {
	e := &env{conf: conf, logger: log.NewNopLogger()}

	cmd := &cobra.Command{
		Use:           "lightcore",
		Short:         "Verify block headers against a locally trusted state",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.BindFlagsLoadViper(cmd, args); err != nil {
				return err
			}

			pconf, err := ParseConfig(conf)
			if err != nil {
				return err
			}
			*conf = *pconf
			config.EnsureRoot(conf.RootDir)

			logger, err := log.NewDefaultLoggerWithOutput(cmd.ErrOrStderr(), conf.LogFormat, conf.LogLevel)
			if err != nil {
				return err
			}
			e.logger = logger.With("module", "main")
			return nil
		},
	}
	cmd.PersistentFlags().StringP(cli.HomeFlag, "", os.ExpandEnv(filepath.Join("$HOME", config.DefaultLightcoreDir)),
		"directory for config and data")
	cmd.PersistentFlags().Bool(cli.TraceFlag, false, "print out full stack trace on errors")
	cmd.PersistentFlags().String("log_level", conf.LogLevel, "log level")
	cobra.OnInitialize(func() { cli.InitEnv("LC") })

	cmd.AddCommand(
		newInitCmd(e),
		newTrustCmd(e),
		newVerifyCmd(e),
		newShowCmd(e),
		newExportCmd(e),
	)
	return cmd
}
