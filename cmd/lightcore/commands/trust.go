package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tendermint/lightcore/types"
)

func newTrustCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "trust <anchor.json>",
		Short: "Install a subjectively trusted state",
		Long: `Install a subjectively trusted state.

The anchor is a JSON object with a "header" and the "validators" that signed
it. It is trusted as is: obtain it from a source you trust. Every later header
is verified against the trusted states installed this way or verified since.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var anchor types.TrustedState
			if err := readJSONFile(args[0], &anchor); err != nil {
				return err
			}
			if err := anchor.ValidateBasic(); err != nil {
				return fmt.Errorf("invalid anchor: %w", err)
			}
			if chainID := e.conf.Light.ChainID; chainID != "" && anchor.Header.ChainID != chainID {
				return fmt.Errorf("anchor belongs to chain %q, not %q", anchor.Header.ChainID, chainID)
			}

			states, err := e.openStates()
			if err != nil {
				return err
			}
			defer states.Close()

			if err := states.save(anchor, e.conf.Light.MaxTrustedStates); err != nil {
				return err
			}
			e.logger.Info("Installed trusted state",
				"height", anchor.Height(),
				"hash", anchor.Header.Hash())
			return nil
		},
	}
}
