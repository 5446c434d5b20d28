package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	tmos "github.com/tendermint/lightcore/libs/os"
)

func newShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show [height]",
		Short: "Print a trusted state as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var height int64
			if len(args) == 1 {
				h, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil || h <= 0 {
					return fmt.Errorf("invalid height %q", args[0])
				}
				height = h
			}

			bz, err := e.marshalState(height)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bz))
			return err
		},
	}
}

func newExportCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write the latest trusted state to a file",
		Long: `Write the latest trusted state to a file, in the format the trust command
reads. The file is replaced atomically.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bz, err := e.marshalState(0)
			if err != nil {
				return err
			}
			if err := tmos.WriteFileAtomic(args[0], bz, 0644); err != nil {
				return err
			}
			e.logger.Info("Exported trusted state", "path", args[0])
			return nil
		},
	}
}

func (e *env) marshalState(height int64) ([]byte, error) {
	states, err := e.openStates()
	if err != nil {
		return nil, err
	}
	defer states.Close()

	state, err := states.snapshot(height)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(state, "", "  ")
}
