package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tendermint/lightcore/light"
	"github.com/tendermint/lightcore/types"
)

func newVerifyCmd(e *env) *cobra.Command {
	var (
		trustedHeight int64
		inspect       bool
		at            string
	)

	cmd := &cobra.Command{
		Use:   "verify <lightblock.json>",
		Short: "Verify a light block and trust it on success",
		Long: `Verify a light block against a trusted state and trust it on success.

The light block is a JSON object with a "signed_header", the "validator_set"
that signed it and the "next_validator_set" it announces. It is verified
against the latest trusted state, or the one at --trusted-height.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := e.conf.Light

			now := time.Now()
			if at != "" {
				t, err := time.Parse(time.RFC3339Nano, at)
				if err != nil {
					return fmt.Errorf("invalid --now: %w", err)
				}
				now = t
			}

			threshold, err := conf.TrustThreshold()
			if err != nil {
				return err
			}
			hasher, err := light.HeaderHasherByName(conf.HashFunction)
			if err != nil {
				return err
			}

			var lb types.LightBlock
			if err := readJSONFile(args[0], &lb); err != nil {
				return err
			}

			states, err := e.openStates()
			if err != nil {
				return err
			}
			defer states.Close()

			trusted, err := states.snapshot(trustedHeight)
			if err != nil {
				return err
			}

			chainID := conf.ChainID
			if chainID == "" {
				chainID = trusted.Header.ChainID
			}
			if err := lb.ValidateBasic(chainID); err != nil {
				return fmt.Errorf("invalid light block: %w", err)
			}

			metrics, writeMetrics := e.metrics()
			cv := light.NewCommitVerifier(chainID)
			verifier := light.NewVerifier(hasher, cv, cv,
				light.TrustingPeriod(conf.TrustingPeriod),
				light.Logger(e.logger.With("module", "light")),
				light.WithMetrics(metrics),
			)

			if inspect {
				tree, err := verifier.Inspect(trusted, lb.SignedHeader, lb.ValidatorSet, lb.NextValidators, threshold, now)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), tree.String())
			}

			verifyErr := verifier.Verify(trusted, lb.SignedHeader, lb.ValidatorSet, lb.NextValidators, threshold, now)
			if err := writeMetrics(); err != nil {
				e.logger.Error("Failed to write metrics", "err", err)
			}
			if verifyErr != nil {
				return fmt.Errorf("verify #%d against trusted #%d: %w", lb.Height, trusted.Height(), verifyErr)
			}

			next := types.NewTrustedState(lb.Header, lb.ValidatorSet)
			if err := states.save(next, conf.MaxTrustedStates); err != nil {
				return err
			}
			e.logger.Info("Verified and trusted header",
				"height", lb.Height,
				"hash", lb.Commit.HeaderHash,
				"trusted", trusted.Height())
			return nil
		},
	}

	cmd.Flags().Int64Var(&trustedHeight, "trusted-height", 0,
		"height of the trusted state to verify against (default: the latest)")
	cmd.Flags().BoolVar(&inspect, "inspect", false, "print the evaluation of every rule")
	cmd.Flags().StringVar(&at, "now", "", "verify as of this RFC3339 time instead of the current time")
	return cmd
}
