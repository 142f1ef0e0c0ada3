package sign

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chapool/subflow-agent/internal/agent"
	"github.com/chapool/subflow-agent/internal/api"
	"github.com/chapool/subflow-agent/internal/config"
	"github.com/chapool/subflow-agent/internal/util/command"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const hexOnlyFlag = "hex"

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign <subscriptionId>",
		Short: "Signs executePayment for a subscription",
		Long: `Signs an executePayment transaction for the given subscription id with the executor key
and prints it. The transaction is not broadcast.

The shared secret is not required, access to the process environment already grants the key.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hexOnly, err := cmd.Flags().GetBool(hexOnlyFlag)
			if err != nil {
				return err
			}

			return runSign(cmd.Context(), args[0], hexOnly)
		},
	}

	cmd.Flags().Bool(hexOnlyFlag, false, "print only the 0x prefixed signed transaction")

	return cmd
}

func runSign(ctx context.Context, rawID string, hexOnly bool) error {
	id, err := agent.ParseSubscriptionID(rawID)
	if err != nil {
		return err
	}

	return command.WithLocalServer(ctx, config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
		result, err := s.Agent.SignSubscription(ctx, id)
		if err != nil {
			return err
		}

		log.Info().
			Str("subscription_id", id.String()).
			Uint64("nonce", result.Nonce).
			Str("tx_hash", result.Hash.Hex()).
			Msg("Signed executePayment transaction")

		if hexOnly {
			fmt.Println(result.SignedHex())
			return nil
		}

		out, err := json.MarshalIndent(agent.NewSignTransactionResponse(result, s.Agent.IncludeCoinbasePlaceholder()), "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal signed transaction")
		}

		fmt.Println(string(out))

		return nil
	})
}
