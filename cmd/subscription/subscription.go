package subscription

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chapool/subflow-agent/internal/agent"
	"github.com/chapool/subflow-agent/internal/api"
	"github.com/chapool/subflow-agent/internal/config"
	"github.com/chapool/subflow-agent/internal/util/command"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("subscription",
		newGet(),
	)
}

func newGet() *cobra.Command {
	return &cobra.Command{
		Use:   "get <subscriptionId>",
		Short: "Reads a subscription from the contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd.Context(), args[0])
		},
	}
}

func runGet(ctx context.Context, rawID string) error {
	return command.WithLocalServer(ctx, config.DefaultServiceConfigFromEnv(), func(ctx context.Context, s *api.Server) error {
		sub, err := s.Agent.GetSubscription(ctx, rawID)
		if err != nil {
			return err
		}

		if !sub.Exists() {
			return errors.Errorf("subscription %s does not exist", sub.ID)
		}

		out, err := json.MarshalIndent(agent.NewSubscriptionResponse(sub, s.Clock.Now()), "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal subscription")
		}

		fmt.Println(string(out))

		return nil
	})
}
