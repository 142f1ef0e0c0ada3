package keys

import (
	"fmt"

	"github.com/chapool/subflow-agent/internal/config"
	"github.com/chapool/subflow-agent/internal/keys"
	"github.com/spf13/cobra"
)

func newAddress() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Prints the configured executor address",
		Long:  `Loads the executor key from the environment exactly like the server does and prints its address.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewServiceConfigFromEnv()
			if err != nil {
				return err
			}

			cred, err := keys.Load(cfg.Executor)
			if err != nil {
				return err
			}
			defer cred.Destroy()

			fmt.Fprintln(cmd.OutOrStdout(), cred.Address().Hex())

			return nil
		},
	}
}
