package env

import (
	"encoding/json"
	"fmt"

	"github.com/chapool/subflow-agent/internal/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Prints the env",
		Long: `Prints the effective configuration as JSON.

Keys, passwords and the shared secret are never printed.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runEnv()
		},
	}
}

func runEnv() error {
	cfg, err := config.NewServiceConfigFromEnv()
	if err != nil {
		return err
	}

	c, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal the env")
	}

	fmt.Println(string(c))

	return nil
}
