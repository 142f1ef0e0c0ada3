package cmd

import (
	"fmt"
	"os"

	"github.com/chapool/subflow-agent/cmd/env"
	"github.com/chapool/subflow-agent/cmd/keys"
	"github.com/chapool/subflow-agent/cmd/probe"
	"github.com/chapool/subflow-agent/cmd/server"
	"github.com/chapool/subflow-agent/cmd/sign"
	"github.com/chapool/subflow-agent/cmd/subscription"
	"github.com/chapool/subflow-agent/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: config.GetFormattedBuildArgs(),
	Use:     "app",
	Short:   config.ModuleName,
	Long: fmt.Sprintf(`%v

Signs SubFlow executePayment transactions with the executor key without broadcasting them.
Requires configuration through ENV.`, config.ModuleName),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	// attach the subcommands
	rootCmd.AddCommand(
		env.New(),
		keys.New(),
		probe.New(),
		server.New(),
		sign.New(),
		subscription.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Failed to execute root command")
		os.Exit(1)
	}
}
