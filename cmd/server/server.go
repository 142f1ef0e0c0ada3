package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chapool/subflow-agent/internal/api"
	"github.com/chapool/subflow-agent/internal/api/router"
	"github.com/chapool/subflow-agent/internal/config"
	"github.com/chapool/subflow-agent/internal/util/command"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Starts the server",
		Long: `Starts the signing agent's HTTP server.

Refuses to start without an executor key, a contract address or a shared secret.`,
		Run: func(_ *cobra.Command, _ []string) {
			runServer()
		},
	}
}

func runServer() {
	cfg := config.DefaultServiceConfigFromEnv()
	command.SetupLogger(cfg.Logger)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Refusing to start with invalid configuration")
	}

	s, err := api.InitNewServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}

	if err := router.Init(s); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize router")
	}

	log.Info().
		Str("executor", s.Agent.Address().Hex()).
		Str("contract", s.Agent.ContractAddress().Hex()).
		Int64("chain_id", cfg.Chain.ChainID).
		Str("rpc_urls", strings.Join(cfg.Chain.RPCURLs, ",")).
		Str("fee_mode", cfg.Chain.FeeMode).
		Str("coordination", cfg.Agent.Coordination).
		Bool("audit", cfg.Kafka.Enabled()).
		Msg("Starting signing agent")

	go func() {
		if err := s.Start(); err != nil {
			if errors.Is(err, http.ErrServerClosed) {
				log.Info().Msg("Server closed")
			} else {
				log.Fatal().Err(err).Msg("Failed to start server")
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if errs := s.Shutdown(ctx); len(errs) > 0 {
		log.Fatal().Errs("shutdownErrors", errs).Msg("Failed to gracefully shut down server")
	}
}
