package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chapool/subflow-agent/internal/api"
	"github.com/chapool/subflow-agent/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// SetupLogger configures the global zerolog logger from cfg.
func SetupLogger(cfg config.LoggerServer) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		log.Warn().Err(err).Str("level", cfg.Level).Msg("Unknown log level, falling back to info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.PrettyPrintConsole {
		log.Logger = log.Output(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.TimeFormat = "15:04:05"
			w.Out = os.Stderr
		}))
	}
}

// WithServer validates config, wires a server without starting its HTTP listener and runs f.
// The server is shut down once f returns.
func WithServer(ctx context.Context, config config.Server, f func(ctx context.Context, s *api.Server) error) error {
	return withServer(ctx, config, config.Validate, f)
}

// WithLocalServer is WithServer for commands that never serve HTTP, the shared secret may be unset.
func WithLocalServer(ctx context.Context, config config.Server, f func(ctx context.Context, s *api.Server) error) error {
	return withServer(ctx, config, config.ValidateLocal, f)
}

func withServer(ctx context.Context, config config.Server, validate func() error, f func(ctx context.Context, s *api.Server) error) error {
	SetupLogger(config.Logger)

	if err := validate(); err != nil {
		return err
	}

	s, err := api.InitNewServer(config)
	if err != nil {
		return errors.Wrap(err, "failed to initialize server")
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if errs := s.Shutdown(shutdownCtx); len(errs) > 0 {
			log.Error().Errs("errs", errs).Msg("Failed to gracefully shut down server")
		}
	}()

	return f(ctx, s)
}

func NewSubcommandGroup(name string, subCommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s <subcommand>", name),
		Short: fmt.Sprintf("%s related subcommands", name),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cmd.Help(); err != nil {
				return fmt.Errorf("failed to print help: %w", err)
			}

			return nil
		},
	}

	cmd.AddCommand(subCommands...)

	return cmd
}
