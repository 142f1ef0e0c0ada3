package probe

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/chapool/subflow-agent/internal/config"
	"github.com/chapool/subflow-agent/internal/util/command"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	verboseFlag string = "verbose"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("probe",
		newLiveness(),
		newReadiness(),
	)
}

func newProbe(use string, short string, path string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `

Queries the management endpoint of a running server, exits non-zero when it does not answer 200.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				return err
			}

			cfg := config.DefaultServiceConfigFromEnv()
			command.SetupLogger(cfg.Logger)

			return probe(cmd.Context(), cfg.Management, path, verbose)
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Show verbose output.")

	return cmd
}

func probe(ctx context.Context, cfg config.Management, path string, verbose bool) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.ProbeTimeout)
	defer cancel()

	url := strings.TrimSuffix(cfg.ProbeBaseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to create probe request for %s", url)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "probe %s failed", url)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))

	if verbose {
		log.Info().Str("url", url).Int("status", res.StatusCode).Str("body", string(body)).Msg("Probe finished")
	}

	if res.StatusCode != http.StatusOK {
		return errors.Errorf("probe %s returned %d: %s", url, res.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}
