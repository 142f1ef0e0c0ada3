package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/chapool/subflow-agent/internal/agent"
	"github.com/chapool/subflow-agent/internal/audit"
	"github.com/chapool/subflow-agent/internal/chain"
	"github.com/chapool/subflow-agent/internal/config"
	"github.com/chapool/subflow-agent/internal/keys"
	"github.com/chapool/subflow-agent/internal/metrics"
	"github.com/chapool/subflow-agent/internal/util"
	"github.com/dropbox/godropbox/time2"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type Router struct {
	Routes     []*echo.Route
	Root       *echo.Group
	Management *echo.Group
	APIV1      *echo.Group
}

// Server is a central struct keeping all the dependencies.
// It is initialized with wire, which handles making the new instances of the components
// in the right order. To add a new component, 3 steps are required:
// - declaring it in this struct
// - adding a provider function in providers.go
// - adding the provider's function name to the arguments of wire.Build() in wire.go
//
// Components labeled as `wire:"-"` will be skipped and have to be initialized after the InitNewServer* call.
// For more information about wire refer to https://pkg.go.dev/github.com/google/wire
type Server struct {
	// skip wire:
	// -> initialized with router.Init(s) function
	Echo   *echo.Echo `wire:"-"`
	Router *Router    `wire:"-"`

	Config       config.Server
	Chain        chain.Client
	Credential   *keys.Credential
	Coordination *agent.Coordination
	Audit        audit.Publisher
	Metrics      *metrics.Service
	Clock        time2.Clock
	Agent        *agent.Service
}

// newServerWithComponents is used by wire to initialize the server components.
// Components not listed here won't be handled by wire and should be initialized separately.
// Components which shouldn't be handled must be labeled `wire:"-"` in Server struct.
func newServerWithComponents(
	cfg config.Server,
	client chain.Client,
	credential *keys.Credential,
	coordination *agent.Coordination,
	publisher audit.Publisher,
	metrics *metrics.Service,
	clock time2.Clock,
	agentService *agent.Service,
) *Server {
	return &Server{
		Config:       cfg,
		Chain:        client,
		Credential:   credential,
		Coordination: coordination,
		Audit:        publisher,
		Metrics:      metrics,
		Clock:        clock,
		Agent:        agentService,
	}
}

func NewServer(config config.Server) *Server {
	s := &Server{
		Config: config,
	}

	return s
}

func (s *Server) Ready() bool {
	if err := util.IsStructInitialized(s); err != nil {
		log.Debug().Err(err).Msg("Server is not fully initialized")
		return false
	}

	return true
}

func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}

	if err := s.Echo.Start(s.Config.Echo.ListenAddress); err != nil {
		return fmt.Errorf("failed to start echo server: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.Echo != nil {
		log.Debug().Msg("Shutting down echo server")

		if err := s.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to shutdown echo server")
			errs = append(errs, err)
		}
	}

	// in flight signatures are finished, shared state can go
	if s.Audit != nil {
		log.Debug().Msg("Closing audit publisher")

		if err := s.Audit.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close audit publisher")
			errs = append(errs, err)
		}
	}

	if s.Coordination != nil {
		log.Debug().Msg("Closing coordination store")

		if err := s.Coordination.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close coordination store")
			errs = append(errs, err)
		}
	}

	if closer, ok := s.Chain.(interface{ Close() }); ok {
		log.Debug().Msg("Closing chain RPC client")
		closer.Close()
	}

	if s.Credential != nil {
		s.Credential.Destroy()
	}

	return errs
}
