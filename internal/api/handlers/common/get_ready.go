package common

import (
	"net/http"

	"github.com/chapool/subflow-agent/internal/api"
	"github.com/chapool/subflow-agent/internal/util"
	"github.com/labstack/echo/v4"
)

const statusNotReady = 521

// GetReadyRoute is the readiness probe: all components initialized and the node serving the configured chain.
func GetReadyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/ready", getReadyHandler(s))
}

func getReadyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.Ready() {
			return c.String(statusNotReady, "Not ready.")
		}

		if err := s.Agent.CheckChain(c.Request().Context()); err != nil {
			util.LogFromEchoContext(c).Warn().Err(err).Msg("Chain check failed")
			return c.String(statusNotReady, "Not ready.")
		}

		return c.String(http.StatusOK, "Ready.")
	}
}
