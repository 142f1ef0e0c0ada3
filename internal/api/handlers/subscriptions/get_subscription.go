package subscriptions

import (
	"net/http"

	"github.com/chapool/subflow-agent/internal/agent"
	"github.com/chapool/subflow-agent/internal/api"
	"github.com/chapool/subflow-agent/internal/api/httperrors"
	"github.com/chapool/subflow-agent/internal/util"
	"github.com/labstack/echo/v4"
)

func GetSubscriptionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/subscriptions/:id", getSubscriptionHandler(s))
}

func getSubscriptionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		sub, err := s.Agent.GetSubscription(ctx, c.Param("id"))
		if err != nil {
			util.LogFromContext(ctx).Debug().Err(err).Msg("Failed to read subscription")
			return err
		}

		if !sub.Exists() {
			return httperrors.ErrNotFoundSubscription
		}

		return util.ValidateAndReturn(c, http.StatusOK, agent.NewSubscriptionResponse(sub, s.Clock.Now()))
	}
}
