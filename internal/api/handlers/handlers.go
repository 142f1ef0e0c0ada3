package handlers

import (
	"github.com/chapool/subflow-agent/internal/api"
	"github.com/chapool/subflow-agent/internal/api/handlers/common"
	"github.com/chapool/subflow-agent/internal/api/handlers/signing"
	"github.com/chapool/subflow-agent/internal/api/handlers/subscriptions"
	"github.com/labstack/echo/v4"
)

func AttachAllRoutes(s *api.Server) {
	s.Router.Routes = []*echo.Route{
		common.GetHealthyRoute(s),
		common.GetReadyRoute(s),
		common.GetVersionRoute(s),
		signing.PostSignRoute(s),
		subscriptions.GetSubscriptionRoute(s),
	}

	s.Router.Routes = append(s.Router.Routes, signing.PostSignCompatRoutes(s)...)
}
