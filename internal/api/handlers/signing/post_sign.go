package signing

import (
	"net/http"

	"github.com/chapool/subflow-agent/internal/agent"
	"github.com/chapool/subflow-agent/internal/api"
	"github.com/chapool/subflow-agent/internal/types"
	"github.com/chapool/subflow-agent/internal/util"
	"github.com/labstack/echo/v4"
)

func PostSignRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/sign", postSignHandler(s))
}

// PostSignCompatRoutes serves the paths earlier deployments were called on.
func PostSignCompatRoutes(s *api.Server) []*echo.Route {
	return []*echo.Route{
		s.Router.Root.POST("/sign", postSignHandler(s)),
		s.Router.Root.POST("/api/sign", postSignHandler(s)),
	}
}

func postSignHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.PostSignPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		result, err := s.Agent.Sign(ctx, agent.SigningRequest{
			Secret:         body.Secret,
			SubscriptionID: body.SubscriptionID.String(),
		})
		if err != nil {
			log.Debug().Err(err).Msg("Failed to sign executePayment")
			return err
		}

		return util.ValidateAndReturn(c, http.StatusOK, agent.NewSignTransactionResponse(result, s.Agent.IncludeCoinbasePlaceholder()))
	}
}
