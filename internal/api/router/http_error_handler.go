package router

import (
	"errors"
	"net/http"

	"github.com/chapool/subflow-agent/internal/agent"
	"github.com/chapool/subflow-agent/internal/api/httperrors"
	"github.com/chapool/subflow-agent/internal/types"
	"github.com/chapool/subflow-agent/internal/util"
	"github.com/labstack/echo/v4"
)

// HTTPErrorHandler returns the central echo error handler. All errors leave the service as JSON
// with at least an "error" message. With hideInternalDetails unclassified errors only expose the status text.
func HTTPErrorHandler(hideInternalDetails bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		log := util.LogFromEchoContext(c)

		var (
			code     = http.StatusInternalServerError
			response any
		)

		var (
			httpErr    *httperrors.HTTPError
			validErr   *httperrors.HTTPValidationError
			echoErr    *echo.HTTPError
			agentError *agent.Error
		)

		switch {
		case errors.As(err, &validErr):
			code = int(*validErr.Code)
			response = validErr
		case errors.As(err, &httpErr):
			code = int(*httpErr.Code)
			response = httpErr
		case errors.As(err, &agentError):
			mapped := FromAgentError(agentError)
			code = int(*mapped.Code)
			response = mapped
		case errors.As(err, &echoErr):
			mapped := httperrors.NewFromEcho(echoErr)
			if msg, ok := echoErr.Message.(string); ok && echoErr.Code < http.StatusInternalServerError {
				mapped.PublicHTTPError.Error = &msg
			}
			code = echoErr.Code
			response = mapped
		default:
			if hideInternalDetails {
				response = httperrors.ErrInternalServerGeneric
			} else {
				response = httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, err.Error())
			}
		}

		if code >= http.StatusInternalServerError {
			log.Error().Err(err).Int("status", code).Msg("Request failed")
		} else {
			log.Debug().Err(err).Int("status", code).Msg("Request rejected")
		}

		var sendErr error
		if c.Request().Method == http.MethodHead {
			sendErr = c.NoContent(code)
		} else {
			sendErr = c.JSON(code, response)
		}
		if sendErr != nil {
			log.Warn().Err(sendErr).AnErr("http_err", err).Msg("Failed to handle HTTP error")
		}
	}
}
