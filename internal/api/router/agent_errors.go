package router

import (
	"net/http"

	"github.com/chapool/subflow-agent/internal/agent"
	"github.com/chapool/subflow-agent/internal/api/httperrors"
	"github.com/chapool/subflow-agent/internal/types"
)

var agentErrorTypes = map[agent.Kind]types.PublicHTTPErrorType{
	agent.KindUnauthorized:     types.PublicHTTPErrorTypeUNAUTHORIZED,
	agent.KindBadRequest:       types.PublicHTTPErrorTypeBADREQUEST,
	agent.KindEncoding:         types.PublicHTTPErrorTypeENCODINGERROR,
	agent.KindChainUnavailable: types.PublicHTTPErrorTypeCHAINUNAVAILABLE,
	agent.KindSigning:          types.PublicHTTPErrorTypeSIGNINGERROR,
}

// FromAgentError maps the signing pipeline's error taxonomy onto HTTP statuses:
// unauthorized 401, bad request 400, everything else 500.
func FromAgentError(err error) *httperrors.HTTPError {
	e := agent.AsError(err)

	code := http.StatusInternalServerError
	switch e.Kind {
	case agent.KindUnauthorized:
		code = http.StatusUnauthorized
	case agent.KindBadRequest:
		code = http.StatusBadRequest
	}

	errorType, ok := agentErrorTypes[e.Kind]
	if !ok {
		errorType = types.PublicHTTPErrorTypeGeneric
	}

	httpErr := httperrors.NewHTTPError(code, errorType, e.Msg)
	httpErr.Retryable = e.Retryable()
	httpErr.Internal = e.Err

	return httpErr
}
