package router_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chapool/subflow-agent/internal/agent"
	"github.com/chapool/subflow-agent/internal/api/httperrors"
	"github.com/chapool/subflow-agent/internal/api/router"
	"github.com/chapool/subflow-agent/internal/types"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAgentError(t *testing.T) {
	tests := []struct {
		err       error
		code      int64
		errorType types.PublicHTTPErrorType
		retryable bool
	}{
		{agent.ErrUnauthorized, http.StatusUnauthorized, types.PublicHTTPErrorTypeUNAUTHORIZED, false},
		{agent.ErrBadRequest, http.StatusBadRequest, types.PublicHTTPErrorTypeBADREQUEST, false},
		{agent.ErrEncoding, http.StatusInternalServerError, types.PublicHTTPErrorTypeENCODINGERROR, false},
		{agent.ErrChainUnavailable, http.StatusInternalServerError, types.PublicHTTPErrorTypeCHAINUNAVAILABLE, true},
		{agent.ErrSigning, http.StatusInternalServerError, types.PublicHTTPErrorTypeSIGNINGERROR, false},
		{errors.New("unclassified"), http.StatusInternalServerError, types.PublicHTTPErrorTypeSIGNINGERROR, false},
	}

	for _, tt := range tests {
		httpErr := router.FromAgentError(tt.err)
		assert.Equal(t, tt.code, *httpErr.Code, tt.err.Error())
		assert.Equal(t, tt.errorType, *httpErr.Type, tt.err.Error())
		assert.Equal(t, tt.retryable, httpErr.Retryable, tt.err.Error())
	}
}

func serve(t *testing.T, hide bool, err error) (int, types.PublicHTTPError) {
	t.Helper()

	e := echo.New()
	e.HTTPErrorHandler = router.HTTPErrorHandler(hide)
	e.GET("/", func(echo.Context) error { return err })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var response types.PublicHTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	return rec.Code, response
}

func TestHTTPErrorHandler(t *testing.T) {
	code, res := serve(t, true, errors.Wrap(agent.ErrUnauthorized, "sign"))
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Unauthorized", *res.Error)

	code, res = serve(t, true, httperrors.ErrNotFoundSubscription)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Subscription not found", *res.Error)

	code, res = serve(t, true, echo.NewHTTPError(http.StatusBadRequest, "Syntax error: offset=10"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Syntax error: offset=10", *res.Error)

	code, res = serve(t, true, errors.New("secret internals"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), *res.Error)

	_, res = serve(t, false, errors.New("secret internals"))
	assert.Equal(t, "secret internals", *res.Error)
}
