package httperrors

import (
	"net/http"

	"github.com/chapool/subflow-agent/internal/types"
)

var (
	ErrUnauthorized          = NewHTTPError(http.StatusUnauthorized, types.PublicHTTPErrorTypeUNAUTHORIZED, "Unauthorized")
	ErrBadRequestInvalidID   = NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeBADREQUEST, "Invalid subscription id")
	ErrNotFoundSubscription  = NewHTTPError(http.StatusNotFound, types.PublicHTTPErrorTypeGeneric, "Subscription not found")
	ErrInternalServerGeneric = NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, http.StatusText(http.StatusInternalServerError))
)
