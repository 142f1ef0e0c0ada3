package types

import (
	"context"
	"encoding/json"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"
)

// PublicHTTPErrorType Type of error returned, should be used for client-side error handling.
//
// swagger:model publicHttpErrorType
type PublicHTTPErrorType string

func NewPublicHTTPErrorType(value PublicHTTPErrorType) *PublicHTTPErrorType {
	return &value
}

// Pointer returns a pointer to a freshly-allocated PublicHTTPErrorType.
func (m PublicHTTPErrorType) Pointer() *PublicHTTPErrorType {
	return &m
}

const (

	// PublicHTTPErrorTypeGeneric captures enum value "generic"
	PublicHTTPErrorTypeGeneric PublicHTTPErrorType = "generic"

	// PublicHTTPErrorTypeUNAUTHORIZED captures enum value "UNAUTHORIZED"
	PublicHTTPErrorTypeUNAUTHORIZED PublicHTTPErrorType = "UNAUTHORIZED"

	// PublicHTTPErrorTypeBADREQUEST captures enum value "BAD_REQUEST"
	PublicHTTPErrorTypeBADREQUEST PublicHTTPErrorType = "BAD_REQUEST"

	// PublicHTTPErrorTypeENCODINGERROR captures enum value "ENCODING_ERROR"
	PublicHTTPErrorTypeENCODINGERROR PublicHTTPErrorType = "ENCODING_ERROR"

	// PublicHTTPErrorTypeCHAINUNAVAILABLE captures enum value "CHAIN_UNAVAILABLE"
	PublicHTTPErrorTypeCHAINUNAVAILABLE PublicHTTPErrorType = "CHAIN_UNAVAILABLE"

	// PublicHTTPErrorTypeSIGNINGERROR captures enum value "SIGNING_ERROR"
	PublicHTTPErrorTypeSIGNINGERROR PublicHTTPErrorType = "SIGNING_ERROR"
)

// for schema
var publicHttpErrorTypeEnum []interface{}

func init() {
	var res []PublicHTTPErrorType
	if err := json.Unmarshal([]byte(`["generic","UNAUTHORIZED","BAD_REQUEST","ENCODING_ERROR","CHAIN_UNAVAILABLE","SIGNING_ERROR"]`), &res); err != nil {
		panic(err)
	}
	for _, v := range res {
		publicHttpErrorTypeEnum = append(publicHttpErrorTypeEnum, v)
	}
}

func (m PublicHTTPErrorType) validatePublicHTTPErrorTypeEnum(path, location string, value PublicHTTPErrorType) error {
	if err := validate.EnumCase(path, location, value, publicHttpErrorTypeEnum, true); err != nil {
		return err
	}
	return nil
}

// Validate validates this public Http error type
func (m PublicHTTPErrorType) Validate(formats strfmt.Registry) error {
	var res []error

	// value enum
	if err := m.validatePublicHTTPErrorTypeEnum("", "body", m); err != nil {
		return err
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this public Http error type based on context it is used
func (m PublicHTTPErrorType) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}
