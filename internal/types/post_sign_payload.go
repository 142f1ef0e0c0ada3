package types

import (
	"context"

	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
)

// PostSignPayload post sign payload
//
// Both fields are optional at the schema level: the shared secret is checked before the
// subscription id so that unauthenticated callers never learn about id validation.
//
// swagger:model postSignPayload
type PostSignPayload struct {

	// Shared secret authorizing the caller
	Secret string `json:"secret,omitempty"`

	// Subscription to execute the payment for, decimal string or JSON number
	SubscriptionID SubscriptionID `json:"subscriptionId,omitempty"`
}

// Validate validates this post sign payload
func (m *PostSignPayload) Validate(formats strfmt.Registry) error {
	return nil
}

// ContextValidate validates this post sign payload based on context it is used
func (m *PostSignPayload) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// MarshalBinary interface implementation
func (m *PostSignPayload) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *PostSignPayload) UnmarshalBinary(b []byte) error {
	var res PostSignPayload
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res
	return nil
}
