package types

import (
	"context"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
)

// SubscriptionResponse subscription response
//
// Amounts and timestamps are uint256 on chain and therefore rendered as decimal strings.
//
// swagger:model subscriptionResponse
type SubscriptionResponse struct {

	// Active flag as stored by the contract
	// Required: true
	Active *bool `json:"active"`

	// Amount charged per period in wei
	// Required: true
	Amount *string `json:"amount"`

	// Prepaid balance in wei
	// Required: true
	Balance *string `json:"balance"`

	// True if the subscription is active, next payment is due and the balance covers the amount
	// Required: true
	Due *bool `json:"due"`

	// Payment interval in seconds
	// Required: true
	Frequency *string `json:"frequency"`

	// Subscription id
	// Required: true
	ID *string `json:"id"`

	// Unix timestamp of the next payment
	// Required: true
	NextPayment *string `json:"nextPayment"`

	// Recipient address
	// Required: true
	Recipient *string `json:"recipient"`

	// Subscriber address
	// Required: true
	Subscriber *string `json:"subscriber"`
}

// Validate validates this subscription response
func (m *SubscriptionResponse) Validate(formats strfmt.Registry) error {
	var res []error

	required := map[string]interface{}{
		"active":      m.Active,
		"amount":      m.Amount,
		"balance":     m.Balance,
		"due":         m.Due,
		"frequency":   m.Frequency,
		"id":          m.ID,
		"nextPayment": m.NextPayment,
		"recipient":   m.Recipient,
		"subscriber":  m.Subscriber,
	}
	for name, value := range required {
		if err := validate.Required(name, "body", value); err != nil {
			res = append(res, err)
		}
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this subscription response based on context it is used
func (m *SubscriptionResponse) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// MarshalBinary interface implementation
func (m *SubscriptionResponse) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *SubscriptionResponse) UnmarshalBinary(b []byte) error {
	var res SubscriptionResponse
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res
	return nil
}
