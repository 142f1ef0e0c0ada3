package types

import (
	"context"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
)

// SignTransactionResponse sign transaction response
//
// swagger:model signTransactionResponse
type SignTransactionResponse struct {

	// Chain id the transaction is replay-protected for
	// Required: true
	ChainID *int64 `json:"chainId"`

	// 20 zero bytes, only present when the coinbase placeholder is enabled
	// Format: byte
	CoinbaseBase64 strfmt.Base64 `json:"coinbaseBase64,omitempty"`

	// Executor address that signed the transaction
	// Required: true
	From *string `json:"from"`

	// Nonce embedded in the signed transaction
	// Required: true
	// Minimum: 0
	Nonce *int64 `json:"nonce"`

	// True if this signed transaction was returned from the result store instead of being signed again
	Replayed bool `json:"replayed,omitempty"`

	// Raw signed transaction bytes
	// Required: true
	// Format: byte
	RlpBase64 *strfmt.Base64 `json:"rlpBase64"`

	// Raw signed transaction as 0x-prefixed hex
	// Required: true
	// Pattern: ^0x[0-9a-f]+$
	SignedHex *string `json:"signedHex"`

	// Transaction hash
	// Required: true
	TxHash *string `json:"txHash"`
}

// Validate validates this sign transaction response
func (m *SignTransactionResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("chainId", "body", m.ChainID); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("from", "body", m.From); err != nil {
		res = append(res, err)
	}

	if err := m.validateNonce(formats); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("rlpBase64", "body", m.RlpBase64); err != nil {
		res = append(res, err)
	}

	if err := m.validateSignedHex(formats); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("txHash", "body", m.TxHash); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

func (m *SignTransactionResponse) validateNonce(formats strfmt.Registry) error {

	if err := validate.Required("nonce", "body", m.Nonce); err != nil {
		return err
	}

	if err := validate.MinimumInt("nonce", "body", *m.Nonce, 0, false); err != nil {
		return err
	}

	return nil
}

func (m *SignTransactionResponse) validateSignedHex(formats strfmt.Registry) error {

	if err := validate.Required("signedHex", "body", m.SignedHex); err != nil {
		return err
	}

	if err := validate.Pattern("signedHex", "body", *m.SignedHex, `^0x[0-9a-f]+$`); err != nil {
		return err
	}

	return nil
}

// ContextValidate validates this sign transaction response based on context it is used
func (m *SignTransactionResponse) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// MarshalBinary interface implementation
func (m *SignTransactionResponse) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *SignTransactionResponse) UnmarshalBinary(b []byte) error {
	var res SignTransactionResponse
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res
	return nil
}
