package agent

import (
	"crypto/subtle"
	"math/big"
	"strings"
)

// maxUint256Digits is the number of decimal digits of 2^256-1.
const maxUint256Digits = 78

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// SigningRequest is the transport independent input of Service.Sign.
type SigningRequest struct {
	Secret         string
	SubscriptionID string
}

// Validator authenticates requests and parses the subscription id. It never touches the network.
type Validator struct {
	secret []byte
}

func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

// Validate checks the secret first, so unauthenticated callers learn nothing about id validation.
func (v *Validator) Validate(req SigningRequest) (*big.Int, error) {
	if len(v.secret) == 0 || subtle.ConstantTimeCompare([]byte(req.Secret), v.secret) != 1 {
		return nil, ErrUnauthorized
	}

	return ParseSubscriptionID(req.SubscriptionID)
}

// ParseSubscriptionID accepts a base-10 non-negative integer fitting into uint256.
// Existence and dueness are left to the contract.
func ParseSubscriptionID(raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, badRequest("Missing subscriptionId")
	}

	if len(raw) > maxUint256Digits {
		return nil, badRequest("subscriptionId exceeds uint256")
	}

	for _, r := range raw {
		if r < '0' || r > '9' {
			return nil, badRequest("subscriptionId must be a non-negative base-10 integer")
		}
	}

	id, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, badRequest("subscriptionId must be a non-negative base-10 integer")
	}

	if id.Cmp(maxUint256) > 0 {
		return nil, badRequest("subscriptionId exceeds uint256")
	}

	return id, nil
}
